package server

import (
	"context"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/chat"
	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
	"github.com/joseph-ayodele/pantry-tracker/internal/receipts"
)

type ReceiptClassifier interface {
	Classify(ctx context.Context, userID int64, payload receipts.ReceiptPayload) ([]entity.PantryItemDraft, error)
}

type ReceiptGateway interface {
	Upload(ctx context.Context, userID int64, image []byte) (string, error)
	Poll(ctx context.Context, userID int64, receiptID string) (constants.ReceiptStatus, error)
}

type UploadURLIssuer interface {
	CreateUploadURL(ctx context.Context, userID int64) (*receipts.UploadURL, error)
}

type PantryService interface {
	Add(ctx context.Context, userID int64, drafts []entity.PantryItemDraft) ([]entity.PantryItem, error)
	List(ctx context.Context, userID int64) ([]entity.PantryItem, error)
	Update(ctx context.Context, userID int64, u entity.PantryItemUpdate) (*entity.PantryItem, error)
	Delete(ctx context.Context, userID int64, ids []int64) error
	Stats(ctx context.Context, userID int64) (*entity.PantryStats, error)
	Expiring(ctx context.Context, userID int64) ([]entity.PantryItem, error)
}

type PantryExporter interface {
	ExportPantryXLSX(ctx context.Context, userID int64) ([]byte, error)
}

type ChatService interface {
	Reply(ctx context.Context, msg entity.ChatMessage) (*chat.Result, error)
	ChatWithContext(ctx context.Context, msg entity.ChatMessage) (*chat.Result, error)
}

type SessionManager interface {
	ListSessions(ctx context.Context, userID int64) ([]entity.ChatSession, error)
	History(ctx context.Context, userID, sessionID int64) ([]entity.ChatMessage, error)
	DeleteSession(ctx context.Context, userID, sessionID int64) error
}

// Handlers groups the services behind the HTTP API. Routes whose service is
// nil are not registered.
type Handlers struct {
	Classifier ReceiptClassifier
	Gateway    ReceiptGateway
	UploadURLs UploadURLIssuer
	Pantry     PantryService
	Export     PantryExporter
	Chat       ChatService
	Sessions   SessionManager
	Logger     *slog.Logger
}

// NewRouter builds the gin engine with request id, logging and recovery middleware.
func NewRouter(h *Handlers) *gin.Engine {
	if h.Logger == nil {
		h.Logger = slog.Default()
	}
	r := gin.New()
	r.Use(RequestID(), RequestLogger(h.Logger), Recovery(h.Logger))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	receipt := r.Group("/receipt")
	if h.Classifier != nil {
		// Called by the OCR gateway; the user comes from the payload.
		receipt.POST("/webhook", h.receiptWebhook)
	}
	authed := receipt.Group("", RequireUser())
	if h.UploadURLs != nil {
		authed.POST("/presigned-url", h.presignedURL)
	}
	if h.Gateway != nil {
		authed.POST("/upload", h.uploadReceipt)
		authed.GET("/result/:id", h.receiptResult)
	}

	if h.Pantry != nil {
		pantry := r.Group("/pantry", RequireUser())
		pantry.GET("/list", h.listPantry)
		pantry.POST("/add", h.addPantry)
		pantry.PATCH("/update", h.updatePantry)
		pantry.POST("/delete", h.deletePantry)
		pantry.GET("/stats", h.pantryStats)
		pantry.GET("/expiring", h.expiringPantry)
		if h.Export != nil {
			pantry.GET("/export", h.exportPantry)
		}
	}

	if h.Chat != nil {
		chatGroup := r.Group("/chat", RequireUser())
		chatGroup.POST("/recipe", h.recipe)
		chatGroup.POST("/message", h.message)
		if h.Sessions != nil {
			chatGroup.GET("/sessions", h.listSessions)
			chatGroup.GET("/sessions/:id/history", h.sessionHistory)
			chatGroup.DELETE("/sessions/:id", h.deleteSession)
		}
	}
	return r
}
