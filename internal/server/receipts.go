package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/pantry-tracker/constants"
	"github.com/joseph-ayodele/pantry-tracker/internal/common"
	"github.com/joseph-ayodele/pantry-tracker/internal/receipts"
)

type webhookRequest struct {
	UserID  int64           `json:"userId" binding:"required,gt=0"`
	Receipt json.RawMessage `json:"receipt" binding:"required"`
}

type uploadReceiptRequest struct {
	ImageBase64 string `json:"image_base64" binding:"required"`
}

func (h *Handlers) receiptWebhook(c *gin.Context) {
	var req webhookRequest
	if !bindJSON(c, &req) {
		return
	}
	payload, err := receipts.ParsePayload(req.Receipt)
	if err != nil {
		writeError(c, h.Logger, "receipt.webhook.bad_payload", common.NewAppError("INVALID_RECEIPT", "receipt payload is not a valid object", common.ErrInvalidInput))
		return
	}
	if _, err := h.Classifier.Classify(c.Request.Context(), req.UserID, payload); err != nil {
		writeError(c, h.Logger, "receipt.webhook.classify_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) presignedURL(c *gin.Context) {
	u, err := h.UploadURLs.CreateUploadURL(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.Logger, "receipt.presign_failed", err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *Handlers) uploadReceipt(c *gin.Context) {
	var req uploadReceiptRequest
	if !bindJSON(c, &req) {
		return
	}
	// Accept data URLs ("data:image/jpeg;base64,....") as well as bare base64.
	encoded := req.ImageBase64
	if i := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && i >= 0 {
		encoded = encoded[i+1:]
	}
	image, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil || len(image) == 0 {
		writeError(c, h.Logger, "receipt.upload.bad_image", common.NewAppError("INVALID_IMAGE", "image_base64 is not valid base64", common.ErrInvalidInput))
		return
	}

	receiptID, err := h.Gateway.Upload(c.Request.Context(), userID(c), image)
	if err != nil {
		writeError(c, h.Logger, "receipt.upload.failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"receipt_id": receiptID})
}

func (h *Handlers) receiptResult(c *gin.Context) {
	status, err := h.Gateway.Poll(c.Request.Context(), userID(c), c.Param("id"))
	switch status {
	case constants.ReceiptStatusProcessed:
		c.Status(http.StatusNoContent)
	case constants.ReceiptStatusPending:
		c.JSON(http.StatusAccepted, gin.H{"status": status})
	default:
		l := common.LoggerWithRequest(c.Request.Context(), h.Logger)
		l.Error("receipt.result.error", "receipt_id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"status": constants.ReceiptStatusError, "error": "failed to poll receipt"})
	}
}
