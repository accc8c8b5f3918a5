package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/pantry-tracker/internal/entity"
)

type deletePantryRequest struct {
	ItemIDs []int64 `json:"item_ids" binding:"required,min=1"`
}

func (h *Handlers) listPantry(c *gin.Context) {
	items, err := h.Pantry.List(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.Logger, "pantry.list_failed", err)
		return
	}
	if items == nil {
		items = []entity.PantryItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handlers) addPantry(c *gin.Context) {
	var drafts []entity.PantryItemDraft
	if !bindJSON(c, &drafts) {
		return
	}
	items, err := h.Pantry.Add(c.Request.Context(), userID(c), drafts)
	if err != nil {
		writeError(c, h.Logger, "pantry.add_failed", err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handlers) updatePantry(c *gin.Context) {
	var u entity.PantryItemUpdate
	if !bindJSON(c, &u) {
		return
	}
	item, err := h.Pantry.Update(c.Request.Context(), userID(c), u)
	if err != nil {
		writeError(c, h.Logger, "pantry.update_failed", err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handlers) deletePantry(c *gin.Context) {
	var req deletePantryRequest
	if !bindJSON(c, &req) {
		return
	}
	if err := h.Pantry.Delete(c.Request.Context(), userID(c), req.ItemIDs); err != nil {
		writeError(c, h.Logger, "pantry.delete_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) pantryStats(c *gin.Context) {
	stats, err := h.Pantry.Stats(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.Logger, "pantry.stats_failed", err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handlers) expiringPantry(c *gin.Context) {
	items, err := h.Pantry.Expiring(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.Logger, "pantry.expiring_failed", err)
		return
	}
	if items == nil {
		items = []entity.PantryItem{}
	}
	c.JSON(http.StatusOK, items)
}

func (h *Handlers) exportPantry(c *gin.Context) {
	data, err := h.Export.ExportPantryXLSX(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, h.Logger, "export.xlsx.failed", err)
		return
	}
	filename := fmt.Sprintf("pantry-%d-%s.xlsx", userID(c), time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
