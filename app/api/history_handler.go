package api

import (
	"github.com/gofiber/fiber/v2"

	"raglite/store"
	"raglite/types"
)

type HistoryHandler struct {
	history *store.History
}

func NewHistoryHandler(history *store.History) *HistoryHandler {
	return &HistoryHandler{history: history}
}

func (h *HistoryHandler) HandleList(c *fiber.Ctx) error {
	items := h.history.List()
	if items == nil {
		items = []types.HistoryItem{}
	}
	return c.JSON(items)
}

func (h *HistoryHandler) HandleClear(c *fiber.Ctx) error {
	h.history.Clear()
	return c.JSON(fiber.Map{"message": "history cleared"})
}
