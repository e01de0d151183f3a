package api

import (
	"github.com/gofiber/fiber/v2"

	"raglite/store"
	"raglite/types"
)

type CheckHandler struct {
	store   store.Storer
	history *store.History
}

func NewCheckHandler(s store.Storer, history *store.History) *CheckHandler {
	return &CheckHandler{store: s, history: history}
}

func (h *CheckHandler) HandleHealthy(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"result": "ok"})
}

func (h *CheckHandler) HandleStatus(c *fiber.Ctx) error {
	stats, err := h.store.Stats(c.Context())
	if err != nil {
		return ErrPersistence(err)
	}
	return c.JSON(types.StatusResponse{
		DocumentsLoaded: stats.DocumentCount > 0,
		DocumentCount:   stats.DocumentCount,
		ChunkCount:      stats.ChunkCount,
		IndexRows:       stats.IndexRows,
		HistoryCount:    h.history.Len(),
	})
}
