package api

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"raglite/chunker"
	"raglite/extract"
	"raglite/model"
	"raglite/store"
	"raglite/types"
)

type DocumentHandler struct {
	store    store.Storer
	embedder model.EmbedderInterface
	wiki     *extract.WikipediaClient
	cfg      types.Config
	logger   *slog.Logger
}

func NewDocumentHandler(s store.Storer, embedder model.EmbedderInterface, wiki *extract.WikipediaClient, cfg types.Config) *DocumentHandler {
	return &DocumentHandler{
		store:    s,
		embedder: embedder,
		wiki:     wiki,
		cfg:      cfg,
		logger:   slog.Default(),
	}
}

func (h *DocumentHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return ErrBadRequest()
	}

	file, err := fileHeader.Open()
	if err != nil {
		return err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return err
	}

	src := &extract.FileSource{Filename: fileHeader.Filename, Data: data}
	doc, err := h.ingest(c, src)
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

func (h *DocumentHandler) HandleWikipedia(c *fiber.Ctx) error {
	topic := c.Query("topic")
	if topic == "" {
		return NewError(fiber.StatusBadRequest, "topic query parameter is required")
	}

	src := &extract.WikipediaSource{Client: h.wiki, Topic: topic}
	doc, err := h.ingest(c, src)
	if err != nil {
		return err
	}
	return c.JSON(doc)
}

// ingest runs the shared write path: extract, chunk, embed outside the
// store lock, then index.
func (h *DocumentHandler) ingest(c *fiber.Ctx, src extract.Source) (*types.Document, error) {
	ctx := c.Context()

	text, meta, err := src.Extract(ctx)
	if err != nil {
		return nil, translateExtractErr(err, meta.Filename)
	}

	texts := chunker.Split(h.cfg.ChunkStrategy, text, h.cfg.ChunkSize, h.cfg.ChunkOverlap)
	if len(texts) == 0 {
		return nil, ErrEmptyContent()
	}

	now := time.Now()
	doc := types.Document{
		ID:         extract.NewDocumentID(meta.Filename, text, now),
		Filename:   meta.Filename,
		PageCount:  meta.PageCount,
		UploadTime: now,
		ChunkCount: len(texts),
	}

	chunks := make([]types.Chunk, len(texts))
	for i, t := range texts {
		chunks[i] = types.Chunk{
			Text:       t,
			Index:      i,
			DocumentID: doc.ID,
			Metadata: map[string]string{
				"filename": doc.Filename,
			},
		}
	}

	h.logger.Info("embedding document", "filename", doc.Filename, "chunks", len(chunks))
	embeddings, err := h.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, ErrUpstream(err)
	}

	if err := h.store.AddDocument(ctx, doc, chunks, embeddings); err != nil {
		return nil, ErrPersistence(err)
	}
	return &doc, nil
}

func translateExtractErr(err error, filename string) error {
	var ambiguous *extract.AmbiguousTopicError
	switch {
	case errors.Is(err, extract.ErrUnsupportedFileType):
		return ErrUnsupportedFileType(filename)
	case errors.Is(err, extract.ErrEmptyContent):
		return ErrEmptyContent()
	case errors.Is(err, extract.ErrTopicNotFound):
		return ErrNotFound("topic", "wikipedia page")
	case errors.As(err, &ambiguous):
		return ErrAmbiguousTopic(ambiguous.Options)
	default:
		return ErrUpstream(err)
	}
}

func (h *DocumentHandler) HandleList(c *fiber.Ctx) error {
	docs, err := h.store.ListDocuments(c.Context())
	if err != nil {
		return ErrPersistence(err)
	}
	if docs == nil {
		docs = []types.Document{}
	}
	return c.JSON(docs)
}

func (h *DocumentHandler) HandleDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	ok, err := h.store.DeleteDocument(c.Context(), id)
	if err != nil {
		return ErrPersistence(err)
	}
	if !ok {
		return ErrNotFound(id, "document")
	}
	return c.JSON(fiber.Map{"message": "document deleted", "document_id": id})
}

func (h *DocumentHandler) HandleClear(c *fiber.Ctx) error {
	if err := h.store.ClearAll(c.Context()); err != nil {
		return ErrPersistence(err)
	}
	return c.JSON(fiber.Map{"message": "all documents cleared"})
}

func (h *DocumentHandler) HandleCompact(c *fiber.Ctx) error {
	removed, err := h.store.Compact(c.Context())
	if err != nil {
		return ErrPersistence(err)
	}
	return c.JSON(fiber.Map{"rows_removed": removed})
}
