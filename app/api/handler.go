package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"raglite/app/agent"
	"raglite/model"
	"raglite/store"
	"raglite/types"
)

type RequestHandler struct {
	store    store.Storer
	embedder model.EmbedderInterface
	agent    *agent.Agent
	history  *store.History
	cfg      types.Config
}

func NewRequestHandler(s store.Storer, embedder model.EmbedderInterface, a *agent.Agent, history *store.History, cfg types.Config) *RequestHandler {
	return &RequestHandler{
		store:    s,
		embedder: embedder,
		agent:    a,
		history:  history,
		cfg:      cfg,
	}
}

func (h *RequestHandler) HandleQuery(c *fiber.Ctx) error {
	var params types.QueryParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	ctx := c.Context()

	// Reject before touching the embedding service.
	stats, err := h.store.Stats(ctx)
	if err != nil {
		return ErrPersistence(err)
	}
	if stats.DocumentCount == 0 {
		return ErrNoDocumentsLoaded()
	}

	topK := params.TopK
	if topK <= 0 {
		topK = h.cfg.DefaultTopK
	}

	queryVec, err := h.embedder.Embed(ctx, params.Question)
	if err != nil {
		return ErrUpstream(err)
	}

	results, err := h.store.Search(ctx, queryVec, topK, params.DocumentIDs)
	if err != nil {
		return ErrPersistence(err)
	}

	if len(results) == 0 {
		resp := &types.SearchResponse{
			Answer:     "No relevant information found in the documents.",
			Sources:    []types.Source{},
			Confidence: 0.0,
			Timestamp:  time.Now(),
		}
		h.history.Append(params.Question, resp.Answer)
		return c.JSON(resp)
	}

	contextText, used := buildContext(results, h.cfg.MaxContextLength)

	answer, err := h.agent.GenerateAnswer(ctx, contextText, params.Question)
	if err != nil {
		return ErrUpstream(err)
	}

	filenames, err := h.documentFilenames(c)
	if err != nil {
		return ErrPersistence(err)
	}

	resp := &types.SearchResponse{
		Answer: answer,
		// Confidence is the mean similarity of the chunks actually
		// used as context, not the best single match.
		Confidence: meanSimilarity(used),
		Sources:    formatSources(used, filenames),
		Timestamp:  time.Now(),
	}
	h.history.Append(params.Question, answer)
	return c.JSON(resp)
}

func (h *RequestHandler) HandleSummarize(c *fiber.Ctx) error {
	var params types.SummarizeParams
	if c.BodyParser(&params) != nil {
		return ErrBadRequest()
	}
	if errors := types.Validate(&params); len(errors) > 0 {
		return NewValidationError(errors)
	}

	ctx := c.Context()
	chunks, err := h.store.GetDocumentChunks(ctx, params.DocumentID)
	if err != nil {
		return ErrPersistence(err)
	}
	if len(chunks) == 0 {
		return ErrNotFound(params.DocumentID, "document")
	}

	text := strings.Join(chunks, "\n\n")
	if len(text) > h.cfg.MaxContextLength {
		text = text[:h.cfg.MaxContextLength] + "..."
	}

	summary, err := h.agent.Summarize(ctx, text, params.SummaryType)
	if err != nil {
		return ErrUpstream(err)
	}

	return c.JSON(types.SummarizeResponse{
		DocumentID:  params.DocumentID,
		Summary:     summary,
		SummaryType: params.SummaryType,
	})
}

func (h *RequestHandler) documentFilenames(c *fiber.Ctx) (map[string]string, error) {
	docs, err := h.store.ListDocuments(c.Context())
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(docs))
	for _, d := range docs {
		names[d.ID] = d.Filename
	}
	return names, nil
}

// buildContext assembles retrieval hits into a prompt context under a
// character budget. Chunks are taken whole in relevance order; the
// first one that would overflow the budget stops assembly.
func buildContext(results []types.SearchResult, maxLength int) (string, []types.SearchResult) {
	var sb strings.Builder
	var used []types.SearchResult

	for i, r := range results {
		part := fmt.Sprintf("[Source %d]:\n%s\n", i+1, r.Chunk.Text)
		if sb.Len() > 0 && sb.Len()+len(part) > maxLength {
			break
		}
		sb.WriteString(part)
		used = append(used, r)
	}
	return sb.String(), used
}

// meanSimilarity averages the similarity of the context chunks used.
func meanSimilarity(used []types.SearchResult) float64 {
	if len(used) == 0 {
		return 0.0
	}
	var sum float64
	for _, r := range used {
		sum += r.Similarity
	}
	mean := sum / float64(len(used))
	if mean > 1.0 {
		mean = 1.0
	}
	return mean
}

// formatSources deduplicates context chunks by owning document,
// preserving first-seen order.
func formatSources(used []types.SearchResult, filenames map[string]string) []types.Source {
	sources := make([]types.Source, 0, len(used))
	seen := make(map[string]struct{}, len(used))
	for _, r := range used {
		docID := r.Chunk.DocumentID
		if _, ok := seen[docID]; ok {
			continue
		}
		seen[docID] = struct{}{}
		sources = append(sources, types.Source{
			DocID:      docID,
			Filename:   filenames[docID],
			ChunkIndex: r.Chunk.Index,
			Relevance:  round3(r.Similarity),
		})
	}
	return sources
}

func round3(v float64) float64 {
	return float64(int(v*1000+0.5)) / 1000
}
