package types

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

type Validater interface {
	Validate() map[string]string
}

type QueryParams struct {
	Question    string   `json:"question" validate:"required"`
	TopK        int      `json:"top_k" validate:"omitempty,gte=1,lte=50"`
	DocumentIDs []string `json:"document_ids,omitempty"`
}

type SummarizeParams struct {
	DocumentID  string `json:"document_id" validate:"required"`
	SummaryType string `json:"summary_type"`
}

func Validate(v Validater) map[string]string {
	return v.Validate()
}

func (params *QueryParams) Validate() map[string]string {
	return validateStruct(params)
}

func (params *SummarizeParams) Validate() map[string]string {
	return validateStruct(params)
}

func validateStruct(s any) map[string]string {
	validate := validator.New()
	if err := validate.Struct(s); err != nil {
		errs := err.(validator.ValidationErrors)
		errors := make(map[string]string)
		for _, e := range errs {
			errors[e.Field()] = fmt.Sprintf("failed on '%s' tag", e.Tag())
		}
		return errors
	}
	return nil
}

type SearchResponse struct {
	Answer     string    `json:"answer"`
	Sources    []Source  `json:"sources"`
	Confidence float64   `json:"confidence"`
	Timestamp  time.Time `json:"timestamp"`
}

// Source identifies a document that contributed context to an answer.
// Deduplicated by document, first-seen order.
type Source struct {
	DocID      string  `json:"doc_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Relevance  float64 `json:"relevance_score"`
}

type SummarizeResponse struct {
	DocumentID  string `json:"document_id"`
	Summary     string `json:"summary"`
	SummaryType string `json:"summary_type"`
}

type StatusResponse struct {
	DocumentsLoaded bool `json:"documents_loaded"`
	DocumentCount   int  `json:"document_count"`
	ChunkCount      int  `json:"num_chunks"`
	IndexRows       int  `json:"index_rows"`
	HistoryCount    int  `json:"history_count"`
}
