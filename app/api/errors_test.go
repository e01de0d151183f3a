package api

import (
	"errors"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"raglite/extract"
)

func TestTranslateExtractErr(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		contains string
	}{
		{"unsupported type", extract.ErrUnsupportedFileType, fiber.StatusBadRequest, "not a PDF or TXT"},
		{"empty content", extract.ErrEmptyContent, fiber.StatusBadRequest, "no text"},
		{"topic not found", extract.ErrTopicNotFound, fiber.StatusNotFound, "not found"},
		{
			"ambiguous topic",
			&extract.AmbiguousTopicError{Topic: "go", Options: []string{"Go (game)", "Go (language)"}},
			fiber.StatusBadRequest,
			"Go (game), Go (language)",
		},
		{"anything else", errors.New("connection refused"), fiber.StatusBadGateway, "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translateExtractErr(tt.err, "file.bin")
			apiErr, ok := err.(Error)
			require.True(t, ok)
			assert.Equal(t, tt.wantCode, apiErr.Code)
			assert.Contains(t, apiErr.Message, tt.contains)
		})
	}
}

func TestWrappedExtractErrTranslated(t *testing.T) {
	wrapped := errors.Join(errors.New("while ingesting"), extract.ErrEmptyContent)
	err := translateExtractErr(wrapped, "a.txt")
	apiErr, ok := err.(Error)
	require.True(t, ok)
	assert.Equal(t, fiber.StatusBadRequest, apiErr.Code)
}
