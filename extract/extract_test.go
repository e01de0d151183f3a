package extract

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceTxt(t *testing.T) {
	src := &FileSource{Filename: "notes.txt", Data: []byte("hello world")}
	text, meta, err := src.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.Equal(t, "notes.txt", meta.Filename)
	assert.Equal(t, 1, meta.PageCount)
}

func TestFileSourceUnsupportedType(t *testing.T) {
	src := &FileSource{Filename: "image.png", Data: []byte{1, 2, 3}}
	_, _, err := src.Extract(context.Background())
	require.ErrorIs(t, err, ErrUnsupportedFileType)
}

func TestFileSourceEmptyText(t *testing.T) {
	src := &FileSource{Filename: "empty.txt", Data: []byte("   \n\t ")}
	_, _, err := src.Extract(context.Background())
	require.ErrorIs(t, err, ErrEmptyContent)
}

func TestFileSourceExtensionCaseInsensitive(t *testing.T) {
	src := &FileSource{Filename: "NOTES.TXT", Data: []byte("content")}
	_, _, err := src.Extract(context.Background())
	require.NoError(t, err)
}

func TestNewDocumentID(t *testing.T) {
	now := time.Now()
	id1 := NewDocumentID("a.txt", "some content", now)
	id2 := NewDocumentID("a.txt", "some content", now.Add(time.Nanosecond))
	id3 := NewDocumentID("b.txt", "some content", now)

	assert.Len(t, id1, 32)
	assert.NotEqual(t, id1, id2)
	assert.NotEqual(t, id1, id3)
	assert.Equal(t, id1, NewDocumentID("a.txt", "some content", now))
}

func TestDecodeContentText(t *testing.T) {
	content := `BT /F1 12 Tf (Hello) Tj [(wor)-250(ld)] TJ (paren \(escaped\)) Tj ET`
	got := decodeContentText(content)
	assert.Contains(t, got, "Hello")
	assert.Contains(t, got, "wor")
	assert.Contains(t, got, "ld")
	assert.Contains(t, got, "paren (escaped)")
}

func TestAmbiguousTopicError(t *testing.T) {
	err := &AmbiguousTopicError{Topic: "go", Options: []string{"Go (game)", "Go (language)"}}
	assert.Contains(t, err.Error(), "ambiguous")
	assert.Contains(t, err.Error(), "Go (game)")

	var ambiguous *AmbiguousTopicError
	assert.True(t, errors.As(error(err), &ambiguous))
}
