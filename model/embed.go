package model

import "context"

// EmbedderInterface определяет интерфейс для создания эмбеддингов.
type EmbedderInterface interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}
