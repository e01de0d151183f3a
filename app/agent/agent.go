// Package agent wraps the generation model behind answer and summary
// operations.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkoukk/tiktoken-go"
)

type GenerateRequest struct {
	Model  string `json:"model"`
	System string `json:"system"`
	Prompt string `json:"prompt"`
}

type GenerateResponse struct {
	Response string `json:"response"`
}

const (
	SummaryBrief        = "brief"
	SummaryDetailed     = "detailed"
	SummaryBulletPoints = "bullet_points"
)

type Agent struct {
	url     string
	model   string
	timeout time.Duration
	logger  *slog.Logger
	client  *http.Client
}

func New(url, model string, timeout time.Duration) *Agent {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Agent{
		url:     url,
		model:   model,
		timeout: timeout,
		logger:  slog.Default(),
		client:  http.DefaultClient,
	}
}

const answerSystem = `You are a document assistant. Answer clearly and to the point using only the provided context.
If the context is empty or does not contain the information, say so plainly.
Do not add introductions like 'Of course!' or 'Here's the answer:'.`

// GenerateAnswer asks the model to answer question grounded in the
// assembled context, citing sources where relevant.
func (a *Agent) GenerateAnswer(ctx context.Context, contextText, question string) (string, error) {
	prompt := fmt.Sprintf(`Answer the question based ONLY on the provided context from the documents.
If the context doesn't contain enough information, say so clearly.
Be concise and specific, and cite which source(s) you used.

Context:
%s

Question:
%s

Answer:`, contextText, question)

	return a.generate(ctx, answerSystem, prompt)
}

// Summarize produces a summary of text in one of three verbosity
// modes. Unrecognized modes fall back to a plain summary prompt.
func (a *Agent) Summarize(ctx context.Context, text, summaryType string) (string, error) {
	var prompt string
	switch summaryType {
	case SummaryBrief:
		prompt = fmt.Sprintf(`Provide a brief summary (2-3 sentences) of the following document:

%s

Brief Summary:`, text)
	case SummaryDetailed:
		prompt = fmt.Sprintf(`Provide a comprehensive summary of the following document. Include:
- Main topics and themes
- Key findings or arguments
- Important details and conclusions

Document:
%s

Detailed Summary:`, text)
	case SummaryBulletPoints:
		prompt = fmt.Sprintf(`Summarize the following document as bullet points covering:
- Main topics
- Key facts and figures
- Important conclusions

Document:
%s

Bullet Point Summary:`, text)
	default:
		prompt = fmt.Sprintf(`Summarize the following document:

%s

Summary:`, text)
	}

	return a.generate(ctx, "", prompt)
}

func (a *Agent) generate(ctx context.Context, system, prompt string) (string, error) {
	start := time.Now()
	defer func() {
		a.logger.Debug("llm call finished", "took", time.Since(start))
	}()

	reqBody, err := json.Marshal(GenerateRequest{
		Model:  a.model,
		System: system,
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	if count, err := CountTokens(reqBody); err == nil {
		a.logger.Debug("prompt size", "tokens", count, "bytes", len(reqBody))
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, "POST", a.url, bytes.NewBuffer(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("llm API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	var genResp GenerateResponse
	if err := json.Unmarshal(body, &genResp); err == nil && genResp.Response != "" {
		return genResp.Response, nil
	}

	// Потоковый ответ: соберём всё в строку.
	var output string
	decoder := json.NewDecoder(bytes.NewReader(body))
	for decoder.More() {
		var chunk GenerateResponse
		if err := decoder.Decode(&chunk); err != nil {
			break
		}
		output += chunk.Response
	}
	if output == "" {
		return "", fmt.Errorf("llm API returned empty response")
	}
	return output, nil
}

// CountTokens reports the token count of data under a tiktoken
// encoding compatible with the prompt models in use.
func CountTokens(data []byte) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	tokens := enc.Encode(string(data), nil, nil)
	return len(tokens), nil
}
