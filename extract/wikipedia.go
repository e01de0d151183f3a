package extract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrTopicNotFound is returned when no Wikipedia page matches a topic.
var ErrTopicNotFound = errors.New("wikipedia page not found for this topic")

// AmbiguousTopicError carries up to five disambiguation options.
type AmbiguousTopicError struct {
	Topic   string
	Options []string
}

func (e *AmbiguousTopicError) Error() string {
	return fmt.Sprintf("topic %q is ambiguous, options: %s", e.Topic, strings.Join(e.Options, ", "))
}

// WikipediaClient talks to the MediaWiki action API.
type WikipediaClient struct {
	apiURL string
	client *http.Client
}

func NewWikipediaClient(apiURL string, timeout time.Duration) *WikipediaClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WikipediaClient{
		apiURL: apiURL,
		client: &http.Client{Timeout: timeout},
	}
}

// WikipediaSource loads the plain-text extract of the best search hit
// for a topic.
type WikipediaSource struct {
	Client *WikipediaClient
	Topic  string
}

func (s *WikipediaSource) Extract(ctx context.Context) (string, Meta, error) {
	title, alternatives, err := s.Client.search(ctx, s.Topic)
	if err != nil {
		return "", Meta{}, err
	}

	text, disambiguation, err := s.Client.pageExtract(ctx, title)
	if err != nil {
		return "", Meta{}, err
	}
	if disambiguation {
		return "", Meta{}, &AmbiguousTopicError{Topic: s.Topic, Options: alternatives}
	}
	if strings.TrimSpace(text) == "" {
		return "", Meta{}, ErrEmptyContent
	}

	return text, Meta{Filename: "wikipedia:" + title}, nil
}

type searchResponse struct {
	Query struct {
		Search []struct {
			Title string `json:"title"`
		} `json:"search"`
	} `json:"query"`
}

// search returns the top hit plus up to five alternative titles.
func (c *WikipediaClient) search(ctx context.Context, topic string) (string, []string, error) {
	params := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {topic},
		"srlimit":  {"6"},
		"format":   {"json"},
	}
	var resp searchResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return "", nil, err
	}
	if len(resp.Query.Search) == 0 {
		return "", nil, ErrTopicNotFound
	}
	var alternatives []string
	for _, hit := range resp.Query.Search[1:] {
		alternatives = append(alternatives, hit.Title)
		if len(alternatives) == 5 {
			break
		}
	}
	return resp.Query.Search[0].Title, alternatives, nil
}

type extractResponse struct {
	Query struct {
		Pages map[string]struct {
			Title     string `json:"title"`
			Extract   string `json:"extract"`
			Missing   string `json:"missing"`
			PageProps *struct {
				Disambiguation *string `json:"disambiguation"`
			} `json:"pageprops"`
		} `json:"pages"`
	} `json:"query"`
}

// pageExtract fetches the plain-text extract of a title and reports
// whether the page is a disambiguation page.
func (c *WikipediaClient) pageExtract(ctx context.Context, title string) (string, bool, error) {
	params := url.Values{
		"action":      {"query"},
		"prop":        {"extracts|pageprops"},
		"explaintext": {"1"},
		"redirects":   {"1"},
		"ppprop":      {"disambiguation"},
		"titles":      {title},
		"format":      {"json"},
	}
	var resp extractResponse
	if err := c.get(ctx, params, &resp); err != nil {
		return "", false, err
	}
	for id, page := range resp.Query.Pages {
		if id == "-1" || page.Missing != "" {
			return "", false, ErrTopicNotFound
		}
		if page.PageProps != nil && page.PageProps.Disambiguation != nil {
			return "", true, nil
		}
		return page.Extract, false, nil
	}
	return "", false, ErrTopicNotFound
}

func (c *WikipediaClient) get(ctx context.Context, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.apiURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "raglite/1.0")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("wikipedia request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("wikipedia API error: status %d, body: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode wikipedia response: %w", err)
	}
	return nil
}
