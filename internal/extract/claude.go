package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const defaultAPIURL = "https://api.anthropic.com/v1/messages"

// anthropicVersion is the Anthropic Messages API version header value.
const anthropicVersion = "2023-06-01"

// extractionPrompt instructs the model to reply with a single JSON object and
// nothing else. The shape matches resultSchema.
const extractionPrompt = `You are reading a photographed page of a furniture assembly manual.
Extract the page content and respond with a single JSON object, no prose and no markdown fences:
{
  "fullText": "all readable text on the page",
  "materials": ["each material or part mentioned"],
  "measurements": ["each measurement or dimension mentioned"],
  "instructions": ["each assembly step, in order"]
}
Use empty arrays for sections the page does not contain.`

// request types mirror the Anthropic Messages API structure.
type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string  `json:"role"`
	Content []block `json:"content"`
}

type block struct {
	Type   string  `json:"type"`
	Text   string  `json:"text,omitempty"`
	Source *source `json:"source,omitempty"`
}

type source struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type response struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

// ClaudeExtractor reads manual pages with the Anthropic Messages API.
type ClaudeExtractor struct {
	apiKey  string
	model   string
	client  *http.Client
	baseURL string
}

func NewClaudeExtractor(apiKey, model string) *ClaudeExtractor {
	return &ClaudeExtractor{
		apiKey:  apiKey,
		model:   model,
		client:  &http.Client{},
		baseURL: defaultAPIURL,
	}
}

// Extract downloads the page image and asks the model for its structured
// content. The model reply must pass schema validation or the whole call
// fails.
func (e *ClaudeExtractor) Extract(ctx context.Context, imageURL string) (*Result, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("no image to extract from")
	}

	imageData, mimeType, err := e.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	body := request{
		Model: e.model,
		// A dense manual page with a long parts list fits comfortably in 2048
		// tokens of JSON output.
		MaxTokens: 2048,
		Messages:  buildMessages(imageData, mimeType),
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := e.newHTTPRequest(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call claude: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close claude response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("claude returned status %d: %s", resp.StatusCode, errBody)
	}

	var respBody response
	if err := json.NewDecoder(resp.Body).Decode(&respBody); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	var responseText string
	for _, blk := range respBody.Content {
		if blk.Type == "text" {
			responseText = blk.Text
			break
		}
	}

	return parseValidated([]byte(stripFences(responseText)))
}

// fetchImage downloads the stored page image so it can be inlined in the
// model request.
func (e *ClaudeExtractor) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create image request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch image: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close image response body", "error", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image: %w", err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

// buildMessages constructs the Anthropic API message payload for a page read.
func buildMessages(imageData []byte, mimeType string) []message {
	return []message{{
		Role: "user",
		Content: []block{
			{
				Type: "image",
				Source: &source{
					Type:      "base64",
					MediaType: normaliseMIME(mimeType),
					Data:      base64.StdEncoding.EncodeToString(imageData),
				},
			},
			{Type: "text", Text: extractionPrompt},
		},
	}}
}

// newHTTPRequest creates an authenticated POST request to the Claude API.
func (e *ClaudeExtractor) newHTTPRequest(ctx context.Context, payload []byte) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", e.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)
	return req, nil
}

// stripFences removes a markdown code fence if the model wrapped its JSON in
// one despite the prompt.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// normaliseMIME maps content types to the values the Anthropic API accepts.
// Unknown types are coerced to jpeg.
func normaliseMIME(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	switch mimeType {
	case "image/png", "image/gif", "image/webp":
		return mimeType
	default:
		return "image/jpeg"
	}
}
