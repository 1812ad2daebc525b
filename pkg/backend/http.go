package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

// HTTPBackend calls a remote generation provider over JSON.
type HTTPBackend struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTP creates a backend for the provider at baseURL.
func NewHTTP(baseURL, apiKey string, timeout time.Duration) *HTTPBackend {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPBackend{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Model       string                   `json:"model"`
	ContentType string                   `json:"content_type"`
	Prompt      string                   `json:"prompt"`
	Options     models.GenerationOptions `json:"options"`
}

type generateResponse struct {
	Data   string `json:"data"`
	Tokens int    `json:"tokens"`
	Error  string `json:"error,omitempty"`
}

func (b *HTTPBackend) Generate(ctx context.Context, model string, req *models.GenerationRequest) (*models.RawContent, error) {
	body, err := json.Marshal(generateRequest{
		Model:       model,
		ContentType: string(req.ContentType),
		Prompt:      req.Prompt,
		Options:     req.Options,
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if b.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := string(respBody)
		var gr generateResponse
		if json.Unmarshal(respBody, &gr) == nil && gr.Error != "" {
			msg = gr.Error
		}
		return nil, &ProviderError{
			Class:      Classify(resp.StatusCode),
			StatusCode: resp.StatusCode,
			Message:    msg,
		}
	}

	var gr generateResponse
	if err := json.Unmarshal(respBody, &gr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &models.RawContent{
		Data:       []byte(gr.Data),
		Model:      model,
		Tokens:     gr.Tokens,
		StatusCode: resp.StatusCode,
	}, nil
}
