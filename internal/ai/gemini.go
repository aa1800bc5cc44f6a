package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/yixuan-h/pagemate/internal/chat"
)

// Gemini calls the generateContent endpoint. It classifies failures at the
// origin: quota, connectivity and protocol errors leave here already tagged,
// so nothing downstream has to guess from error text.
type Gemini struct {
	BaseURL string
	APIKey  string
	Model   string
	Client  *http.Client
}

func NewGemini(baseURL, apiKey, model string) *Gemini {
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com"
	}
	if model == "" {
		model = "gemini-2.0-flash-001"
	}
	return &Gemini{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		Client:  &http.Client{Timeout: 90 * time.Second},
	}
}

type generateRequest struct {
	Contents []chat.Message `json:"contents"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// GenerateContent posts the composed conversation and returns the model's
// text. The success path is candidates[0].content.parts[0].text; any other
// shape is a protocol error.
func (g *Gemini) GenerateContent(ctx context.Context, contents []chat.Message) (string, error) {
	if g.Client == nil {
		return "", errors.New("gemini: http client is nil")
	}
	if strings.TrimSpace(g.APIKey) == "" {
		return "", errors.New("gemini: api key is required")
	}

	b, err := json.Marshal(generateRequest{Contents: contents})
	if err != nil {
		return "", err
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(g.BaseURL, "/"), g.Model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.Client.Do(req)
	if err != nil {
		return "", chat.E(chat.KindConnectivity, "gemini", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", chat.E(chat.KindQuota, "gemini", fmt.Errorf("status %d", resp.StatusCode))
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", chat.E(chat.KindProtocol, "gemini", err)
	}
	if decoded.Error != nil {
		if decoded.Error.Status == "RESOURCE_EXHAUSTED" {
			return "", chat.E(chat.KindQuota, "gemini", errors.New(decoded.Error.Message))
		}
		return "", chat.E(chat.KindProtocol, "gemini", errors.New(decoded.Error.Message))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", chat.E(chat.KindProtocol, "gemini", fmt.Errorf("status %d", resp.StatusCode))
	}

	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", chat.E(chat.KindProtocol, "gemini", errors.New("response has no candidates"))
	}
	return decoded.Candidates[0].Content.Parts[0].Text, nil
}
