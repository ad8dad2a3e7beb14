// Package generate is the HTTP client for the external image-editing
// service.
package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inamate/inamate/canvas-go/internal/engine"
)

const (
	editPath        = "/v1/images/edit"
	maxResponseSize = 32 << 20
	tokenSubject    = "canvas-engine"
)

// Client calls the generation service. It implements engine.Generator.
type Client struct {
	baseURL string
	signer  *Signer
	http    *http.Client
}

// NewClient creates a client for the service at baseURL. Requests carry a
// bearer token signed with secret.
func NewClient(baseURL, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		signer:  NewSigner(secret, "canvas"),
		http:    &http.Client{Timeout: timeout},
	}
}

// EditRequest is the wire form of an edit call. Image data is base64 in JSON.
type EditRequest struct {
	Prompt string        `json:"prompt"`
	Images []EditPayload `json:"images"`
}

type EditPayload struct {
	MediaType string `json:"mediaType"`
	Data      []byte `json:"data"`
}

// EditResponse carries either an image or an error message.
type EditResponse struct {
	Image *EditPayload `json:"image,omitempty"`
	Error string       `json:"error,omitempty"`
}

// Edit sends the prompt and images and returns the edited image.
func (c *Client) Edit(ctx context.Context, req engine.GenerationRequest) (*engine.GenerationResult, error) {
	body := EditRequest{Prompt: req.Prompt}
	for _, img := range req.Images {
		body.Images = append(body.Images, EditPayload{MediaType: img.MediaType, Data: img.Data})
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	token, err := c.signer.Issue(tokenSubject)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+editPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+token)

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation request: %w", err)
	}
	defer resp.Body.Close()

	var out EditResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&out); err != nil {
		return nil, fmt.Errorf("generation service returned %s: %w", resp.Status, err)
	}
	slog.Debug("generation finished", "status", resp.StatusCode, "images", len(req.Images), "duration", time.Since(start))

	if out.Error != "" {
		return nil, errors.New(out.Error)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generation service returned %s", resp.Status)
	}
	if out.Image == nil || len(out.Image.Data) == 0 {
		return nil, engine.ErrNoImageReturned
	}
	return &engine.GenerationResult{Data: out.Image.Data, MediaType: out.Image.MediaType}, nil
}
