// Package client talks to the guide API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/guidebook/core/internal/domain/entities"
	"github.com/guidebook/core/internal/ports"
)

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Message)
}

// detailedErrors are recognised by the message the API echoes back
var detailedErrors = []error{
	entities.ErrSectionNotFound,
	entities.ErrItemNotFound,
	entities.ErrNoSections,
	entities.ErrDuplicateSection,
	entities.ErrUnsupportedMedia,
}

// Unwrap maps well-known statuses back onto domain errors. A 404 only
// means a missing guide when the message names no section or item.
func (e *APIError) Unwrap() error {
	for _, sentinel := range detailedErrors {
		if strings.Contains(e.Message, sentinel.Error()) {
			return sentinel
		}
	}
	switch e.StatusCode {
	case http.StatusNotFound:
		return entities.ErrGuideNotFound
	case http.StatusConflict:
		return entities.ErrGuideExists
	case http.StatusRequestEntityTooLarge:
		return entities.ErrFileTooLarge
	}
	return nil
}

// Client is a guide API client
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithToken sends the editor token on every request
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default http.Client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// New creates a client for the API rooted at baseURL (e.g. http://localhost:4001)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListGuides fetches the guide summaries
func (c *Client) ListGuides(ctx context.Context) ([]entities.GuideSummary, error) {
	var out []entities.GuideSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/guides", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetGuide fetches one full guide
func (c *Client) GetGuide(ctx context.Context, id string) (*entities.Guide, error) {
	var out entities.Guide
	if err := c.doJSON(ctx, http.MethodGet, "/api/guides/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateGuide creates a guide
func (c *Client) CreateGuide(ctx context.Context, req ports.CreateGuideRequest) (*entities.Guide, error) {
	var out entities.Guide
	if err := c.doJSON(ctx, http.MethodPost, "/api/guides", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateGuide sends a patch and returns the stored guide
func (c *Client) UpdateGuide(ctx context.Context, id string, patch entities.GuidePatch) (*entities.Guide, error) {
	var out entities.Guide
	if err := c.doJSON(ctx, http.MethodPut, "/api/guides/"+url.PathEscape(id), patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// MoveSection places a section before another one
func (c *Client) MoveSection(ctx context.Context, guideID, sectionID, beforeID string) (*entities.Guide, error) {
	var out entities.Guide
	path := fmt.Sprintf("/api/guides/%s/sections/%s/move", url.PathEscape(guideID), url.PathEscape(sectionID))
	if err := c.doJSON(ctx, http.MethodPost, path, ports.MoveSectionRequest{BeforeID: beforeID}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadToGuide uploads an image into a guide section
func (c *Client) UploadToGuide(ctx context.Context, guideID, sectionID, filename string, r io.Reader) (*ports.GuideUploadResponse, error) {
	fields := map[string]string{}
	if sectionID != "" {
		fields["sectionId"] = sectionID
	}
	var out ports.GuideUploadResponse
	if err := c.doMultipart(ctx, "/api/guides/"+url.PathEscape(guideID)+"/uploads", "file", filename, r, fields, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadImage uploads a standalone image
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (*ports.UploadResponse, error) {
	var out ports.UploadResponse
	if err := c.doMultipart(ctx, "/api/upload", "image", filename, r, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) doMultipart(ctx context.Context, path, field, filename string, r io.Reader, fields map[string]string, out interface{}) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var e ports.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
