package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/cnvrt/gemini-edit-image/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = errors.New("genai: api key is required")

const (
	defaultBaseURL   = "https://generativelanguage.googleapis.com"
	defaultModel     = "gemini-2.0-flash-exp-image-generation"
	defaultTextModel = "gemini-pro"
)

// Options controls how the Gemini client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	TextModel  string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client performs HTTP calls against the Gemini file upload and content
// generation endpoints. It holds no per-request state; one instance is shared
// by all handlers.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	textModel  string
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a Gemini client. It fails with ErrMissingAPIKey when
// no credential is supplied so the caller decides once, at startup, whether
// the AI endpoints are available.
func NewClient(opts Options) (*Client, error) {
	apiKey := strings.TrimSpace(opts.APIKey)
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	textModel := opts.TextModel
	if textModel == "" {
		textModel = defaultTextModel
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		model:      model,
		textModel:  textModel,
		httpClient: client,
		logger:     logger,
	}, nil
}

// Model returns the configured image editing model identifier.
func (c *Client) Model() string {
	return c.model
}

// UploadFile pushes the bytes at path to the Gemini file service and returns
// the reference to use in a generation call.
func (c *Client) UploadFile(ctx context.Context, path, mimeType, displayName string) (FileRef, error) {
	if strings.TrimSpace(mimeType) == "" {
		mimeType = "image/png"
	}
	if displayName == "" {
		displayName = filepath.Base(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return FileRef{}, fmt.Errorf("genai: open file: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	var meta uploadFileMetadata
	meta.File.DisplayName = displayName
	metaPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {"application/json; charset=UTF-8"},
	})
	if err != nil {
		return FileRef{}, fmt.Errorf("genai: build upload metadata: %w", err)
	}
	if err := json.NewEncoder(metaPart).Encode(meta); err != nil {
		return FileRef{}, fmt.Errorf("genai: encode upload metadata: %w", err)
	}

	mediaPart, err := writer.CreatePart(textproto.MIMEHeader{
		"Content-Type": {mimeType},
	})
	if err != nil {
		return FileRef{}, fmt.Errorf("genai: build upload body: %w", err)
	}
	if _, err := io.Copy(mediaPart, f); err != nil {
		return FileRef{}, fmt.Errorf("genai: read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return FileRef{}, fmt.Errorf("genai: finalize upload body: %w", err)
	}

	endpoint := c.baseURL + "/upload/v1beta/files?uploadType=multipart"
	contentType := "multipart/related; boundary=" + writer.Boundary()

	var resp uploadFileResponse
	if err := c.invoke(ctx, endpoint, contentType, &body, &resp); err != nil {
		return FileRef{}, err
	}
	if resp.File.URI == "" {
		return FileRef{}, fmt.Errorf("genai: upload returned no file uri")
	}

	ref := FileRef{URI: resp.File.URI, MIMEType: resp.File.MIMEType}
	if ref.MIMEType == "" {
		ref.MIMEType = mimeType
	}

	c.logger.Debug().
		Str("display_name", displayName).
		Str("uri", ref.URI).
		Str("mime", ref.MIMEType).
		Msg("genai: file uploaded")

	return ref, nil
}

// EditImage sends the prompt and uploaded image references to the image model
// and returns the raw response for extraction.
func (c *Client) EditImage(ctx context.Context, prompt string, refs []FileRef) (*GenerateContentResponse, error) {
	req, err := NewEditRequest(prompt, refs)
	if err != nil {
		return nil, err
	}
	return c.generateContent(ctx, c.model, req)
}

func (c *Client) generateContent(ctx context.Context, model string, req GenerateContentRequest) (*GenerateContentResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("genai: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(model))

	var resp GenerateContentResponse
	if err := c.invoke(ctx, endpoint, "application/json", bytes.NewReader(body), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) invoke(ctx context.Context, endpoint, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return fmt.Errorf("genai: create request: %w", err)
	}
	q := req.URL.Query()
	q.Set("key", c.apiKey)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("genai: invoke gemini: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr apiErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("genai: status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("genai: status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("genai: status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("genai: decode response: %w", err)
	}
	return nil
}
