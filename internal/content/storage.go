package content

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// UploadInput describes one metadata document plus its image to publish.
type UploadInput struct {
	Name        string
	Description string
	ExternalURL string
	Attributes  []domain.Attribute
	Image       []byte
}

// UploadResult carries the addresses the content was published under.
type UploadResult struct {
	MetadataURI  string
	ThumbnailURI string
}

// Storage is the content-storage collaborator. Uploads must complete
// before any chain write that references their URIs.
type Storage interface {
	Upload(ctx context.Context, input UploadInput) (*UploadResult, error)
}

// Config holds content-storage client settings
type Config struct {
	UploadURL    string
	APIKey       string
	Timeout      time.Duration
	MaxImageSize int64
}

type httpStorage struct {
	cfg    Config
	client *http.Client
}

// NewHTTPStorage creates a Storage backed by an HTTP pinning service
func NewHTTPStorage(cfg Config) Storage {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxImageSize == 0 {
		cfg.MaxImageSize = 5 * 1024 * 1024
	}
	return &httpStorage{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

// uploadRequest is the wire shape of the pinning request
type uploadRequest struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	ExternalURL string             `json:"external_url,omitempty"`
	Image       string             `json:"image"`
	Attributes  []domain.Attribute `json:"attributes"`
}

// uploadResponse is the wire shape of the pinning response
type uploadResponse struct {
	URI          string `json:"uri"`
	ThumbnailURI string `json:"thumbnail_uri"`
}

func (s *httpStorage) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if err := s.validateImage(input.Image); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(uploadRequest{
		Name:        input.Name,
		Description: input.Description,
		ExternalURL: input.ExternalURL,
		Image:       base64.StdEncoding.EncodeToString(input.Image),
		Attributes:  input.Attributes,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode upload request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.UploadURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read upload response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("upload rejected with status %d: %s", resp.StatusCode, string(body))
	}

	var parsed uploadResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse upload response: %w", err)
	}
	if parsed.URI == "" {
		return nil, fmt.Errorf("upload response missing uri")
	}

	return &UploadResult{MetadataURI: parsed.URI, ThumbnailURI: parsed.ThumbnailURI}, nil
}

// validateImage enforces the collaborator's constraints: image mime
// types only, bounded size.
func (s *httpStorage) validateImage(image []byte) error {
	if len(image) == 0 {
		return fmt.Errorf("thumbnail file is required")
	}
	if int64(len(image)) > s.cfg.MaxImageSize {
		return fmt.Errorf("file too large %d", len(image))
	}

	if !strings.HasPrefix(mimetype.Detect(image).String(), "image/") {
		return fmt.Errorf("invalid thumbnail file (only support image files)")
	}

	return nil
}
