package content

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gesoten/nft-game-gateway/internal/domain"
)

// minimal valid PNG header, enough for content-type sniffing
var pngBytes = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}

func TestUploadSuccess(t *testing.T) {
	var received uploadRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(uploadResponse{
			URI:          "ipfs://uploaded",
			ThumbnailURI: "https://cdn/thumb.png",
		})
	}))
	defer server.Close()

	storage := NewHTTPStorage(Config{UploadURL: server.URL, APIKey: "test-key"})

	result, err := storage.Upload(context.Background(), UploadInput{
		Name:        "art",
		Description: "a test piece",
		Attributes:  []domain.Attribute{{TraitType: "color", Value: "red"}},
		Image:       pngBytes,
	})
	require.NoError(t, err)
	assert.Equal(t, "ipfs://uploaded", result.MetadataURI)
	assert.Equal(t, "https://cdn/thumb.png", result.ThumbnailURI)

	assert.Equal(t, "art", received.Name)
	assert.NotEmpty(t, received.Image)
	assert.Len(t, received.Attributes, 1)
}

func TestUploadRejectsNonImage(t *testing.T) {
	storage := NewHTTPStorage(Config{UploadURL: "http://unused"})

	_, err := storage.Upload(context.Background(), UploadInput{
		Name:  "art",
		Image: []byte("just some text"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only support image files")
}

func TestUploadRejectsEmptyImage(t *testing.T) {
	storage := NewHTTPStorage(Config{UploadURL: "http://unused"})

	_, err := storage.Upload(context.Background(), UploadInput{Name: "art"})
	assert.Error(t, err)
}

func TestUploadRejectsOversizedImage(t *testing.T) {
	storage := NewHTTPStorage(Config{UploadURL: "http://unused", MaxImageSize: 4})

	_, err := storage.Upload(context.Background(), UploadInput{
		Name:  "art",
		Image: pngBytes,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file too large")
}

func TestUploadSurfacesServerRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusForbidden)
	}))
	defer server.Close()

	storage := NewHTTPStorage(Config{UploadURL: server.URL})

	_, err := storage.Upload(context.Background(), UploadInput{Name: "art", Image: pngBytes})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestUploadRequiresURIInResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	storage := NewHTTPStorage(Config{UploadURL: server.URL})

	_, err := storage.Upload(context.Background(), UploadInput{Name: "art", Image: pngBytes})
	assert.Error(t, err)
}
