package blob

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/wayfarelab/wayfare/pkg/httpclient"
)

// Store talks to the remote blob storage service over HTTP. The client is
// wrapped in a circuit breaker so a dead storage backend fails fast instead
// of tying up request handlers.
type Store struct {
	client  *httpclient.CircuitBreakerClient
	baseURL string
}

// NewStore creates a blob store client for the given base URL.
func NewStore(baseURL string, logger *slog.Logger) *Store {
	client := httpclient.New(httpclient.DefaultConfig())
	cb := httpclient.NewCircuitBreakerClient(
		client,
		httpclient.DefaultCircuitBreakerConfig("blob-store"),
		logger,
	)

	return &Store{
		client:  cb,
		baseURL: baseURL,
	}
}

type saveResponse struct {
	URL string `json:"url"`
}

// Save uploads the payload and returns the URL reported by the storage
// service.
func (s *Store) Save(ctx context.Context, key, contentType string, data []byte) (string, error) {
	endpoint := s.baseURL + "/objects/" + url.PathEscape(key)

	resp, err := s.client.Post(ctx, endpoint, contentType, data)
	if err != nil {
		return "", fmt.Errorf("upload blob %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("upload blob %s: unexpected status %d: %s", key, resp.StatusCode, string(body))
	}

	var sr saveResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", fmt.Errorf("decode blob response: %w", err)
	}
	if sr.URL == "" {
		return "", fmt.Errorf("blob response for %s missing url", key)
	}

	return sr.URL, nil
}

// Delete removes the object. 404 from the backend is treated as success.
func (s *Store) Delete(ctx context.Context, key string) error {
	endpoint := s.baseURL + "/objects/" + url.PathEscape(key)

	resp, err := s.client.Delete(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("delete blob %s: %w", key, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("delete blob %s: unexpected status %d", key, resp.StatusCode)
	}

	return nil
}
