package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aretw0/frame/pkg/domain"
)

// Source implements ports.ManifestSource against a catalog served by NewHandler.
type Source struct {
	BaseURL string
	Client  *http.Client
}

// NewSource creates a client for the catalog at baseURL.
func NewSource(baseURL string) *Source {
	return &Source{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Manifest fetches GET /blueprints/{name}.
func (s *Source) Manifest(ctx context.Context, name string) (*domain.Manifest, error) {
	var m domain.Manifest
	path := "/blueprints/" + url.PathEscape(domain.ParseRef(name).Name)
	if err := s.get(ctx, path, &m); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", name, err)
	}
	return &m, nil
}

// List fetches GET /blueprints.
func (s *Source) List(ctx context.Context) ([]string, error) {
	var names []string
	if err := s.get(ctx, "/blueprints", &names); err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	return names, nil
}

func (s *Source) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return domain.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
