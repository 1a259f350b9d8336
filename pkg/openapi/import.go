package openapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/pyneda/stapi/lib"
	"github.com/pyneda/stapi/pkg/client"
)

const maxDocumentSize = 20 * 1024 * 1024

// ErrNoBaseURL is returned when the document has no absolute server and no
// base URL was given.
var ErrNoBaseURL = errors.New("document has no absolute server url, pass a base url")

type ImportOptions struct {
	// Source is shown in generated descriptions.
	Source       string
	BaseURL      string
	PerOperation bool
}

// APIs derives the entries to register: one for the whole document, or one per
// operation when PerOperation is set.
func (d *Document) APIs(opts ImportOptions) ([]client.API, error) {
	base, err := resolveBase(d.ServerURL(), opts.BaseURL)
	if err != nil {
		return nil, err
	}

	if !opts.PerOperation {
		name := d.Title()
		if name == "" {
			name = lib.GetHostFromURL(base)
		}
		description := d.Description()
		if description == "" {
			description = "Imported from " + sourceLabel(opts.Source)
		}
		return []client.API{{Name: name, URL: base, Description: description}}, nil
	}

	ops := d.Operations()
	apis := make([]client.API, 0, len(ops))
	for _, op := range ops {
		name := op.OperationID
		if name == "" {
			name = op.Method + " " + op.Path
		}
		description := op.Summary
		if description == "" {
			description = op.Description
		}
		if description == "" {
			description = "Imported from " + sourceLabel(opts.Source)
		}
		apis = append(apis, client.API{
			Name:        name,
			URL:         lib.JoinURL(base, op.Path),
			Description: description,
		})
	}
	return apis, nil
}

// resolveBase picks the URL APIs are registered under. Absolute servers are used
// as they are, relative ones are joined to baseURL.
func resolveBase(server, baseURL string) (string, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL != "" {
		if !lib.IsHTTPURL(baseURL) {
			return "", fmt.Errorf("base url %q must be an absolute http(s) url", baseURL)
		}
	}
	switch {
	case lib.IsHTTPURL(server):
		return strings.TrimRight(server, "/"), nil
	case baseURL == "":
		return "", ErrNoBaseURL
	case server == "" || server == "/":
		return strings.TrimRight(baseURL, "/"), nil
	}
	return lib.JoinURL(baseURL, server), nil
}

func sourceLabel(source string) string {
	if source == "" {
		return "OpenAPI document"
	}
	if lib.IsHTTPURL(source) {
		return source
	}
	return filepath.Base(source)
}

// Load reads a document from a file path or an http(s) URL.
func Load(ctx context.Context, source string, httpClient *http.Client) ([]byte, error) {
	if !lib.IsHTTPURL(source) {
		content, err := os.ReadFile(source)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", source, err)
		}
		return content, nil
	}
	return Fetch(ctx, source, httpClient)
}

// Fetch downloads a document from url.
func Fetch(ctx context.Context, url string, httpClient *http.Client) ([]byte, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json, application/yaml;q=0.9, */*;q=0.8")
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 response: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
