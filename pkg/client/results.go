package client

import (
	"context"
	"net/http"
)

// ResultsService reads stored test results.
type ResultsService struct {
	client *Client
}

func (s *ResultsService) List(ctx context.Context) ([]Result, error) {
	return getData[[]Result](ctx, s.client, http.MethodGet, s.client.resourcePath("results"), nil)
}

// ForAPI returns the results recorded for one API.
func (s *ResultsService) ForAPI(ctx context.Context, apiID int) ([]APIResult, error) {
	if err := validID("API", apiID); err != nil {
		return nil, err
	}
	return getData[[]APIResult](ctx, s.client, http.MethodGet, s.client.rootPath("view-results", apiID), nil)
}
