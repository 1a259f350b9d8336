package client

import (
	"context"
	"net/http"
)

// TestsService lists the available security tests and triggers runs.
type TestsService struct {
	client *Client
}

func (s *TestsService) List(ctx context.Context) ([]Test, error) {
	return getData[[]Test](ctx, s.client, http.MethodGet, s.client.resourcePath("tests"), nil)
}

// RunAll runs every test against the API and returns one result per test.
func (s *TestsService) RunAll(ctx context.Context, apiID int) ([]RunResult, error) {
	if err := validID("API", apiID); err != nil {
		return nil, err
	}
	return getData[[]RunResult](ctx, s.client, http.MethodPost, s.client.rootPath("run-tests", apiID), nil)
}

// Run runs a single test against the API.
func (s *TestsService) Run(ctx context.Context, apiID, testID int) (*RunResult, error) {
	if err := validID("API", apiID); err != nil {
		return nil, err
	}
	if err := validID("test", testID); err != nil {
		return nil, err
	}
	result, err := getData[RunResult](ctx, s.client, http.MethodPost, s.client.rootPath("run-test", apiID, testID), nil)
	if err != nil {
		return nil, err
	}
	if result.TestID == 0 {
		result.TestID = testID
	}
	return &result, nil
}
