package client

import (
	"context"
	"net/http"
)

// APIsService manages the APIs registered for testing.
type APIsService struct {
	client *Client
}

func (s *APIsService) List(ctx context.Context) ([]API, error) {
	return getData[[]API](ctx, s.client, http.MethodGet, s.client.resourcePath("apis"), nil)
}

func (s *APIsService) Get(ctx context.Context, id int) (*API, error) {
	if err := validID("API", id); err != nil {
		return nil, err
	}
	return s.send(ctx, http.MethodGet, s.client.resourcePath("apis", id), nil)
}

// Create registers a new API. The id of api is ignored.
func (s *APIsService) Create(ctx context.Context, api API) (*API, error) {
	api.ID = 0
	return s.send(ctx, http.MethodPost, s.client.resourcePath("apis"), api)
}

func (s *APIsService) Update(ctx context.Context, id int, api API) (*API, error) {
	if err := validID("API", id); err != nil {
		return nil, err
	}
	api.ID = id
	return s.send(ctx, http.MethodPut, s.client.resourcePath("apis", id), api)
}

func (s *APIsService) Delete(ctx context.Context, id int) error {
	if err := validID("API", id); err != nil {
		return err
	}
	return s.client.do(ctx, http.MethodDelete, s.client.resourcePath("apis", id), nil, nil)
}

func (s *APIsService) send(ctx context.Context, method, path string, body any) (*API, error) {
	api, err := getObject[API](ctx, s.client, method, path, body)
	if err != nil {
		return nil, err
	}
	if api.ID == 0 {
		return nil, unexpectedError(http.StatusOK, errMissingID)
	}
	return &api, nil
}
