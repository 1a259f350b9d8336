package tui

import (
	"context"

	"github.com/pyneda/stapi/pkg/client"
)

// Backend is what the dashboard needs from the server.
type Backend interface {
	ListAPIs(ctx context.Context) ([]client.API, error)
	CreateAPI(ctx context.Context, api client.API) (*client.API, error)
	UpdateAPI(ctx context.Context, id int, api client.API) (*client.API, error)
	DeleteAPI(ctx context.Context, id int) error
	ListTests(ctx context.Context) ([]client.Test, error)
	RunAll(ctx context.Context, apiID int) ([]client.RunResult, error)
	RunTest(ctx context.Context, apiID, testID int) (*client.RunResult, error)
	ListResults(ctx context.Context) ([]client.Result, error)
	CurrentUser() *client.User
}

// UserSource returns the logged in user, nil when logged out.
type UserSource interface {
	CurrentUser() *client.User
}

type clientBackend struct {
	c     *client.Client
	users UserSource
}

// NewClientBackend adapts a client and the auth state to Backend.
func NewClientBackend(c *client.Client, users UserSource) Backend {
	return &clientBackend{c: c, users: users}
}

func (b *clientBackend) ListAPIs(ctx context.Context) ([]client.API, error) {
	return b.c.APIs.List(ctx)
}

func (b *clientBackend) CreateAPI(ctx context.Context, api client.API) (*client.API, error) {
	return b.c.APIs.Create(ctx, api)
}

func (b *clientBackend) UpdateAPI(ctx context.Context, id int, api client.API) (*client.API, error) {
	return b.c.APIs.Update(ctx, id, api)
}

func (b *clientBackend) DeleteAPI(ctx context.Context, id int) error {
	return b.c.APIs.Delete(ctx, id)
}

func (b *clientBackend) ListTests(ctx context.Context) ([]client.Test, error) {
	return b.c.Tests.List(ctx)
}

func (b *clientBackend) RunAll(ctx context.Context, apiID int) ([]client.RunResult, error) {
	return b.c.Tests.RunAll(ctx, apiID)
}

func (b *clientBackend) RunTest(ctx context.Context, apiID, testID int) (*client.RunResult, error) {
	return b.c.Tests.Run(ctx, apiID, testID)
}

func (b *clientBackend) ListResults(ctx context.Context) ([]client.Result, error) {
	return b.c.Results.List(ctx)
}

func (b *clientBackend) CurrentUser() *client.User {
	return b.users.CurrentUser()
}
