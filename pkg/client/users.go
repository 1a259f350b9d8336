package client

import (
	"context"
	"net/http"
)

// UsersService wraps the authentication endpoints.
type UsersService struct {
	client *Client
}

// Login exchanges credentials for a token.
func (s *UsersService) Login(ctx context.Context, creds Credentials) (string, error) {
	var resp struct {
		Key   string `json:"key"`
		Token string `json:"token"`
	}
	if err := s.client.do(ctx, http.MethodPost, s.client.resourcePath("auth", "login"), creds, &resp); err != nil {
		return "", err
	}
	switch {
	case resp.Key != "":
		return resp.Key, nil
	case resp.Token != "":
		return resp.Token, nil
	}
	return "", ErrMissingKey
}

// CurrentUser returns the user owning the token. The endpoint answers with a bare
// user object; an enveloped one is accepted too.
func (s *UsersService) CurrentUser(ctx context.Context) (*User, error) {
	var resp struct {
		User
		Data *User `json:"data"`
	}
	if err := s.client.do(ctx, http.MethodGet, s.client.resourcePath("auth", "user"), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data != nil {
		return resp.Data, nil
	}
	if resp.User.PK == 0 && resp.User.Username == "" {
		return nil, unexpectedError(http.StatusOK, errEmptyUser)
	}
	user := resp.User
	return &user, nil
}

func (s *UsersService) Register(ctx context.Context, reg Registration) error {
	return s.client.do(ctx, http.MethodPost, s.client.resourcePath("auth", "registration"), reg, nil)
}

func (s *UsersService) Logout(ctx context.Context) error {
	return s.client.do(ctx, http.MethodPost, s.client.resourcePath("auth", "logout"), nil, nil)
}
