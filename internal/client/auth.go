package client

import (
	"context"
	"net/http"

	"qms/shift-service/internal/view"
)

// AuthService handles the attendant session of one workstation. It is
// built by the application root and passed to whoever needs it.
type AuthService struct {
	api *Client
}

func NewAuthService(httpClient *http.Client, baseURL, moduleIP string) *AuthService {
	return &AuthService{api: New(httpClient, baseURL, moduleIP)}
}

func (s *AuthService) ModuleIP() string { return s.api.moduleIP }

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenReply struct {
	Token string `json:"token"`
}

// Login binds the attendant to this workstation's module and returns a
// bearer token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	var out tokenReply
	err := s.api.do(ctx, http.MethodPost, "/attendants/login", credentials{Email: email, Password: password}, &out)
	return out.Token, err
}

func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.api.WithToken(token).do(ctx, http.MethodPost, "/attendants/logout", nil, nil)
}

func (s *AuthService) Profile(ctx context.Context, token string) (view.Attendant, error) {
	return getData[view.Attendant](ctx, s.api.WithToken(token), "/attendants/profile")
}

// RefreshToken exchanges token for a new one; the old token stops working.
func (s *AuthService) RefreshToken(ctx context.Context, token string) (string, error) {
	var out tokenReply
	err := s.api.WithToken(token).do(ctx, http.MethodPost, "/attendants/refresh", nil, &out)
	return out.Token, err
}
