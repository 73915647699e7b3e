package catalog

import (
	"context"

	"github.com/discograf/discograf/gateway"
)

const authPath = "/auth"

// AuthService performs authentication operations against the API
type AuthService struct {
	gw *gateway.Client
}

// NewAuthService creates an AuthService over the gateway
func NewAuthService(gw *gateway.Client) *AuthService {
	return &AuthService{gw: gw}
}

// Login exchanges credentials for a token pair. Establishing the session from
// the returned pair is the caller's decision.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var out LoginResponse
	if err := s.gw.Post(authPath+"/login", req,
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}

	return &out, nil
}

// Refresh exchanges a refresh token for a new token pair
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResponse, error) {
	var out LoginResponse
	if err := s.gw.Post(authPath+"/refresh", map[string]string{"refreshToken": refreshToken},
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}

	return &out, nil
}

// Health probes the API health endpoint
func (s *AuthService) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := s.gw.Get("/actuator/health",
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}

	return &out, nil
}
