package catalog

import (
	"context"

	"github.com/discograf/discograf/gateway"
)

const regionalsPath = "/regionais"

// RegionalService performs regional-registry operations against the API
type RegionalService struct {
	gw *gateway.Client
}

// NewRegionalService creates a RegionalService over the gateway
func NewRegionalService(gw *gateway.Client) *RegionalService {
	return &RegionalService{gw: gw}
}

// List returns all regionals
func (s *RegionalService) List(ctx context.Context) ([]Regional, error) {
	var out []Regional
	err := s.gw.Get(regionalsPath, gateway.WithContext(ctx), gateway.WithResponse(&out))
	return out, err
}

// Sync triggers a sync against the upstream regional registry and returns the
// per-category counts
func (s *RegionalService) Sync(ctx context.Context) (*SyncResult, error) {
	var out SyncResult
	if err := s.gw.Post(regionalsPath+"/sync", nil,
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}
	return &out, nil
}
