package catalog

import (
	"context"
	"fmt"

	"github.com/discograf/discograf/gateway"
)

const artistsPath = "/artists"

// ArtistService performs artist operations against the API
type ArtistService struct {
	gw *gateway.Client
}

// NewArtistService creates an ArtistService over the gateway
func NewArtistService(gw *gateway.Client) *ArtistService {
	return &ArtistService{gw: gw}
}

// List returns all artists
func (s *ArtistService) List(ctx context.Context) ([]Artist, error) {
	var out []Artist
	err := s.gw.Get(artistsPath, gateway.WithContext(ctx), gateway.WithResponse(&out))
	return out, err
}

// Get returns a single artist by id
func (s *ArtistService) Get(ctx context.Context, id int64) (*Artist, error) {
	var out Artist
	if err := s.gw.Get(fmt.Sprintf("%s/%d", artistsPath, id),
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search returns artists whose name matches the query
func (s *ArtistService) Search(ctx context.Context, name string) ([]Artist, error) {
	var out []Artist
	err := s.gw.Get(artistsPath+"/search",
		gateway.WithContext(ctx),
		gateway.WithQuery("name", name),
		gateway.WithResponse(&out),
	)
	return out, err
}

// Bands returns only band artists
func (s *ArtistService) Bands(ctx context.Context) ([]Artist, error) {
	var out []Artist
	err := s.gw.Get(artistsPath+"/bands", gateway.WithContext(ctx), gateway.WithResponse(&out))
	return out, err
}

// Solo returns only solo artists
func (s *ArtistService) Solo(ctx context.Context) ([]Artist, error) {
	var out []Artist
	err := s.gw.Get(artistsPath+"/solo", gateway.WithContext(ctx), gateway.WithResponse(&out))
	return out, err
}

// Create creates an artist
func (s *ArtistService) Create(ctx context.Context, req ArtistRequest) (*Artist, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var out Artist
	if err := s.gw.Post(artistsPath, req,
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces an artist
func (s *ArtistService) Update(ctx context.Context, id int64, req ArtistRequest) (*Artist, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var out Artist
	if err := s.gw.Put(fmt.Sprintf("%s/%d", artistsPath, id), req,
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an artist
func (s *ArtistService) Delete(ctx context.Context, id int64) error {
	return s.gw.Delete(fmt.Sprintf("%s/%d", artistsPath, id), gateway.WithContext(ctx))
}
