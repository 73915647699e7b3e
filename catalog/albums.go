package catalog

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/discograf/discograf/gateway"
)

const albumsPath = "/albums"

// AlbumService performs album and cover operations against the API
type AlbumService struct {
	gw *gateway.Client
}

// NewAlbumService creates an AlbumService over the gateway
func NewAlbumService(gw *gateway.Client) *AlbumService {
	return &AlbumService{gw: gw}
}

// List returns all albums
func (s *AlbumService) List(ctx context.Context) ([]Album, error) {
	var out []Album
	err := s.gw.Get(albumsPath, gateway.WithContext(ctx), gateway.WithResponse(&out))
	return out, err
}

// Get returns a single album by id
func (s *AlbumService) Get(ctx context.Context, id int64) (*Album, error) {
	var out Album
	if err := s.gw.Get(fmt.Sprintf("%s/%d", albumsPath, id),
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search returns albums whose title matches the query
func (s *AlbumService) Search(ctx context.Context, title string) ([]Album, error) {
	var out []Album
	err := s.gw.Get(albumsPath+"/search",
		gateway.WithContext(ctx),
		gateway.WithQuery("title", title),
		gateway.WithResponse(&out),
	)
	return out, err
}

// ByYear returns albums released in the given year
func (s *AlbumService) ByYear(ctx context.Context, year int) ([]Album, error) {
	var out []Album
	err := s.gw.Get(fmt.Sprintf("%s/year/%d", albumsPath, year),
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	)
	return out, err
}

// BandAlbums returns a page of albums by bands
func (s *AlbumService) BandAlbums(ctx context.Context, page PageRequest) (*Page[Album], error) {
	return s.pagedAlbums(ctx, albumsPath+"/bands", page)
}

// SoloAlbums returns a page of albums by solo artists
func (s *AlbumService) SoloAlbums(ctx context.Context, page PageRequest) (*Page[Album], error) {
	return s.pagedAlbums(ctx, albumsPath+"/solo", page)
}

func (s *AlbumService) pagedAlbums(ctx context.Context, path string, page PageRequest) (*Page[Album], error) {
	var out Page[Album]
	if err := s.gw.Get(path,
		gateway.WithContext(ctx),
		gateway.WithQuery("page", strconv.Itoa(page.Page)),
		gateway.WithQuery("size", strconv.Itoa(page.Size)),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create creates an album
func (s *AlbumService) Create(ctx context.Context, req AlbumRequest) (*Album, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var out Album
	if err := s.gw.Post(albumsPath, req,
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces an album
func (s *AlbumService) Update(ctx context.Context, id int64, req AlbumRequest) (*Album, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	var out Album
	if err := s.gw.Put(fmt.Sprintf("%s/%d", albumsPath, id), req,
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an album
func (s *AlbumService) Delete(ctx context.Context, id int64) error {
	return s.gw.Delete(fmt.Sprintf("%s/%d", albumsPath, id), gateway.WithContext(ctx))
}

// UploadCover uploads a cover image for an album as multipart form data
func (s *AlbumService) UploadCover(ctx context.Context, albumID int64, fileName string, r io.Reader) (*AlbumCover, error) {
	form := &gateway.FileForm{
		Field:    "file",
		FileName: fileName,
		Reader:   r,
	}

	var out AlbumCover
	if err := s.gw.Post(fmt.Sprintf("%s/%d/covers", albumsPath, albumID), form,
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	); err != nil {
		return nil, err
	}
	return &out, nil
}

// Covers lists the cover images of an album
func (s *AlbumService) Covers(ctx context.Context, albumID int64) ([]AlbumCover, error) {
	var out []AlbumCover
	err := s.gw.Get(fmt.Sprintf("%s/%d/covers", albumsPath, albumID),
		gateway.WithContext(ctx),
		gateway.WithResponse(&out),
	)
	return out, err
}

// DeleteCover removes a cover image from an album
func (s *AlbumService) DeleteCover(ctx context.Context, albumID, coverID int64) error {
	return s.gw.Delete(fmt.Sprintf("%s/%d/covers/%d", albumsPath, albumID, coverID),
		gateway.WithContext(ctx))
}
