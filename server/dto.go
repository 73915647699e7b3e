package server

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/discograf/discograf/catalog"
	"github.com/discograf/discograf/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// checkPayload validates a decoded request body against its validate tags and
// reports field-level failures as 422 metadata
func checkPayload(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return errors.UnprocessableEntity("validation failed")
	}

	metadata := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		metadata[fe.Field()] = fe.Tag()
	}

	return errors.UnprocessableEntity("validation failed").WithMetadata(metadata)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func (s *Server) artistDTO(a *Artist) catalog.Artist {
	return catalog.Artist{
		ID:         a.ID,
		Name:       a.Name,
		IsBand:     a.IsBand,
		AlbumCount: len(a.Albums),
		CreatedAt:  formatTime(a.CreatedAt),
		UpdatedAt:  formatTime(a.UpdatedAt),
	}
}

func (s *Server) artistDTOs(artists []*Artist) []catalog.Artist {
	out := make([]catalog.Artist, 0, len(artists))
	for _, a := range artists {
		out = append(out, s.artistDTO(a))
	}
	return out
}

func (s *Server) coverDTO(c *AlbumCover) catalog.AlbumCover {
	return catalog.AlbumCover{
		ID:          c.ID,
		FileName:    c.FileName,
		ImageURL:    s.covers.URL(c.ObjectKey),
		FileSize:    c.FileSize,
		ContentType: c.ContentType,
		CreatedAt:   formatTime(c.CreatedAt),
	}
}

func (s *Server) albumDTO(a *Album) catalog.Album {
	covers := make([]catalog.AlbumCover, 0, len(a.Covers))
	for i := range a.Covers {
		covers = append(covers, s.coverDTO(&a.Covers[i]))
	}

	return catalog.Album{
		ID:          a.ID,
		Title:       a.Title,
		ReleaseYear: a.ReleaseYear,
		Artists:     s.artistDTOs(a.Artists),
		Covers:      covers,
		CreatedAt:   formatTime(a.CreatedAt),
		UpdatedAt:   formatTime(a.UpdatedAt),
	}
}

func (s *Server) albumDTOs(albums []*Album) []catalog.Album {
	out := make([]catalog.Album, 0, len(albums))
	for _, a := range albums {
		out = append(out, s.albumDTO(a))
	}
	return out
}

func regionalDTO(r *Regional) catalog.Regional {
	return catalog.Regional{
		ID:        r.ID,
		Name:      r.Name,
		Active:    r.Active,
		CreatedAt: formatTime(r.CreatedAt),
		UpdatedAt: formatTime(r.UpdatedAt),
	}
}
