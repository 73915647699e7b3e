package server

import (
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/discograf/discograf/catalog"
	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/notify"
)

const (
	defaultPageSize = 20
	maxCoverSize    = 10 << 20 // 10 MiB
)

func (s *Server) listAlbums(c *gin.Context) {
	var albums []*Album
	err := s.store.db.Preload("Artists").Preload("Covers").
		Order("title").
		Find(&albums).Error
	if err != nil {
		fail(c, errors.Wrap(err, 500, "list albums"))
		return
	}
	c.JSON(200, s.albumDTOs(albums))
}

func (s *Server) getAlbum(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	album, err := s.loadAlbum(id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(200, s.albumDTO(album))
}

func (s *Server) searchAlbums(c *gin.Context) {
	var albums []*Album
	err := s.store.db.Preload("Artists").Preload("Covers").
		Where("title LIKE ?", "%"+c.Query("title")+"%").
		Order("title").
		Find(&albums).Error
	if err != nil {
		fail(c, errors.Wrap(err, 500, "search albums"))
		return
	}
	c.JSON(200, s.albumDTOs(albums))
}

func (s *Server) albumsByYear(c *gin.Context) {
	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		fail(c, errors.BadRequest("invalid year"))
		return
	}

	var albums []*Album
	err = s.store.db.Preload("Artists").Preload("Covers").
		Where("release_year = ?", year).
		Order("title").
		Find(&albums).Error
	if err != nil {
		fail(c, errors.Wrap(err, 500, "list albums"))
		return
	}
	c.JSON(200, s.albumDTOs(albums))
}

// pagedAlbumsByKind serves the band/solo paginated listings
func (s *Server) pagedAlbumsByKind(isBand bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
		size, _ := strconv.Atoi(c.DefaultQuery("size", strconv.Itoa(defaultPageSize)))
		if page < 0 {
			page = 0
		}
		if size <= 0 {
			size = defaultPageSize
		}

		kindQuery := func() *gorm.DB {
			return s.store.db.Model(&Album{}).
				Joins("JOIN album_artists ON album_artists.album_id = albums.id").
				Joins("JOIN artists ON artists.id = album_artists.artist_id").
				Where("artists.is_band = ?", isBand).
				Distinct("albums.id")
		}

		var total int64
		if err := kindQuery().Count(&total).Error; err != nil {
			fail(c, errors.Wrap(err, 500, "count albums"))
			return
		}

		var ids []int64
		err := kindQuery().Order("albums.id").
			Offset(page * size).
			Limit(size).
			Pluck("albums.id", &ids).Error
		if err != nil {
			fail(c, errors.Wrap(err, 500, "page albums"))
			return
		}

		var albums []*Album
		if len(ids) > 0 {
			err = s.store.db.Preload("Artists").Preload("Covers").
				Where("id IN ?", ids).
				Order("id").
				Find(&albums).Error
			if err != nil {
				fail(c, errors.Wrap(err, 500, "page albums"))
				return
			}
		}

		totalPages := int((total + int64(size) - 1) / int64(size))
		c.JSON(200, catalog.Page[catalog.Album]{
			Content:       s.albumDTOs(albums),
			Page:          page,
			Size:          size,
			TotalElements: total,
			TotalPages:    totalPages,
			First:         page == 0,
			Last:          page >= totalPages-1,
		})
	}
}

func (s *Server) createAlbum(c *gin.Context) {
	var req catalog.AlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.BadRequest("invalid album payload"))
		return
	}
	if err := checkPayload(req); err != nil {
		fail(c, err)
		return
	}

	artists, err := s.loadArtists(req.ArtistIDs)
	if err != nil {
		fail(c, err)
		return
	}

	album := Album{Title: req.Title, ReleaseYear: req.ReleaseYear, Artists: artists}
	if err := s.store.db.Create(&album).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "create album"))
		return
	}

	s.publish("albums", notify.EventAlbumCreated,
		fmt.Sprintf("Album %q created", album.Title),
		map[string]any{"id": album.ID, "title": album.Title})

	c.JSON(201, s.albumDTO(&album))
}

func (s *Server) updateAlbum(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var req catalog.AlbumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.BadRequest("invalid album payload"))
		return
	}
	if err := checkPayload(req); err != nil {
		fail(c, err)
		return
	}

	album, err := s.loadAlbum(id)
	if err != nil {
		fail(c, err)
		return
	}

	artists, err := s.loadArtists(req.ArtistIDs)
	if err != nil {
		fail(c, err)
		return
	}

	album.Title = req.Title
	album.ReleaseYear = req.ReleaseYear
	if err := s.store.db.Save(album).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "update album"))
		return
	}
	if err := s.store.db.Model(album).Association("Artists").Replace(artists); err != nil {
		fail(c, errors.Wrap(err, 500, "update album artists"))
		return
	}
	album.Artists = artists

	s.publish("albums", notify.EventAlbumUpdated,
		fmt.Sprintf("Album %q updated", album.Title),
		map[string]any{"id": album.ID, "title": album.Title})

	c.JSON(200, s.albumDTO(album))
}

func (s *Server) deleteAlbum(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	album, err := s.loadAlbum(id)
	if err != nil {
		fail(c, err)
		return
	}

	for i := range album.Covers {
		if err := s.covers.Remove(c.Request.Context(), album.Covers[i].ObjectKey); err != nil {
			s.logger.Warn().Err(err).Int64("album", id).Msg("cover cleanup failed")
		}
	}

	if err := s.store.db.Select("Covers").Delete(album).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "delete album"))
		return
	}

	s.publish("albums", notify.EventAlbumDeleted,
		fmt.Sprintf("Album %q deleted", album.Title),
		map[string]any{"id": album.ID, "title": album.Title})

	c.Status(204)
}

func (s *Server) uploadCover(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	album, err := s.loadAlbum(id)
	if err != nil {
		fail(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		fail(c, errors.BadRequest("cover file required"))
		return
	}
	if header.Size > maxCoverSize {
		fail(c, errors.BadRequest("cover file too large"))
		return
	}

	file, err := header.Open()
	if err != nil {
		fail(c, errors.Wrap(err, 500, "read cover file"))
		return
	}
	defer file.Close()

	contentType := contentTypeFor(header.Filename)
	key := uuid.New().String() + filepath.Ext(header.Filename)

	if err := s.covers.Put(c.Request.Context(), key, file, header.Size, contentType); err != nil {
		fail(c, err)
		return
	}

	cover := AlbumCover{
		AlbumID:     album.ID,
		FileName:    header.Filename,
		ObjectKey:   key,
		FileSize:    header.Size,
		ContentType: contentType,
	}
	if err := s.store.db.Create(&cover).Error; err != nil {
		s.covers.Remove(c.Request.Context(), key)
		fail(c, errors.Wrap(err, 500, "persist cover"))
		return
	}

	s.publish("covers", notify.EventCoverUploaded,
		fmt.Sprintf("Cover uploaded for %q", album.Title),
		map[string]any{"albumId": album.ID, "coverId": cover.ID})

	c.JSON(201, s.coverDTO(&cover))
}

func (s *Server) listCovers(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var covers []AlbumCover
	if err := s.store.db.Where("album_id = ?", id).Find(&covers).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "list covers"))
		return
	}

	out := make([]catalog.AlbumCover, 0, len(covers))
	for i := range covers {
		out = append(out, s.coverDTO(&covers[i]))
	}
	c.JSON(200, out)
}

func (s *Server) deleteCover(c *gin.Context) {
	albumID, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}
	coverID, err := pathID(c, "coverId")
	if err != nil {
		fail(c, err)
		return
	}

	var cover AlbumCover
	err = s.store.db.Where("album_id = ?", albumID).First(&cover, coverID).Error
	if err != nil {
		fail(c, errors.NotFound("cover %d not found", coverID))
		return
	}

	if err := s.covers.Remove(c.Request.Context(), cover.ObjectKey); err != nil {
		s.logger.Warn().Err(err).Int64("cover", coverID).Msg("cover cleanup failed")
	}

	if err := s.store.db.Delete(&cover).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "delete cover"))
		return
	}

	c.Status(204)
}

func (s *Server) loadAlbum(id int64) (*Album, error) {
	var album Album
	err := s.store.db.Preload("Artists").Preload("Covers").First(&album, id).Error
	if err != nil {
		return nil, errors.NotFound("album %d not found", id)
	}
	return &album, nil
}

func (s *Server) loadArtists(ids []int64) ([]*Artist, error) {
	var artists []*Artist
	if err := s.store.db.Where("id IN ?", ids).Find(&artists).Error; err != nil {
		return nil, errors.Wrap(err, 500, "load artists")
	}
	if len(artists) != len(ids) {
		return nil, errors.UnprocessableEntity("one or more artists do not exist")
	}
	return artists, nil
}
