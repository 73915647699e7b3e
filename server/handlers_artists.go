package server

import (
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/discograf/discograf/catalog"
	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/notify"
)

func pathID(c *gin.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		return 0, errors.BadRequest("invalid %s", name)
	}
	return id, nil
}

func (s *Server) listArtists(c *gin.Context) {
	var artists []*Artist
	if err := s.store.db.Preload("Albums").Order("name").Find(&artists).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "list artists"))
		return
	}
	c.JSON(200, s.artistDTOs(artists))
}

func (s *Server) getArtist(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var artist Artist
	if err := s.store.db.Preload("Albums").First(&artist, id).Error; err != nil {
		fail(c, errors.NotFound("artist %d not found", id))
		return
	}
	c.JSON(200, s.artistDTO(&artist))
}

func (s *Server) searchArtists(c *gin.Context) {
	var artists []*Artist
	err := s.store.db.Preload("Albums").
		Where("name LIKE ?", "%"+c.Query("name")+"%").
		Order("name").
		Find(&artists).Error
	if err != nil {
		fail(c, errors.Wrap(err, 500, "search artists"))
		return
	}
	c.JSON(200, s.artistDTOs(artists))
}

func (s *Server) listArtistsByKind(isBand bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var artists []*Artist
		err := s.store.db.Preload("Albums").
			Where("is_band = ?", isBand).
			Order("name").
			Find(&artists).Error
		if err != nil {
			fail(c, errors.Wrap(err, 500, "list artists"))
			return
		}
		c.JSON(200, s.artistDTOs(artists))
	}
}

func (s *Server) createArtist(c *gin.Context) {
	var req catalog.ArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.BadRequest("invalid artist payload"))
		return
	}
	if err := checkPayload(req); err != nil {
		fail(c, err)
		return
	}

	artist := Artist{Name: req.Name, IsBand: req.IsBand}
	if err := s.store.db.Create(&artist).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "create artist"))
		return
	}

	s.publish("artists", notify.EventArtistCreated,
		fmt.Sprintf("Artist %q created", artist.Name),
		map[string]any{"id": artist.ID, "name": artist.Name})

	c.JSON(201, s.artistDTO(&artist))
}

func (s *Server) updateArtist(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var req catalog.ArtistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, errors.BadRequest("invalid artist payload"))
		return
	}
	if err := checkPayload(req); err != nil {
		fail(c, err)
		return
	}

	var artist Artist
	if err := s.store.db.Preload("Albums").First(&artist, id).Error; err != nil {
		fail(c, errors.NotFound("artist %d not found", id))
		return
	}

	artist.Name = req.Name
	artist.IsBand = req.IsBand
	if err := s.store.db.Save(&artist).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "update artist"))
		return
	}

	s.publish("artists", notify.EventArtistUpdated,
		fmt.Sprintf("Artist %q updated", artist.Name),
		map[string]any{"id": artist.ID, "name": artist.Name})

	c.JSON(200, s.artistDTO(&artist))
}

func (s *Server) deleteArtist(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		fail(c, err)
		return
	}

	var artist Artist
	if err := s.store.db.First(&artist, id).Error; err != nil {
		fail(c, errors.NotFound("artist %d not found", id))
		return
	}

	if err := s.store.db.Select("Albums").Delete(&artist).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "delete artist"))
		return
	}

	s.publish("artists", notify.EventArtistDeleted,
		fmt.Sprintf("Artist %q deleted", artist.Name),
		map[string]any{"id": artist.ID, "name": artist.Name})

	c.Status(204)
}
