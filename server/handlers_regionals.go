package server

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/discograf/discograf/catalog"
	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/notify"
)

// upstreamRegionals stands in for the external regional registry in local
// development. Names present here are created or reactivated by a sync; names
// absent are deactivated.
var upstreamRegionals = []string{
	"Norte",
	"Nordeste",
	"Centro-Oeste",
	"Sudeste",
	"Sul",
}

func (s *Server) listRegionals(c *gin.Context) {
	var regionals []Regional
	if err := s.store.db.Order("name").Find(&regionals).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "list regionals"))
		return
	}

	out := make([]catalog.Regional, 0, len(regionals))
	for i := range regionals {
		out = append(out, regionalDTO(&regionals[i]))
	}
	c.JSON(200, out)
}

func (s *Server) syncRegionals(c *gin.Context) {
	var existing []Regional
	if err := s.store.db.Find(&existing).Error; err != nil {
		fail(c, errors.Wrap(err, 500, "load regionals"))
		return
	}

	byName := make(map[string]*Regional, len(existing))
	for i := range existing {
		byName[existing[i].Name] = &existing[i]
	}

	upstream := make(map[string]struct{}, len(upstreamRegionals))
	var created, updated, disabled int

	for _, name := range upstreamRegionals {
		upstream[name] = struct{}{}

		current, ok := byName[name]
		if !ok {
			row := Regional{Name: name, Active: true}
			if err := s.store.db.Create(&row).Error; err != nil {
				fail(c, errors.Wrap(err, 500, "create regional"))
				return
			}
			created++
			continue
		}

		if !current.Active {
			current.Active = true
			if err := s.store.db.Save(current).Error; err != nil {
				fail(c, errors.Wrap(err, 500, "update regional"))
				return
			}
			updated++
		}
	}

	for i := range existing {
		if _, ok := upstream[existing[i].Name]; ok {
			continue
		}
		if existing[i].Active {
			existing[i].Active = false
			if err := s.store.db.Save(&existing[i]).Error; err != nil {
				fail(c, errors.Wrap(err, 500, "deactivate regional"))
				return
			}
			disabled++
		}
	}

	result := catalog.SyncResult{
		Message:  "Sincronização concluída",
		Created:  created,
		Updated:  updated,
		Disabled: disabled,
		Total:    len(upstreamRegionals),
	}

	s.publish("regionais", notify.EventRegionalSynced,
		fmt.Sprintf("Regionals synced: %d new, %d updated, %d disabled", created, updated, disabled),
		map[string]any{"novos": created, "atualizados": updated, "inativados": disabled})

	s.logger.Info().
		Int("created", created).
		Int("updated", updated).
		Int("disabled", disabled).
		Msg("regional sync finished")

	c.JSON(200, result)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(200, catalog.Health{Status: "UP"})
}

// publish broadcasts a domain-change event to websocket subscribers of topic
func (s *Server) publish(topic, eventType, message string, data map[string]any) {
	s.hub.Broadcast(topic, notify.Event{
		Type:      eventType,
		Message:   message,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      data,
	})
}
