// Package notify defines the domain-change notification event shape pushed by
// the server and the transient toast presentation derived from it.
package notify

// Known event types published on the notification channel
const (
	EventAlbumCreated   = "ALBUM_CREATED"
	EventAlbumUpdated   = "ALBUM_UPDATED"
	EventAlbumDeleted   = "ALBUM_DELETED"
	EventArtistCreated  = "ARTIST_CREATED"
	EventArtistUpdated  = "ARTIST_UPDATED"
	EventArtistDeleted  = "ARTIST_DELETED"
	EventCoverUploaded  = "COVER_UPLOADED"
	EventRegionalSynced = "REGIONAIS_SYNCED"
)

// Event is a single domain-change notification. It exists only for the
// duration of dispatch, nothing persists it.
type Event struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Timestamp string         `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}
