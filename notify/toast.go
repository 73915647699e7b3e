package notify

import "time"

// Severity classifies the visual style of a toast
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityError
)

// String returns the severity name
func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Toast is a transient user-facing notification
type Toast struct {
	Severity Severity
	Icon     string
	Message  string
	Duration time.Duration
	// Persistent toasts stay on screen until dismissed, used for terminal
	// conditions such as a lost server connection.
	Persistent bool
}

// ToastFor maps an event to its presentation. Creations, updates, uploads and
// syncs render as success, deletions as error, unrecognized types fall back to
// a neutral style.
func ToastFor(event Event) Toast {
	switch event.Type {
	case EventAlbumCreated:
		return Toast{Severity: SeveritySuccess, Icon: "🎵", Message: event.Message, Duration: 5 * time.Second}
	case EventAlbumUpdated:
		return Toast{Severity: SeveritySuccess, Icon: "✏️", Message: event.Message, Duration: 4 * time.Second}
	case EventAlbumDeleted:
		return Toast{Severity: SeverityError, Icon: "🗑️", Message: event.Message, Duration: 4 * time.Second}
	case EventArtistCreated:
		return Toast{Severity: SeveritySuccess, Icon: "🎤", Message: event.Message, Duration: 5 * time.Second}
	case EventArtistUpdated:
		return Toast{Severity: SeveritySuccess, Icon: "✏️", Message: event.Message, Duration: 4 * time.Second}
	case EventArtistDeleted:
		return Toast{Severity: SeverityError, Icon: "🗑️", Message: event.Message, Duration: 4 * time.Second}
	case EventCoverUploaded:
		return Toast{Severity: SeveritySuccess, Icon: "🖼️", Message: event.Message, Duration: 4 * time.Second}
	case EventRegionalSynced:
		return Toast{Severity: SeveritySuccess, Icon: "🗺️", Message: event.Message, Duration: 4 * time.Second}
	default:
		return Toast{Severity: SeverityInfo, Icon: "📬", Message: event.Message, Duration: 4 * time.Second}
	}
}
