// Package server is the development API server backing the discograf client:
// REST endpoints under /api/v1, JWT authentication with refresh rotation, and
// a websocket hub pushing domain-change notifications.
package server

import (
	"time"
)

// User is an admin account
type User struct {
	ID        int64  `gorm:"primaryKey"`
	Username  string `gorm:"uniqueIndex;size:100"`
	Password  string `gorm:"size:100"` // bcrypt hash
	CreatedAt time.Time
}

// RefreshToken is a stored refresh token, kept as a hash. Rotation revokes
// the old row and inserts a new one.
type RefreshToken struct {
	ID        int64  `gorm:"primaryKey"`
	UserID    int64  `gorm:"index"`
	TokenHash string `gorm:"uniqueIndex;size:64"`
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// Artist is a solo artist or band
type Artist struct {
	ID        int64    `gorm:"primaryKey"`
	Name      string   `gorm:"index;size:255"`
	IsBand    bool     `gorm:"index"`
	Albums    []*Album `gorm:"many2many:album_artists"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Album is a released album
type Album struct {
	ID          int64     `gorm:"primaryKey"`
	Title       string    `gorm:"index;size:255"`
	ReleaseYear int       `gorm:"index"`
	Artists     []*Artist `gorm:"many2many:album_artists"`
	Covers      []AlbumCover
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// AlbumCover is an uploaded cover image. The binary lives in cover storage
// under ObjectKey; the row holds the metadata.
type AlbumCover struct {
	ID          int64  `gorm:"primaryKey"`
	AlbumID     int64  `gorm:"index"`
	FileName    string `gorm:"size:255"`
	ObjectKey   string `gorm:"size:255"`
	FileSize    int64
	ContentType string `gorm:"size:100"`
	CreatedAt   time.Time
}

// Regional is a regional administrative unit synced from the upstream
// registry
type Regional struct {
	ID        int64  `gorm:"primaryKey"`
	Name      string `gorm:"uniqueIndex;size:255"`
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
