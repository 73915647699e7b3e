// Package catalog exposes the typed artist, album and regional operations of
// the music catalog API as pure request/response functions over the gateway.
package catalog

// LoginRequest carries the credentials for /auth/login
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse is the token pair issued on login and refresh
type LoginResponse struct {
	TokenType    string `json:"tokenType"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// Artist is a solo artist or band
type Artist struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	IsBand     bool   `json:"isBand"`
	AlbumCount int    `json:"albumCount"`
	CreatedAt  string `json:"createdAt"`
	UpdatedAt  string `json:"updatedAt"`
}

// ArtistRequest is the create/update payload for artists
type ArtistRequest struct {
	Name   string `json:"name" validate:"required,max=255"`
	IsBand bool   `json:"isBand"`
}

// Album is a released album with its artists and covers
type Album struct {
	ID          int64        `json:"id"`
	Title       string       `json:"title"`
	ReleaseYear int          `json:"releaseYear"`
	Artists     []Artist     `json:"artists"`
	Covers      []AlbumCover `json:"covers"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

// AlbumRequest is the create/update payload for albums
type AlbumRequest struct {
	Title       string  `json:"title" validate:"required,max=255"`
	ReleaseYear int     `json:"releaseYear" validate:"required,gte=1900,lte=2100"`
	ArtistIDs   []int64 `json:"artistIds" validate:"required,min=1"`
}

// AlbumCover is an uploaded cover image attached to an album
type AlbumCover struct {
	ID          int64  `json:"id"`
	FileName    string `json:"fileName"`
	ImageURL    string `json:"imageUrl"`
	FileSize    int64  `json:"fileSize"`
	ContentType string `json:"contentType"`
	CreatedAt   string `json:"createdAt"`
}

// Regional is a regional administrative unit synced from an upstream registry
type Regional struct {
	ID        int64  `json:"id"`
	Name      string `json:"nome"`
	Active    bool   `json:"ativo"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// SyncResult summarizes a regional-data sync run
type SyncResult struct {
	Message  string `json:"message"`
	Created  int    `json:"novos"`
	Updated  int    `json:"atualizados"`
	Disabled int    `json:"inativados"`
	Total    int    `json:"total"`
}

// Page is one page of a paginated listing
type Page[T any] struct {
	Content       []T   `json:"content"`
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
	First         bool  `json:"first"`
	Last          bool  `json:"last"`
}

// PageRequest selects a page of a paginated listing
type PageRequest struct {
	Page int
	Size int
}

// Health is the health probe response
type Health struct {
	Status string `json:"status"`
}
