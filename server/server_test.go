package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discograf/discograf/catalog"
	"github.com/discograf/discograf/config"
	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/gateway"
	"github.com/discograf/discograf/log"
	"github.com/discograf/discograf/notify"
	"github.com/discograf/discograf/session"
)

type testEnv struct {
	srv       *httptest.Server
	token     string
	refresh   string
	coversDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	coversDir := filepath.Join(dir, "covers")

	store, err := OpenStore(config.DB{
		Driver: "sqlite",
		DSN:    filepath.Join(dir, "test.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close(context.Background()) })

	api, err := New(config.Server{
		DB: config.DB{Driver: "sqlite"},
		JWT: config.JWT{
			Secret:     "test-secret",
			AccessTTL:  3600,
			RefreshTTL: 86400,
		},
		Covers: config.Covers{Backend: "fs", Dir: coversDir},
	}, store, log.G)
	require.NoError(t, err)

	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)

	env := &testEnv{srv: srv, coversDir: coversDir}
	env.login(t, seedUsername, seedPassword)
	return env
}

func (e *testEnv) login(t *testing.T, username, password string) {
	t.Helper()

	resp := e.post(t, "/api/v1/auth/login", catalog.LoginRequest{
		Username: username,
		Password: password,
	}, "")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out catalog.LoginResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.AccessToken)
	require.NotEmpty(t, out.RefreshToken)

	e.token = out.AccessToken
	e.refresh = out.RefreshToken
}

func (e *testEnv) request(t *testing.T, method, path string, body any, token string) *http.Response {
	t.Helper()

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) post(t *testing.T, path string, body any, token string) *http.Response {
	return e.request(t, http.MethodPost, path, body, token)
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	return e.request(t, http.MethodGet, path, nil, e.token)
}

func decodeInto[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()

	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func (e *testEnv) createArtist(t *testing.T, name string, band bool) catalog.Artist {
	t.Helper()

	resp := e.post(t, "/api/v1/artists", catalog.ArtistRequest{Name: name, IsBand: band}, e.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeInto[catalog.Artist](t, resp)
}

func (e *testEnv) createAlbum(t *testing.T, title string, year int, artistIDs ...int64) catalog.Album {
	t.Helper()

	resp := e.post(t, "/api/v1/albums", catalog.AlbumRequest{
		Title:       title,
		ReleaseYear: year,
		ArtistIDs:   artistIDs,
	}, e.token)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeInto[catalog.Album](t, resp)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/v1/auth/login", catalog.LoginRequest{
		Username: seedUsername,
		Password: "wrong",
	}, "")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	body := decodeInto[errorBody](t, resp)
	assert.Equal(t, http.StatusUnauthorized, body.Status)
	assert.NotEmpty(t, body.Message)
}

func TestProtectedRoutesRequireBearer(t *testing.T) {
	env := newTestEnv(t)

	resp := env.request(t, http.MethodGet, "/api/v1/artists", nil, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.request(t, http.MethodGet, "/api/v1/artists", nil, "garbage-token")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefreshRotatesToken(t *testing.T) {
	env := newTestEnv(t)
	oldRefresh := env.refresh

	resp := env.post(t, "/api/v1/auth/refresh", map[string]string{"refreshToken": oldRefresh}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	pair := decodeInto[catalog.LoginResponse](t, resp)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEqual(t, oldRefresh, pair.RefreshToken)

	// The presented refresh token is single-use
	resp = env.post(t, "/api/v1/auth/refresh", map[string]string{"refreshToken": oldRefresh}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// The rotated one works
	resp = env.post(t, "/api/v1/auth/refresh", map[string]string{"refreshToken": pair.RefreshToken}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogoutRevokesRefreshToken(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/v1/auth/logout", map[string]string{"refreshToken": env.refresh}, "")
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.post(t, "/api/v1/auth/refresh", map[string]string{"refreshToken": env.refresh}, "")
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestArtistCRUD(t *testing.T) {
	env := newTestEnv(t)

	created := env.createArtist(t, "Nirvana", true)
	assert.True(t, created.IsBand)

	resp := env.get(t, "/api/v1/artists")
	artists := decodeInto[[]catalog.Artist](t, resp)
	require.Len(t, artists, 1)

	resp = env.request(t, http.MethodPut, fmt.Sprintf("/api/v1/artists/%d", created.ID),
		catalog.ArtistRequest{Name: "Nirvana (US)", IsBand: true}, env.token)
	updated := decodeInto[catalog.Artist](t, resp)
	assert.Equal(t, "Nirvana (US)", updated.Name)

	resp = env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/artists/%d", created.ID), nil, env.token)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = env.get(t, fmt.Sprintf("/api/v1/artists/%d", created.ID))
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestArtistValidationSurfacesFieldErrors(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/v1/artists", catalog.ArtistRequest{Name: ""}, env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	body := decodeInto[errorBody](t, resp)
	assert.Equal(t, []string{"required"}, body.Errors["Name"])
}

func TestValidationErrorsDecodeThroughGateway(t *testing.T) {
	env := newTestEnv(t)

	store := session.NewStore()
	store.Login(env.token, env.refresh)
	require.True(t, store.Authenticated())

	gw := gateway.New(env.srv.URL+"/api/v1", store)

	// A body that passes decoding but fails server-side validation, sent raw
	// so the client-side pre-flight check cannot intercept it
	err := gw.Post("/artists", map[string]any{"name": "", "isBand": true})
	require.Error(t, err)

	ge := errors.FromError(err)
	assert.Equal(t, http.StatusUnprocessableEntity, ge.GetCode())
	assert.Equal(t, "validation failed", ge.GetMessage())
	assert.Equal(t, "required", ge.GetMetadata()["Name"])
}

func TestArtistKindFilters(t *testing.T) {
	env := newTestEnv(t)
	env.createArtist(t, "Nirvana", true)
	env.createArtist(t, "Elliott Smith", false)

	resp := env.get(t, "/api/v1/artists/bands")
	bands := decodeInto[[]catalog.Artist](t, resp)
	require.Len(t, bands, 1)
	assert.Equal(t, "Nirvana", bands[0].Name)

	resp = env.get(t, "/api/v1/artists/solo")
	solo := decodeInto[[]catalog.Artist](t, resp)
	require.Len(t, solo, 1)
	assert.Equal(t, "Elliott Smith", solo[0].Name)
}

func TestAlbumLifecycle(t *testing.T) {
	env := newTestEnv(t)
	band := env.createArtist(t, "Nirvana", true)

	album := env.createAlbum(t, "Nevermind", 1991, band.ID)
	require.Len(t, album.Artists, 1)
	assert.Equal(t, "Nirvana", album.Artists[0].Name)

	// Artist album counts reflect the link
	resp := env.get(t, fmt.Sprintf("/api/v1/artists/%d", band.ID))
	artist := decodeInto[catalog.Artist](t, resp)
	assert.Equal(t, 1, artist.AlbumCount)

	resp = env.get(t, "/api/v1/albums/year/1991")
	byYear := decodeInto[[]catalog.Album](t, resp)
	require.Len(t, byYear, 1)

	resp = env.get(t, "/api/v1/albums/search?title=never")
	found := decodeInto[[]catalog.Album](t, resp)
	require.Len(t, found, 1)

	resp = env.request(t, http.MethodDelete, fmt.Sprintf("/api/v1/albums/%d", album.ID), nil, env.token)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
}

func TestAlbumRejectsUnknownArtists(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/v1/albums", catalog.AlbumRequest{
		Title:       "Orphan",
		ReleaseYear: 2000,
		ArtistIDs:   []int64{999},
	}, env.token)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestPagedBandAlbums(t *testing.T) {
	env := newTestEnv(t)
	band := env.createArtist(t, "Nirvana", true)
	solo := env.createArtist(t, "Elliott Smith", false)

	for i := 0; i < 3; i++ {
		env.createAlbum(t, fmt.Sprintf("Band Album %d", i), 1990+i, band.ID)
	}
	env.createAlbum(t, "Solo Album", 1997, solo.ID)

	resp := env.get(t, "/api/v1/albums/bands?page=0&size=2")
	page := decodeInto[catalog.Page[catalog.Album]](t, resp)

	assert.EqualValues(t, 3, page.TotalElements)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Content, 2)
	assert.True(t, page.First)
	assert.False(t, page.Last)

	resp = env.get(t, "/api/v1/albums/bands?page=1&size=2")
	page = decodeInto[catalog.Page[catalog.Album]](t, resp)
	assert.Len(t, page.Content, 1)
	assert.True(t, page.Last)
}

func TestCoverUploadAndDelete(t *testing.T) {
	env := newTestEnv(t)
	band := env.createArtist(t, "Nirvana", true)
	album := env.createAlbum(t, "Nevermind", 1991, band.ID)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "cover.png")
	require.NoError(t, err)
	part.Write([]byte("png-bytes"))
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost,
		fmt.Sprintf("%s/api/v1/albums/%d/covers", env.srv.URL, album.ID), &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.token)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	cover := decodeInto[catalog.AlbumCover](t, resp)

	assert.Equal(t, "cover.png", cover.FileName)
	assert.EqualValues(t, len("png-bytes"), cover.FileSize)
	assert.True(t, strings.HasPrefix(cover.ImageURL, "/covers/"))

	// The binary landed in the covers directory
	entries, err := os.ReadDir(env.coversDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	resp = env.get(t, fmt.Sprintf("/api/v1/albums/%d/covers", album.ID))
	covers := decodeInto[[]catalog.AlbumCover](t, resp)
	require.Len(t, covers, 1)

	resp = env.request(t, http.MethodDelete,
		fmt.Sprintf("/api/v1/albums/%d/covers/%d", album.ID, cover.ID), nil, env.token)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	entries, err = os.ReadDir(env.coversDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegionalSyncCounts(t *testing.T) {
	env := newTestEnv(t)

	resp := env.post(t, "/api/v1/regionais/sync", nil, env.token)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodeInto[catalog.SyncResult](t, resp)
	assert.Equal(t, len(upstreamRegionals), first.Created)
	assert.Equal(t, 0, first.Updated)

	// A second sync finds everything in place
	resp = env.post(t, "/api/v1/regionais/sync", nil, env.token)
	second := decodeInto[catalog.SyncResult](t, resp)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 0, second.Disabled)

	resp = env.get(t, "/api/v1/regionais")
	regionals := decodeInto[[]catalog.Regional](t, resp)
	assert.Len(t, regionals, len(upstreamRegionals))
	for _, r := range regionals {
		assert.True(t, r.Active)
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/actuator/health", "/api/v1/actuator/health"} {
		resp, err := http.Get(env.srv.URL + path)
		require.NoError(t, err)
		health := decodeInto[catalog.Health](t, resp)
		assert.Equal(t, "UP", health.Status)
	}
}

func TestHubBroadcastsMutationEvents(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(controlFrame{Action: "subscribe", Topic: "artists"}))
	// Give the hub a beat to register the subscription before mutating
	time.Sleep(50 * time.Millisecond)

	env.createArtist(t, "Nirvana", true)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event notify.Event
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, notify.EventArtistCreated, event.Type)
	assert.Contains(t, event.Message, "Nirvana")
	assert.NotEmpty(t, event.Timestamp)
}

func TestHubIgnoresUnsubscribedTopics(t *testing.T) {
	env := newTestEnv(t)

	wsURL := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(controlFrame{Action: "subscribe", Topic: "albums"}))
	time.Sleep(50 * time.Millisecond)

	// An artist mutation goes to the artists topic only
	env.createArtist(t, "Nirvana", true)

	conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	var event notify.Event
	err = conn.ReadJSON(&event)
	assert.Error(t, err)
}
