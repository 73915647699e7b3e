package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/gateway"
	"github.com/discograf/discograf/session"
)

func testGateway(t *testing.T, handler http.Handler) *gateway.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "admin",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	store := session.NewStore()
	store.Login(token, "refresh-1")

	return gateway.New(srv.URL, store)
}

func TestArtistRequestValidation(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid request must not reach the wire")
	}))
	svc := NewArtistService(gw)

	_, err := svc.Create(context.Background(), ArtistRequest{Name: ""})
	require.Error(t, err)

	ge := errors.FromError(err)
	assert.Equal(t, 422, ge.GetCode())
	assert.Equal(t, "required", ge.GetMetadata()["Name"])
}

func TestAlbumRequestValidation(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid request must not reach the wire")
	}))
	svc := NewAlbumService(gw)

	cases := []struct {
		name  string
		req   AlbumRequest
		field string
	}{
		{"missing title", AlbumRequest{ReleaseYear: 1999, ArtistIDs: []int64{1}}, "Title"},
		{"year too early", AlbumRequest{Title: "x", ReleaseYear: 1800, ArtistIDs: []int64{1}}, "ReleaseYear"},
		{"year too late", AlbumRequest{Title: "x", ReleaseYear: 2200, ArtistIDs: []int64{1}}, "ReleaseYear"},
		{"no artists", AlbumRequest{Title: "x", ReleaseYear: 1999}, "ArtistIDs"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tc.req)
			require.Error(t, err)

			ge := errors.FromError(err)
			assert.Equal(t, 422, ge.GetCode())
			assert.Contains(t, ge.GetMetadata(), tc.field)
		})
	}
}

func TestArtistServiceRoutes(t *testing.T) {
	var gotPath, gotQuery string
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]Artist{{ID: 1, Name: "Nirvana", IsBand: true}})
	}))
	svc := NewArtistService(gw)
	ctx := context.Background()

	artists, err := svc.Search(ctx, "nirvana")
	require.NoError(t, err)
	assert.Equal(t, "/artists/search", gotPath)
	assert.Equal(t, "name=nirvana", gotQuery)
	require.Len(t, artists, 1)
	assert.Equal(t, "Nirvana", artists[0].Name)

	_, err = svc.Bands(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/artists/bands", gotPath)

	_, err = svc.Solo(ctx)
	require.NoError(t, err)
	assert.Equal(t, "/artists/solo", gotPath)
}

func TestAlbumServicePagedRoutes(t *testing.T) {
	var gotPath, gotQuery string
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode(Page[Album]{
			Content:       []Album{{ID: 3, Title: "Nevermind"}},
			Page:          1,
			Size:          10,
			TotalElements: 11,
			TotalPages:    2,
			Last:          true,
		})
	}))
	svc := NewAlbumService(gw)

	page, err := svc.BandAlbums(context.Background(), PageRequest{Page: 1, Size: 10})
	require.NoError(t, err)

	assert.Equal(t, "/albums/bands", gotPath)
	assert.Contains(t, gotQuery, "page=1")
	assert.Contains(t, gotQuery, "size=10")
	require.Len(t, page.Content, 1)
	assert.True(t, page.Last)
	assert.EqualValues(t, 11, page.TotalElements)
}

func TestUploadCoverSendsMultipart(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/albums/7/covers", r.URL.Path)

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Error(err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		assert.Equal(t, "cover.jpg", header.Filename)

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(AlbumCover{ID: 1, FileName: "cover.jpg"})
	}))
	svc := NewAlbumService(gw)

	cover, err := svc.UploadCover(context.Background(), 7, "cover.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.EqualValues(t, 1, cover.ID)
}

func TestRegionalSync(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/regionais/sync", r.URL.Path)
		json.NewEncoder(w).Encode(SyncResult{Message: "ok", Created: 2, Updated: 1, Disabled: 0, Total: 5})
	}))
	svc := NewRegionalService(gw)

	result, err := svc.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 5, result.Total)
}

func TestRegionalJSONFieldNames(t *testing.T) {
	gw := testGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"id":1,"nome":"Sul","ativo":true}]`))
	}))
	svc := NewRegionalService(gw)

	regionals, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, regionals, 1)
	assert.Equal(t, "Sul", regionals[0].Name)
	assert.True(t, regionals[0].Active)
}

func TestLoginDoesNotRequireSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(LoginResponse{
			TokenType:    "Bearer",
			AccessToken:  "access",
			RefreshToken: "refresh",
			ExpiresIn:    3600,
		})
	}))
	defer srv.Close()

	gw := gateway.New(srv.URL, session.NewStore())
	svc := NewAuthService(gw)

	resp, err := svc.Login(context.Background(), LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.EqualValues(t, 3600, resp.ExpiresIn)
}

func TestLoginValidatesCredentialsLocally(t *testing.T) {
	gw := gateway.New("http://unused", session.NewStore())
	svc := NewAuthService(gw)

	_, err := svc.Login(context.Background(), LoginRequest{Username: "", Password: ""})
	require.Error(t, err)
	assert.Equal(t, 422, errors.Code(err))
}
