package gateway

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/discograf/discograf/errors"
	"github.com/discograf/discograf/session"
)

func signToken(t *testing.T, subject string, exp time.Time) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": exp.Unix(),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func loggedInStore(t *testing.T, token string) *session.Store {
	t.Helper()

	store := session.NewStore()
	store.Login(token, "refresh-1")
	require.True(t, store.Authenticated())
	return store
}

func TestBearerAttachedAtSendTime(t *testing.T) {
	token := signToken(t, "admin", time.Now().Add(time.Hour))
	store := loggedInStore(t, token)

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL, store)
	require.NoError(t, client.Get("/ping"))

	assert.Equal(t, "Bearer "+token, got)
}

func TestNoBearerWhenLoggedOut(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL, session.NewStore())
	require.NoError(t, client.Get("/ping"))

	assert.Empty(t, got)
}

func TestRefreshRetryRecoversFrom401(t *testing.T) {
	oldToken := signToken(t, "admin", time.Now().Add(time.Hour))
	newToken := signToken(t, "admin", time.Now().Add(2*time.Hour))
	store := loggedInStore(t, oldToken)

	var refreshCalls, dataCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/refresh":
			atomic.AddInt32(&refreshCalls, 1)

			var body map[string]string
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "refresh-1", body["refreshToken"])

			json.NewEncoder(w).Encode(map[string]string{"accessToken": newToken})
		case "/data":
			atomic.AddInt32(&dataCalls, 1)

			if r.Header.Get("Authorization") != "Bearer "+newToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			json.NewEncoder(w).Encode(map[string]string{"value": "ok"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := New(srv.URL, store)

	var out struct {
		Value string `json:"value"`
	}
	require.NoError(t, client.Get("/data", WithResponse(&out)))

	assert.Equal(t, "ok", out.Value)
	assert.EqualValues(t, 1, refreshCalls)
	assert.EqualValues(t, 2, dataCalls)
	assert.Equal(t, newToken, store.Token())
	// The refresh token on hand is kept across a silent refresh
	assert.Equal(t, "refresh-1", store.RefreshToken())
}

func TestFailedRefreshForcesLogout(t *testing.T) {
	store := loggedInStore(t, signToken(t, "admin", time.Now().Add(time.Hour)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	var expired bool
	client := New(srv.URL, store, WithSessionExpiredHandler(func() { expired = true }))

	err := client.Get("/data")
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.True(t, expired)
	assert.False(t, store.Authenticated())
}

func TestRetryHappensExactlyOnce(t *testing.T) {
	newToken := signToken(t, "admin", time.Now().Add(time.Hour))
	store := loggedInStore(t, signToken(t, "admin", time.Now().Add(time.Hour)))

	var refreshCalls, dataCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			json.NewEncoder(w).Encode(map[string]string{"accessToken": newToken})
			return
		}
		// The endpoint rejects even the refreshed token
		atomic.AddInt32(&dataCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "still unauthorized", "status": 401})
	}))
	defer srv.Close()

	client := New(srv.URL, store)

	err := client.Get("/data")
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.EqualValues(t, 1, refreshCalls)
	assert.EqualValues(t, 2, dataCalls)
}

func TestNo401RecoveryWithoutRefreshToken(t *testing.T) {
	var refreshCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			atomic.AddInt32(&refreshCalls, 1)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]any{"message": "credentials required", "status": 401})
	}))
	defer srv.Close()

	// Logged out store: no refresh token on hand
	client := New(srv.URL, session.NewStore())

	err := client.Get("/data")
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	// The original 401 body propagates, no refresh is attempted
	assert.Contains(t, err.Error(), "credentials required")
	assert.EqualValues(t, 0, refreshCalls)
}

func TestErrorBodyDecodedWithFieldMetadata(t *testing.T) {
	store := loggedInStore(t, signToken(t, "admin", time.Now().Add(time.Hour)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]any{
			"message": "validation failed",
			"status":  422,
			"errors":  map[string][]string{"title": {"must not be blank"}},
		})
	}))
	defer srv.Close()

	client := New(srv.URL, store)

	err := client.Post("/albums", map[string]string{})
	require.Error(t, err)

	ge := errors.FromError(err)
	assert.Equal(t, 422, ge.GetCode())
	assert.Equal(t, "validation failed", ge.GetMessage())
	assert.Equal(t, "must not be blank", ge.GetMetadata()["title"])
}

func TestUnstructuredErrorBodyFallsBack(t *testing.T) {
	store := loggedInStore(t, signToken(t, "admin", time.Now().Add(time.Hour)))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	client := New(srv.URL, store)

	err := client.Get("/data")
	require.Error(t, err)
	assert.Equal(t, 502, errors.Code(err))
}

func TestQueryParametersAppended(t *testing.T) {
	store := loggedInStore(t, signToken(t, "admin", time.Now().Add(time.Hour)))

	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL, store)
	require.NoError(t, client.Get("/artists/search",
		WithQuery("name", "nirvana"),
		WithQuery("page", "2"),
	))

	assert.Contains(t, query, "name=nirvana")
	assert.Contains(t, query, "page=2")
}

func TestFileFormEncodedAsMultipart(t *testing.T) {
	store := loggedInStore(t, signToken(t, "admin", time.Now().Add(time.Hour)))

	var contentType, fileName, fileBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")

		file, header, err := r.FormFile("file")
		if err != nil {
			t.Error(err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()

		fileName = header.Filename
		data, _ := io.ReadAll(file)
		fileBody = string(data)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL, store)

	form := &FileForm{
		Field:    "file",
		FileName: "cover.png",
		Reader:   strings.NewReader("png-bytes"),
	}
	require.NoError(t, client.Post("/albums/1/covers", form))

	assert.Contains(t, contentType, "multipart/form-data")
	assert.Equal(t, "cover.png", fileName)
	assert.Equal(t, "png-bytes", fileBody)
}

func TestRequestBodyReplayedOnRetry(t *testing.T) {
	newToken := signToken(t, "admin", time.Now().Add(2*time.Hour))
	store := loggedInStore(t, signToken(t, "admin", time.Now().Add(time.Hour)))

	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/auth/refresh" {
			json.NewEncoder(w).Encode(map[string]string{"accessToken": newToken})
			return
		}

		data, _ := io.ReadAll(r.Body)
		bodies = append(bodies, string(data))

		if r.Header.Get("Authorization") != "Bearer "+newToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := New(srv.URL, store)
	require.NoError(t, client.Post("/artists", map[string]string{"name": "Tom"}))

	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
	assert.Contains(t, bodies[0], "Tom")
}

func TestTransportFailureWrappedAs503(t *testing.T) {
	client := New("http://127.0.0.1:1", session.NewStore())

	err := client.Get("/data")
	require.Error(t, err)
	assert.Equal(t, 503, errors.Code(err))
}
