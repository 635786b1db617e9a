package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientAttachesBearerToken(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret-token")
	require.NoError(t, c.Get(context.Background(), "/api/announcements", nil))

	assert.Equal(t, "Bearer secret-token", gotAuth)
	assert.Equal(t, "application/json", gotAccept)
}

func TestClientOmitsEmptyToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	require.NoError(t, c.Get(context.Background(), "/", nil))
	assert.Empty(t, gotAuth)
}

func TestClientTagsMutatingRequests(t *testing.T) {
	var getID, postID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			getID = r.Header.Get("X-Request-ID")
		} else {
			postID = r.Header.Get("X-Request-ID")
		}
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	require.NoError(t, c.Get(context.Background(), "/", nil))
	require.NoError(t, c.Post(context.Background(), "/", map[string]string{"a": "b"}, nil))

	assert.Empty(t, getID)
	assert.NotEmpty(t, postID)
}

func TestClientRetriesRateLimitWithSameRequestID(t *testing.T) {
	var requestIDs []string
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		requestIDs = append(requestIDs, r.Header.Get("X-Request-ID"))
		if attempts < 3 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	var result struct {
		OK bool `json:"ok"`
	}
	require.NoError(t, c.Post(context.Background(), "/", nil, &result))

	assert.True(t, result.OK)
	assert.Equal(t, 3, attempts)

	// Every retry carries the same id so the backend can deduplicate.
	require.Len(t, requestIDs, 3)
	assert.Equal(t, requestIDs[0], requestIDs[1])
	assert.Equal(t, requestIDs[0], requestIDs[2])
}

func TestClientGivesUpAfterMaxRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "0")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	err := c.Get(context.Background(), "/", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max retries")
}

func TestClientMapsUnauthorizedToAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"token expired"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "stale")
	err := c.Get(context.Background(), "/", nil)
	require.Error(t, err)
	assert.True(t, IsAuthError(err))

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Equal(t, "token expired", authErr.Message)
}

func TestClientMapsForbiddenToAuthError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	assert.True(t, IsAuthError(c.Get(context.Background(), "/", nil)))
}

func TestClientSurfacesServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"message":"title is required"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	err := c.Post(context.Background(), "/api/announcements", nil, nil)
	require.Error(t, err)
	assert.False(t, IsAuthError(err))
	assert.Contains(t, err.Error(), "title is required")
}

func TestClientToleratesEmptyResponseBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	var result map[string]string
	require.NoError(t, c.Get(context.Background(), "/", &result))
	assert.Nil(t, result)
}

func TestClientMultipartForm(t *testing.T) {
	var gotTitle, gotFile, gotFilename string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotTitle = r.FormValue("title")

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		buf := make([]byte, 16)
		n, _ := file.Read(buf)
		gotFile = string(buf[:n])
		gotFilename = header.Filename

		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "t")
	_, err := c.PostForm(context.Background(), "/",
		map[string]string{"title": "hello", "skipped": ""},
		[]FormFile{{Field: "image", Name: "photo.jpg", Content: strings.NewReader("jpegdata")}},
	)
	require.NoError(t, err)

	assert.Equal(t, "hello", gotTitle)
	assert.Equal(t, "jpegdata", gotFile)
	assert.Equal(t, "photo.jpg", gotFilename)
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "t")
	require.NoError(t, c.Get(context.Background(), "/api/incidents", nil))
	assert.Equal(t, "/api/incidents", gotPath)
}
