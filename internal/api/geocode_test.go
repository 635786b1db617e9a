package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseGeocode(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"display_name":"Barangay San Isidro, Quezon City"}`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL)
	name, err := g.ReverseGeocode(context.Background(), 14.5995, 120.9842)
	require.NoError(t, err)
	assert.Equal(t, "Barangay San Isidro, Quezon City", name)
	assert.Contains(t, gotQuery, "lat=14.599500")
	assert.Contains(t, gotQuery, "lon=120.984200")
	assert.Contains(t, gotQuery, "format=json")
}

func TestReverseGeocodeFailuresAreNotFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	g := NewGeocoder(srv.URL)
	name, err := g.ReverseGeocode(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, UnknownLocation, name)

	// Unreachable endpoint behaves the same way.
	srv.Close()
	name, err = g.ReverseGeocode(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, UnknownLocation, name)
}

func TestReverseGeocodeEmptyName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	g := NewGeocoder(srv.URL)
	name, err := g.ReverseGeocode(context.Background(), 1, 2)
	require.NoError(t, err)
	assert.Equal(t, UnknownLocation, name)
}
