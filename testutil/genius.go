package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

// MockGeniusServer creates a test server that mocks Genius API responses.
// Both the REST surface (/search, /songs/{id}) and the web surface
// (/search/album, /albums/{id}/tracks) register on the same server; point the
// client's APIBase and WebBase at Server.URL.
type MockGeniusServer struct {
	*httptest.Server
	Handlers map[string]http.HandlerFunc
}

// NewMockGeniusServer creates a new mock Genius API server.
func NewMockGeniusServer(t *testing.T) *MockGeniusServer {
	t.Helper()
	m := &MockGeniusServer{
		Handlers: make(map[string]http.HandlerFunc),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := m.Handlers[r.URL.Path]; ok {
			handler(w, r)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	t.Cleanup(m.Close)
	return m
}

// MockAlbumSearch adds a handler for the album search endpoint. Pass a nil hit
// list for a no-match response.
func (m *MockGeniusServer) MockAlbumSearch(albums []map[string]any) {
	m.Handlers["/search/album"] = func(w http.ResponseWriter, r *http.Request) {
		hits := make([]map[string]any, 0, len(albums))
		for _, a := range albums {
			hits = append(hits, map[string]any{"result": a})
		}
		response := map[string]any{
			"response": map[string]any{
				"sections": []map[string]any{
					{"type": "album", "hits": hits},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockAlbumTracks adds a handler for an album's track listing.
func (m *MockGeniusServer) MockAlbumTracks(albumID int, titles []string) {
	m.Handlers[fmt.Sprintf("/albums/%d/tracks", albumID)] = func(w http.ResponseWriter, r *http.Request) {
		tracks := make([]map[string]any, 0, len(titles))
		for i, title := range titles {
			tracks = append(tracks, map[string]any{
				"number": i + 1,
				"song":   map[string]any{"title": title},
			})
		}
		response := map[string]any{
			"response": map[string]any{"tracks": tracks},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockSongSearch adds a handler for the REST search endpoint.
func (m *MockGeniusServer) MockSongSearch(hits []map[string]any) {
	m.Handlers["/search"] = func(w http.ResponseWriter, r *http.Request) {
		wrapped := make([]map[string]any, 0, len(hits))
		for _, h := range hits {
			wrapped = append(wrapped, map[string]any{"type": "song", "result": h})
		}
		response := map[string]any{
			"response": map[string]any{"hits": wrapped},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockSong adds a handler for a song detail record with producer credits.
func (m *MockGeniusServer) MockSong(songID int, title string, producers []map[string]string) {
	m.Handlers[fmt.Sprintf("/songs/%d", songID)] = func(w http.ResponseWriter, r *http.Request) {
		response := map[string]any{
			"response": map[string]any{
				"song": map[string]any{
					"id":               songID,
					"title":            title,
					"url":              fmt.Sprintf("https://genius.test/songs/%d", songID),
					"producer_artists": producers,
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(response) //nolint:errcheck // test mock response
	}
}

// MockStatus makes a path return a fixed status code and body.
func (m *MockGeniusServer) MockStatus(path string, status int, body string) {
	m.Handlers[path] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}
}
