package geniusapi_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/onnwee/prodscout/geniusapi"
	"github.com/onnwee/prodscout/testutil"
)

func newTestClient(m *testutil.MockGeniusServer) *geniusapi.Client {
	return &geniusapi.Client{
		Token:   "test-token",
		APIBase: m.URL,
		WebBase: m.URL,
	}
}

func TestSearchAlbum(t *testing.T) {
	m := testutil.NewMockGeniusServer(t)
	m.MockAlbumSearch([]map[string]any{
		{"id": 42, "name": "Madvillainy", "url": "https://genius.test/albums/42", "artist": map[string]any{"name": "Madvillain"}},
		{"id": 43, "name": "Other", "artist": map[string]any{"name": "Someone"}},
	})
	c := newTestClient(m)

	album, err := c.SearchAlbum(context.Background(), "madvillainy")
	if err != nil {
		t.Fatalf("SearchAlbum: %v", err)
	}
	if album == nil {
		t.Fatal("album = nil, want top hit")
	}
	if album.ID != 42 || album.Name != "Madvillainy" || album.Artist != "Madvillain" {
		t.Errorf("album = %+v", album)
	}
}

func TestSearchAlbumNoMatch(t *testing.T) {
	m := testutil.NewMockGeniusServer(t)
	m.MockAlbumSearch(nil)
	c := newTestClient(m)

	album, err := c.SearchAlbum(context.Background(), "zzzzz")
	if err != nil {
		t.Fatalf("SearchAlbum: %v", err)
	}
	if album != nil {
		t.Errorf("album = %+v, want nil for no match", album)
	}
}

func TestAlbumTracksOrder(t *testing.T) {
	m := testutil.NewMockGeniusServer(t)
	m.MockAlbumTracks(42, []string{"Accordion", "Meat Grinder", "Bistro"})
	c := newTestClient(m)

	tracks, err := c.AlbumTracks(context.Background(), 42)
	if err != nil {
		t.Fatalf("AlbumTracks: %v", err)
	}
	want := []string{"Accordion", "Meat Grinder", "Bistro"}
	if len(tracks) != len(want) {
		t.Fatalf("tracks = %d, want %d", len(tracks), len(want))
	}
	for i, w := range want {
		if tracks[i].Title != w {
			t.Errorf("track %d = %q, want %q (listing order must be preserved)", i, tracks[i].Title, w)
		}
	}
}

func TestSearchSongProducers(t *testing.T) {
	m := testutil.NewMockGeniusServer(t)
	m.MockSongSearch([]map[string]any{
		{"id": 7, "title": "Accordion", "primary_artist": map[string]any{"name": "Madvillain"}},
	})
	m.MockSong(7, "Accordion", []map[string]string{
		{"name": "Madlib", "url": "https://genius.test/artists/madlib"},
	})
	c := newTestClient(m)

	song, err := c.SearchSong(context.Background(), "Accordion", "Madvillain")
	if err != nil {
		t.Fatalf("SearchSong: %v", err)
	}
	if song == nil || len(song.Producers) != 1 {
		t.Fatalf("song = %+v", song)
	}
	if song.Producers[0].Name != "Madlib" {
		t.Errorf("producer = %+v", song.Producers[0])
	}
}

func TestSearchSongNoHit(t *testing.T) {
	m := testutil.NewMockGeniusServer(t)
	m.MockSongSearch(nil)
	c := newTestClient(m)

	song, err := c.SearchSong(context.Background(), "nope", "nobody")
	if err != nil {
		t.Fatalf("SearchSong: %v", err)
	}
	if song != nil {
		t.Errorf("song = %+v, want nil", song)
	}
}

func TestAccessDeniedClassification(t *testing.T) {
	m := testutil.NewMockGeniusServer(t)
	m.MockStatus("/search/album", http.StatusForbidden, "forbidden")
	c := newTestClient(m)

	_, err := c.SearchAlbum(context.Background(), "anything")
	if !errors.Is(err, geniusapi.ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied", err)
	}
}

func TestBlockedChallengePage(t *testing.T) {
	m := testutil.NewMockGeniusServer(t)
	m.MockStatus("/search/album", http.StatusServiceUnavailable, "<html>Attention: cloudflare challenge</html>")
	c := newTestClient(m)

	_, err := c.SearchAlbum(context.Background(), "anything")
	if !errors.Is(err, geniusapi.ErrAccessDenied) {
		t.Errorf("err = %v, want ErrAccessDenied for challenge page", err)
	}
}

func TestRetryOnServerError(t *testing.T) {
	m := testutil.NewMockGeniusServer(t)
	calls := 0
	m.Handlers["/albums/5/tracks"] = func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":{"tracks":[{"number":1,"song":{"title":"one"}}]}}`))
	}
	c := newTestClient(m)

	tracks, err := c.AlbumTracks(context.Background(), 5)
	if err != nil {
		t.Fatalf("AlbumTracks after retry: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls)
	}
	if len(tracks) != 1 {
		t.Errorf("tracks = %+v", tracks)
	}
}
