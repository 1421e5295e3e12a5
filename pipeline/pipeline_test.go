package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/onnwee/prodscout/geniusapi"
	"github.com/onnwee/prodscout/telemetry"
)

func init() { telemetry.Init() }

type fakeMeta struct {
	album     *geniusapi.Album
	albumErr  error
	tracks    []geniusapi.Track
	tracksErr error
	songs     map[string]*geniusapi.Song
	songErrs  map[string]error
}

func (f *fakeMeta) SearchAlbum(ctx context.Context, query string) (*geniusapi.Album, error) {
	return f.album, f.albumErr
}

func (f *fakeMeta) AlbumTracks(ctx context.Context, albumID int) ([]geniusapi.Track, error) {
	return f.tracks, f.tracksErr
}

func (f *fakeMeta) SearchSong(ctx context.Context, title, artist string) (*geniusapi.Song, error) {
	if err, ok := f.songErrs[title]; ok {
		return nil, err
	}
	return f.songs[title], nil
}

func newTestPipeline(meta Metadata) *Pipeline {
	p := New(meta, 0, 0)
	p.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return p
}

func TestRunAlbumNotFound(t *testing.T) {
	p := newTestPipeline(&fakeMeta{})
	res, err := p.Run(context.Background(), "nothing here")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if res != nil {
		t.Errorf("result = %+v, want nil", res)
	}
}

func TestRunTrackFailureIsIsolated(t *testing.T) {
	meta := &fakeMeta{
		album:  &geniusapi.Album{ID: 1, Name: "Album", Artist: "Artist"},
		tracks: []geniusapi.Track{{Number: 1, Title: "t1"}, {Number: 2, Title: "t2"}, {Number: 3, Title: "t3"}},
		songs: map[string]*geniusapi.Song{
			"t1": {ID: 11, Title: "t1", Producers: []geniusapi.Producer{{Name: "P1", URL: "https://genius.test/p1"}}},
			"t3": {ID: 13, Title: "t3", Producers: []geniusapi.Producer{{Name: "P3", URL: "https://genius.test/p3"}}},
		},
		songErrs: map[string]error{"t2": fmt.Errorf("boom")},
	}
	p := newTestPipeline(meta)
	res, err := p.Run(context.Background(), "album")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(res.Rows))
	}
	want := Row{Song: "t2", Producer: "Error", Link: "-"}
	if res.Rows[1] != want {
		t.Errorf("row 2 = %+v, want %+v", res.Rows[1], want)
	}
	// Track 3 must still be processed after the failure.
	if res.Rows[2].Producer != "P3" {
		t.Errorf("row 3 producer = %q, want P3", res.Rows[2].Producer)
	}
}

func TestRunFallbackRows(t *testing.T) {
	meta := &fakeMeta{
		album:  &geniusapi.Album{ID: 1, Name: "Album", Artist: "Artist"},
		tracks: []geniusapi.Track{{Number: 1, Title: "missing"}, {Number: 2, Title: "bare"}},
		songs: map[string]*geniusapi.Song{
			// "missing" has no song at all; "bare" has a song but no producers.
			"bare": {ID: 21, Title: "bare"},
		},
	}
	p := newTestPipeline(meta)
	res, err := p.Run(context.Background(), "album")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got, want := res.Rows[0], (Row{Song: "missing", Producer: "-", Link: "-"}); got != want {
		t.Errorf("absent song row = %+v, want %+v", got, want)
	}
	if got, want := res.Rows[1], (Row{Song: "bare", Producer: "Unknown", Link: "-"}); got != want {
		t.Errorf("no-producer row = %+v, want %+v", got, want)
	}
}

func TestRunMultipleProducers(t *testing.T) {
	meta := &fakeMeta{
		album:  &geniusapi.Album{ID: 1, Name: "Album", Artist: "Artist"},
		tracks: []geniusapi.Track{{Number: 1, Title: "hit"}},
		songs: map[string]*geniusapi.Song{
			"hit": {ID: 31, Title: "hit", Producers: []geniusapi.Producer{
				{Name: "A", URL: "https://genius.test/a"},
				{Name: "B"},
			}},
		},
	}
	p := newTestPipeline(meta)
	res, err := p.Run(context.Background(), "album")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(res.Rows))
	}
	if res.Rows[0].Song != "hit" || res.Rows[1].Song != "hit" {
		t.Errorf("rows must share the song title: %+v", res.Rows)
	}
	if res.Rows[0].Producer == res.Rows[1].Producer {
		t.Errorf("producer columns must differ: %+v", res.Rows)
	}
	// Missing profile link falls back to the placeholder.
	if res.Rows[1].Link != "-" {
		t.Errorf("link fallback = %q, want -", res.Rows[1].Link)
	}
}

func TestRunAlbumLevelFailure(t *testing.T) {
	meta := &fakeMeta{albumErr: fmt.Errorf("genius request failed: 500 Internal Server Error")}
	p := newTestPipeline(meta)
	if _, err := p.Run(context.Background(), "album"); err == nil {
		t.Fatal("expected error")
	}
}

func TestRunPacingBetweenTracksOnly(t *testing.T) {
	meta := &fakeMeta{
		album:  &geniusapi.Album{ID: 1, Name: "Album", Artist: "Artist"},
		tracks: []geniusapi.Track{{Title: "a"}, {Title: "b"}, {Title: "c"}},
		songs:  map[string]*geniusapi.Song{},
	}
	p := New(meta, 10*time.Millisecond, 20*time.Millisecond)
	sleeps := 0
	p.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		if d < 10*time.Millisecond || d > 20*time.Millisecond {
			t.Errorf("pace delay %s outside bounds", d)
		}
		return nil
	}
	if _, err := p.Run(context.Background(), "album"); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// No delay before the first track.
	if sleeps != 2 {
		t.Errorf("sleeps = %d, want 2", sleeps)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"not found", ErrNotFound, FailureNotFound},
		{"wrapped not found", fmt.Errorf("run: %w", ErrNotFound), FailureNotFound},
		{"access denied sentinel", geniusapi.ErrAccessDenied, FailureRateLimited},
		{"403 signature", errors.New("genius request failed: 403 Forbidden"), FailureRateLimited},
		{"429 signature", errors.New("HTTP 429 Too Many Requests"), FailureRateLimited},
		{"cloudflare block", errors.New("blocked by cloudflare challenge"), FailureRateLimited},
		{"plain network", errors.New("connection reset by peer"), FailureTransient},
		{"server error", errors.New("genius request failed: 500"), FailureTransient},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}
