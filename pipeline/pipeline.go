// Package pipeline drives the album -> tracks -> producer-credit lookup sequence.
// Lookups are strictly sequential with a randomized pacing delay between per-track
// requests: the upstream service is scraping-adjacent and quick to throttle, so the
// defining property here is resilience across a long fan-out of independent lookups,
// not throughput. A single track failure never aborts the run.
package pipeline

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/onnwee/prodscout/geniusapi"
	"github.com/onnwee/prodscout/telemetry"
)

// Metadata is the slice of the Genius client the pipeline consumes.
type Metadata interface {
	SearchAlbum(ctx context.Context, query string) (*geniusapi.Album, error)
	AlbumTracks(ctx context.Context, albumID int) ([]geniusapi.Track, error)
	SearchSong(ctx context.Context, title, artist string) (*geniusapi.Song, error)
}

// Row is one (track, producer) pair. Values are untruncated; display-width
// trimming belongs to the renderer.
type Row struct {
	Song     string
	Producer string
	Link     string
}

// Result is a completed run: album display metadata plus rows in track-listing order.
type Result struct {
	Album  string
	Artist string
	Rows   []Row
}

// Pipeline runs metered album lookups against a Metadata source.
type Pipeline struct {
	Meta Metadata

	// Pacing bounds for the randomized delay between per-track lookups.
	PaceMin time.Duration
	PaceMax time.Duration

	// sleep is swapped in tests to avoid real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// New returns a pipeline with the given pacing bounds (min > max is clamped).
func New(meta Metadata, paceMin, paceMax time.Duration) *Pipeline {
	if paceMax < paceMin {
		paceMax = paceMin
	}
	return &Pipeline{Meta: meta, PaceMin: paceMin, PaceMax: paceMax, sleep: sleepCtx}
}

// Run resolves the album for query and accumulates one row per (track, producer).
// Failure contract:
//   - no album match: ErrNotFound, zero rows
//   - album-level infrastructure fault: the wrapped error (Classify buckets it)
//   - per-track faults: absorbed into fallback rows, never escalated
func (p *Pipeline) Run(ctx context.Context, query string) (*Result, error) {
	telemetry.LookupsStarted.Inc()
	start := time.Now()

	album, err := p.Meta.SearchAlbum(ctx, query)
	if err != nil {
		telemetry.LookupsFailed.Inc()
		return nil, err
	}
	if album == nil {
		telemetry.LookupsFailed.Inc()
		return nil, ErrNotFound
	}

	tracks, err := p.Meta.AlbumTracks(ctx, album.ID)
	if err != nil {
		telemetry.LookupsFailed.Inc()
		return nil, err
	}

	res := &Result{Album: album.Name, Artist: album.Artist}
	for i, track := range tracks {
		if i > 0 {
			if err := p.sleep(ctx, p.paceDelay()); err != nil {
				telemetry.LookupsFailed.Inc()
				return nil, err
			}
		}
		song, err := p.Meta.SearchSong(ctx, track.Title, album.Artist)
		if err != nil {
			// Fault-isolated: log, emit the error row, keep going.
			slog.Warn("track lookup failed", slog.String("track", track.Title), slog.Any("err", err), slog.String("component", "pipeline"))
			telemetry.TrackLookupFailures.Inc()
			res.Rows = append(res.Rows, Row{Song: track.Title, Producer: "Error", Link: "-"})
			continue
		}
		if song == nil {
			res.Rows = append(res.Rows, Row{Song: track.Title, Producer: "-", Link: "-"})
			continue
		}
		if len(song.Producers) == 0 {
			res.Rows = append(res.Rows, Row{Song: song.Title, Producer: "Unknown", Link: "-"})
			continue
		}
		for _, prod := range song.Producers {
			link := prod.URL
			if link == "" {
				link = "-"
			}
			res.Rows = append(res.Rows, Row{Song: song.Title, Producer: prod.Name, Link: link})
		}
	}

	telemetry.LookupsSucceeded.Inc()
	telemetry.LookupDuration.Observe(time.Since(start).Seconds())
	return res, nil
}

// paceDelay draws from [PaceMin, PaceMax]. The jitter keeps request timing
// human-shaped rather than metronomic.
func (p *Pipeline) paceDelay() time.Duration {
	if p.PaceMax <= p.PaceMin {
		return p.PaceMin
	}
	//nolint:gosec // G404: math/rand is sufficient for pacing jitter, not used for security
	return p.PaceMin + time.Duration(rand.Int63n(int64(p.PaceMax-p.PaceMin)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
