package geniusapi

import (
	"context"
	"fmt"
	"net/url"
	"strings"
)

// Producer is a production credit attributed to a song.
type Producer struct {
	Name string
	URL  string
}

// Song is a song detail record with its producer credits.
type Song struct {
	ID        int
	Title     string
	URL       string
	Producers []Producer
}

// SearchSong resolves a (title, artist) pair to a song detail record including
// producer credits. Returns (nil, nil) when no hit matches.
func (c *Client) SearchSong(ctx context.Context, title, artist string) (*Song, error) {
	if title == "" {
		return nil, fmt.Errorf("title empty")
	}
	q := title
	if artist != "" {
		q = title + " " + artist
	}
	u := fmt.Sprintf("%s/search?q=%s", c.apiBase(), url.QueryEscape(q))
	var body struct {
		Response struct {
			Hits []struct {
				Type   string `json:"type"`
				Result struct {
					ID            int    `json:"id"`
					Title         string `json:"title"`
					URL           string `json:"url"`
					PrimaryArtist struct {
						Name string `json:"name"`
					} `json:"primary_artist"`
				} `json:"result"`
			} `json:"hits"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}

	songID := 0
	for _, h := range body.Response.Hits {
		if h.Type != "" && h.Type != "song" {
			continue
		}
		if songID == 0 {
			songID = h.Result.ID
		}
		// Prefer a hit whose primary artist matches the requested one.
		if artist != "" && strings.EqualFold(h.Result.PrimaryArtist.Name, artist) {
			songID = h.Result.ID
			break
		}
	}
	if songID == 0 {
		return nil, nil
	}
	return c.song(ctx, songID)
}

func (c *Client) song(ctx context.Context, id int) (*Song, error) {
	u := fmt.Sprintf("%s/songs/%d?text_format=plain", c.apiBase(), id)
	var body struct {
		Response struct {
			Song struct {
				ID              int    `json:"id"`
				Title           string `json:"title"`
				URL             string `json:"url"`
				ProducerArtists []struct {
					Name string `json:"name"`
					URL  string `json:"url"`
				} `json:"producer_artists"`
			} `json:"song"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	s := body.Response.Song
	if s.ID == 0 {
		return nil, nil
	}
	out := &Song{ID: s.ID, Title: s.Title, URL: s.URL}
	for _, p := range s.ProducerArtists {
		out.Producers = append(out.Producers, Producer{Name: p.Name, URL: p.URL})
	}
	return out, nil
}
