package geniusapi

import (
	"context"
	"fmt"
	"net/url"
)

// Album is a matched album from the web search endpoint.
type Album struct {
	ID     int
	Name   string
	Artist string
	URL    string
}

// Track is one entry of an album's track listing, in listing order.
type Track struct {
	Number int
	Title  string
}

// SearchAlbum resolves a free-text query to the top album hit.
// Returns (nil, nil) when Genius has no match.
func (c *Client) SearchAlbum(ctx context.Context, query string) (*Album, error) {
	if query == "" {
		return nil, fmt.Errorf("query empty")
	}
	u := fmt.Sprintf("%s/search/album?q=%s", c.webBase(), url.QueryEscape(query))
	var body struct {
		Response struct {
			Sections []struct {
				Type string `json:"type"`
				Hits []struct {
					Result struct {
						ID     int    `json:"id"`
						Name   string `json:"name"`
						URL    string `json:"url"`
						Artist struct {
							Name string `json:"name"`
						} `json:"artist"`
					} `json:"result"`
				} `json:"hits"`
			} `json:"sections"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	for _, sec := range body.Response.Sections {
		if sec.Type != "album" || len(sec.Hits) == 0 {
			continue
		}
		r := sec.Hits[0].Result
		return &Album{ID: r.ID, Name: r.Name, Artist: r.Artist.Name, URL: r.URL}, nil
	}
	return nil, nil
}

// AlbumTracks lists an album's tracks in listing order.
func (c *Client) AlbumTracks(ctx context.Context, albumID int) ([]Track, error) {
	if albumID <= 0 {
		return nil, fmt.Errorf("albumID invalid")
	}
	u := fmt.Sprintf("%s/albums/%d/tracks", c.webBase(), albumID)
	var body struct {
		Response struct {
			Tracks []struct {
				Number int `json:"number"`
				Song   struct {
					Title string `json:"title"`
				} `json:"song"`
			} `json:"tracks"`
		} `json:"response"`
	}
	if err := c.getJSON(ctx, u, &body); err != nil {
		return nil, err
	}
	out := make([]Track, 0, len(body.Response.Tracks))
	for _, t := range body.Response.Tracks {
		out = append(out, Track{Number: t.Number, Title: t.Song.Title})
	}
	return out, nil
}
