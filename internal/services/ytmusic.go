// YouTube Music [Provider] implementation
//
// Communicates with the ytmusicapi proxy server. The proxy authenticates to
// YouTube Music with the headers of a logged-in browser session, supplied as
// a parsed cURL command (see shared.ParseCurlFile).
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
	"golang.org/x/time/rate"
)

const defaultYTMBaseURL = "http://localhost:8080"

// YouTubeMusicArtist represents an artist in proxy search responses.
type YouTubeMusicArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type youtubeMusicAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// YouTubeMusicTrack represents a track/video in proxy search responses.
type YouTubeMusicTrack struct {
	VideoID     string               `json:"videoId"`
	Title       string               `json:"title"`
	Artists     []YouTubeMusicArtist `json:"artists"`
	Album       *youtubeMusicAlbum   `json:"album"`
	DurationSec int                  `json:"duration_seconds"`
	ISRC        string               `json:"isrc,omitempty"`
}

type ytmBatchSearchRequest struct {
	Items      []models.Metadata `json:"items"`
	Filter     string            `json:"filter"`
	HeadersRaw string            `json:"headers_raw,omitempty"`
}

type ytmBatchSearchResponse struct {
	Results [][]YouTubeMusicTrack `json:"results"`
}

// YouTubeMusicClient implements [Provider] against the ytmusicapi proxy.
type YouTubeMusicClient struct {
	baseURL    string
	headersRaw string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewYouTubeMusicClient creates a new YouTube Music proxy client.
//
// headers may be nil for an unauthenticated proxy; rps bounds outgoing batch
// requests, zero or negative selects the default.
func NewYouTubeMusicClient(baseURL string, headers *shared.CurlHeaders, rps float64) *YouTubeMusicClient {
	if baseURL == "" {
		baseURL = defaultYTMBaseURL
	}
	if rps <= 0 {
		rps = defaultRateLimit
	}

	headersRaw := ""
	if headers != nil {
		headersRaw = headers.ToHeadersRaw()
	}

	return &YouTubeMusicClient{
		baseURL:    baseURL,
		headersRaw: headersRaw,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// Name returns the provider name.
func (c *YouTubeMusicClient) Name() string {
	return "YouTube Music"
}

// FindMatchesForBatch sends the whole chunk to the proxy's batch search
// endpoint and picks the best candidate per slot. The result slice is
// aligned with items.
func (c *YouTubeMusicClient) FindMatchesForBatch(ctx context.Context, items []models.Metadata) ([]*models.Match, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrProviderRequest, err)
	}

	body, err := json.Marshal(ytmBatchSearchRequest{Items: items, Filter: "songs", HeadersRaw: c.headersRaw})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to encode batch request: %v", shared.ErrProviderRequest, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/search/batch", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", shared.ErrProviderRequest, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: youtube music batch search: %v", shared.ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: youtube music proxy returned status %d", shared.ErrProviderRequest, resp.StatusCode)
	}

	var payload ytmBatchSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode batch response: %v", shared.ErrProviderRequest, err)
	}

	if len(payload.Results) != len(items) {
		return nil, fmt.Errorf("%w: proxy returned %d result sets for %d items", shared.ErrProviderRequest, len(payload.Results), len(items))
	}

	matches := make([]*models.Match, len(items))
	for i, candidates := range payload.Results {
		matches[i] = bestCandidate(items[i], convertYTMTracks(candidates))
	}

	return matches, nil
}

// convertYTMTracks converts proxy payload tracks to candidates.
func convertYTMTracks(tracks []YouTubeMusicTrack) []models.Match {
	candidates := make([]models.Match, 0, len(tracks))
	for _, track := range tracks {
		artist := ""
		if len(track.Artists) > 0 {
			artist = track.Artists[0].Name
		}
		album := ""
		if track.Album != nil {
			album = track.Album.Name
		}
		candidates = append(candidates, models.Match{
			ProviderID: track.VideoID,
			Title:      track.Title,
			Artist:     artist,
			Album:      album,
			Duration:   track.DurationSec,
			ISRC:       track.ISRC,
		})
	}
	return candidates
}
