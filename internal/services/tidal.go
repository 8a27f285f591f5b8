// Tidal API implementation of [Provider]
//
// Uses the OAuth2 client-credentials flow; search response types follow
// https://developer.tidal.com/documentation
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	tidalTokenURL = "https://auth.tidal.com/v1/oauth2/token"
	tidalBaseURL  = "https://openapi.tidal.com"

	defaultRateLimit  = 5.0
	searchResultLimit = 10
)

// TidalArtist represents an artist in Tidal search responses.
type TidalArtist struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// TidalAlbum represents an album in Tidal search responses.
type TidalAlbum struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

// TidalSearchTrack represents a track in Tidal search responses.
type TidalSearchTrack struct {
	ID       int           `json:"id"`
	Title    string        `json:"title"`
	Duration int           `json:"duration"` // seconds
	ISRC     string        `json:"isrc"`
	Artists  []TidalArtist `json:"artists"`
	Album    TidalAlbum    `json:"album"`
}

type tidalSearchResponse struct {
	Tracks struct {
		Items []TidalSearchTrack `json:"items"`
	} `json:"tracks"`
}

// TidalClient implements [Provider] against the Tidal open API.
type TidalClient struct {
	baseURL     string
	countryCode string
	httpClient  *http.Client
	limiter     *rate.Limiter
}

// NewTidalClient creates a Tidal client using the client-credentials flow.
//
// ctx is used for token refresh requests for the lifetime of the client.
// rps bounds outgoing search requests; zero or negative selects the default.
func NewTidalClient(ctx context.Context, clientID, clientSecret string, rps float64) (*TidalClient, error) {
	if clientID == "" || clientSecret == "" {
		return nil, fmt.Errorf("%w: tidal client id and secret are required", shared.ErrMissingCredentials)
	}
	if rps <= 0 {
		rps = defaultRateLimit
	}

	conf := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tidalTokenURL,
	}

	return &TidalClient{
		baseURL:     tidalBaseURL,
		countryCode: "US",
		httpClient:  conf.Client(ctx),
		limiter:     rate.NewLimiter(rate.Limit(rps), 1),
	}, nil
}

// Name returns the provider name.
func (c *TidalClient) Name() string {
	return "Tidal"
}

// FindMatchesForBatch searches Tidal for each item and picks the best
// candidate per slot. The result slice is aligned with items; transport
// failures abort the call and degrade the whole chunk at the caller.
func (c *TidalClient) FindMatchesForBatch(ctx context.Context, items []models.Metadata) ([]*models.Match, error) {
	matches := make([]*models.Match, len(items))

	for i, item := range items {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: rate limiter: %v", shared.ErrProviderRequest, err)
		}

		candidates, err := c.search(ctx, item)
		if err != nil {
			return nil, err
		}

		matches[i] = bestCandidate(item, candidates)
	}

	return matches, nil
}

// search runs one track search and converts the payload to candidates.
func (c *TidalClient) search(ctx context.Context, item models.Metadata) ([]models.Match, error) {
	query := url.Values{}
	query.Set("query", item.Artist+" "+item.Title)
	query.Set("type", "TRACKS")
	query.Set("limit", strconv.Itoa(searchResultLimit))
	query.Set("countryCode", c.countryCode)

	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to build request: %v", shared.ErrProviderRequest, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: tidal search: %v", shared.ErrProviderRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: tidal search returned status %d", shared.ErrProviderRequest, resp.StatusCode)
	}

	var payload tidalSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: failed to decode search response: %v", shared.ErrProviderRequest, err)
	}

	candidates := make([]models.Match, 0, len(payload.Tracks.Items))
	for _, track := range payload.Tracks.Items {
		artist := ""
		if len(track.Artists) > 0 {
			artist = track.Artists[0].Name
		}
		candidates = append(candidates, models.Match{
			ProviderID: strconv.Itoa(track.ID),
			Title:      track.Title,
			Artist:     artist,
			Album:      track.Album.Title,
			Duration:   track.Duration,
			ISRC:       track.ISRC,
		})
	}

	return candidates, nil
}
