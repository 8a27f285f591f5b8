package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
)

func TestYouTubeMusicFindMatchesForBatch(t *testing.T) {
	ctx := context.Background()

	t.Run("batch request carries headers and aligns results", func(t *testing.T) {
		var received ytmBatchSearchRequest

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/search/batch" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			if r.Method != http.MethodPost {
				t.Errorf("unexpected method %s", r.Method)
			}
			if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}

			resp := ytmBatchSearchResponse{Results: make([][]YouTubeMusicTrack, len(received.Items))}
			resp.Results[0] = []YouTubeMusicTrack{{
				VideoID:     "vid001",
				Title:       "Song X",
				Artists:     []YouTubeMusicArtist{{Name: "Artist A", ID: "ch1"}},
				Album:       &youtubeMusicAlbum{Name: "Album Y", ID: "al1"},
				DurationSec: 200,
			}}
			json.NewEncoder(w).Encode(resp)
		}))
		defer server.Close()

		headers, err := shared.ParseCurlCommand([]byte(`curl 'https://music.youtube.com/' -H 'Cookie: SID=abc' -H 'X-Goog-AuthUser: 0'`))
		if err != nil {
			t.Fatalf("failed to parse curl command: %v", err)
		}

		client := NewYouTubeMusicClient(server.URL, headers, 0)
		items := []models.Metadata{
			{Artist: "Artist A", Title: "Song X"},
			{Artist: "Nobody", Title: "Nothing Here"},
		}

		matches, err := client.FindMatchesForBatch(ctx, items)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(matches) != 2 {
			t.Fatalf("expected 2 slots, got %d", len(matches))
		}
		if matches[0] == nil || matches[0].ProviderID != "vid001" {
			t.Errorf("expected vid001 in slot 0, got %+v", matches[0])
		}
		if matches[0] != nil && matches[0].Album != "Album Y" {
			t.Errorf("expected album passthrough, got %q", matches[0].Album)
		}
		if matches[1] != nil {
			t.Errorf("expected nil in slot 1, got %+v", matches[1])
		}

		if len(received.Items) != 2 {
			t.Errorf("expected 2 items in proxy request, got %d", len(received.Items))
		}
		if received.HeadersRaw == "" {
			t.Error("expected session headers to be forwarded")
		}
	})

	t.Run("misaligned proxy response is rejected", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(ytmBatchSearchResponse{Results: [][]YouTubeMusicTrack{}})
		}))
		defer server.Close()

		client := NewYouTubeMusicClient(server.URL, nil, 0)
		if _, err := client.FindMatchesForBatch(ctx, []models.Metadata{{Title: "Song X"}}); err == nil {
			t.Error("expected error for misaligned result sets")
		}
	})

	t.Run("proxy error degrades the chunk", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer server.Close()

		client := NewYouTubeMusicClient(server.URL, nil, 0)
		if _, err := client.FindMatchesForBatch(ctx, []models.Metadata{{Title: "Song X"}}); err == nil {
			t.Error("expected error for proxy failure")
		}
	})
}
