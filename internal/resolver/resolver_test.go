package resolver

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/rowanvale/tracklink/internal/matching"
	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/repositories"
	"github.com/rowanvale/tracklink/internal/shared"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// fakeProvider answers batches from a canned function and records every item
// it was asked about.
type fakeProvider struct {
	name string
	fn   func(items []models.Metadata) ([]*models.Match, error)

	mu   sync.Mutex
	seen []models.Metadata
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) FindMatchesForBatch(_ context.Context, items []models.Metadata) ([]*models.Match, error) {
	f.mu.Lock()
	f.seen = append(f.seen, items...)
	f.mu.Unlock()
	return f.fn(items)
}

func (f *fakeProvider) sawTitle(title string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.seen {
		if item.Title == title {
			return true
		}
	}
	return false
}

// matchAll returns a provider that answers every slot with a fixed-score hit.
func matchAll(name, idPrefix string, score int) *fakeProvider {
	return &fakeProvider{
		name: name,
		fn: func(items []models.Metadata) ([]*models.Match, error) {
			matches := make([]*models.Match, len(items))
			for i, item := range items {
				matches[i] = &models.Match{
					ProviderID: idPrefix + item.Title,
					Title:      item.Title,
					Artist:     item.Artist,
					Score:      score,
				}
			}
			return matches, nil
		},
	}
}

// matchNone returns a provider that finds nothing.
func matchNone(name string) *fakeProvider {
	return &fakeProvider{
		name: name,
		fn: func(items []models.Metadata) ([]*models.Match, error) {
			return make([]*models.Match, len(items)), nil
		},
	}
}

type failingLibrary struct{}

func (failingLibrary) ListAll(context.Context) ([]models.LocalTrack, error) {
	return nil, shared.ErrStoreRead
}

func seedLibrary(t *testing.T, db *sql.DB, tracks ...models.LocalTrack) {
	t.Helper()
	repo := repositories.NewLocalTrackRepository(db)
	for i := range tracks {
		if err := repo.Create(context.Background(), &tracks[i]); err != nil {
			t.Fatalf("failed to seed library: %v", err)
		}
	}
}

func TestResolveBatchLocal(t *testing.T) {
	ctx := context.Background()

	t.Run("exact local match resolves with full confidence", func(t *testing.T) {
		db := setupTestDB(t)
		seedLibrary(t, db,
			models.LocalTrack{Title: "Song X", ArtistName: "Artist A", FilePath: "/music/x"},
			models.LocalTrack{Title: "Song Y", ArtistName: "Artist B", FilePath: "/music/y"},
		)

		tidal := matchNone("Tidal")
		pipeline := NewPipeline(
			repositories.NewLocalTrackRepository(db), matching.NewMatcher(0, 0),
			tidal, repositories.NewTidalTrackRepository(db), nil, nil, Options{}, nil,
		)

		results := pipeline.ResolveBatch(ctx, []models.Metadata{
			{Artist: "Artist A", Title: "Song X"},
			{Artist: "Unknown", Title: "Not In Library"},
		})

		if len(results) != 2 {
			t.Fatalf("expected 2 results, got %d", len(results))
		}
		if results[0].Source != models.ResolvedLocal {
			t.Errorf("expected local source, got %s", results[0].Source)
		}
		if results[0].Confidence != 100 {
			t.Errorf("expected confidence 100, got %d", results[0].Confidence)
		}
		if results[0].LocalTrackID == "" {
			t.Error("expected a local track id")
		}
		if results[1].Source != models.ResolvedUnresolved {
			t.Errorf("expected unresolved, got %s", results[1].Source)
		}

		// Resolved inputs never reach providers.
		if tidal.sawTitle("Song X") {
			t.Error("locally resolved input was routed to a provider")
		}
		if !tidal.sawTitle("Not In Library") {
			t.Error("unresolved input never reached the provider")
		}
	})

	t.Run("annotated title still hits the exact library row", func(t *testing.T) {
		db := setupTestDB(t)
		seedLibrary(t, db, models.LocalTrack{Title: "Song X", ArtistName: "Artist A", FilePath: "/music/x"})

		tidal := matchNone("Tidal")
		pipeline := NewPipeline(
			repositories.NewLocalTrackRepository(db), matching.NewMatcher(0, 0),
			tidal, repositories.NewTidalTrackRepository(db), nil, nil, Options{}, nil,
		)

		results := pipeline.ResolveBatch(ctx, []models.Metadata{
			{Artist: "Artist A", Title: "Song X (2011 Remaster)"},
		})

		if results[0].Source != models.ResolvedLocal {
			t.Fatalf("expected local source, got %s", results[0].Source)
		}
		if results[0].Confidence != 100 {
			t.Errorf("expected confidence 100, got %d", results[0].Confidence)
		}
		if tidal.sawTitle("Song X (2011 Remaster)") {
			t.Error("locally resolved input was routed to a provider")
		}
	})

	t.Run("duplicate local claims drop out of routing", func(t *testing.T) {
		db := setupTestDB(t)
		seedLibrary(t, db, models.LocalTrack{Title: "Song X", ArtistName: "Artist A", FilePath: "/music/x"})

		tidal := matchNone("Tidal")
		pipeline := NewPipeline(
			repositories.NewLocalTrackRepository(db), matching.NewMatcher(0, 0),
			tidal, repositories.NewTidalTrackRepository(db), nil, nil, Options{}, nil,
		)

		results := pipeline.ResolveBatch(ctx, []models.Metadata{
			{Artist: "Artist A", Title: "Song X"},
			{Artist: "Artist A", Title: "Song X"},
		})

		if results[0].Source != models.ResolvedLocal {
			t.Fatalf("expected first claim to win, got %s", results[0].Source)
		}
		if !results[1].Duplicate {
			t.Fatal("expected second input to be marked duplicate")
		}
		if results[1].DuplicateOf != 0 {
			t.Errorf("expected duplicate of input 0, got %d", results[1].DuplicateOf)
		}
		if results[1].Resolved() {
			t.Error("duplicate entries stay unresolved")
		}
		if tidal.sawTitle("Song X") {
			t.Error("duplicate input must not be routed to providers")
		}
	})

	t.Run("library read failure degrades to provider routing", func(t *testing.T) {
		db := setupTestDB(t)

		tidal := matchAll("Tidal", "t-", 85)
		pipeline := NewPipeline(
			failingLibrary{}, matching.NewMatcher(0, 0),
			tidal, repositories.NewTidalTrackRepository(db), nil, nil, Options{}, nil,
		)

		results := pipeline.ResolveBatch(ctx, []models.Metadata{{Artist: "Artist A", Title: "Song X"}})
		if results[0].Source != models.ResolvedTidal {
			t.Errorf("expected provider fallback, got %s", results[0].Source)
		}
	})
}

func TestResolveBatchProviders(t *testing.T) {
	ctx := context.Background()

	t.Run("provider match is persisted and resolved", func(t *testing.T) {
		db := setupTestDB(t)

		pipeline := NewPipeline(
			repositories.NewLocalTrackRepository(db), matching.NewMatcher(0, 0),
			matchAll("Tidal", "t-", 85), repositories.NewTidalTrackRepository(db),
			nil, nil, Options{}, nil,
		)

		results := pipeline.ResolveBatch(ctx, []models.Metadata{{Artist: "Artist A", Title: "Song X"}})

		if results[0].Source != models.ResolvedTidal {
			t.Fatalf("expected tidal source, got %s", results[0].Source)
		}
		if results[0].Confidence != 85 {
			t.Errorf("expected confidence 85, got %d", results[0].Confidence)
		}
		if results[0].TidalTrackID == "" {
			t.Fatal("expected persisted tidal row id")
		}

		row, err := repositories.NewTidalTrackRepository(db).Get(ctx, results[0].TidalTrackID)
		if err != nil {
			t.Fatalf("expected cached catalog row: %v", err)
		}
		if row.TidalID != "t-Song X" {
			t.Errorf("unexpected provider-native id %q", row.TidalID)
		}
	})

	t.Run("second provider only sees what the first missed", func(t *testing.T) {
		db := setupTestDB(t)

		tidal := &fakeProvider{
			name: "Tidal",
			fn: func(items []models.Metadata) ([]*models.Match, error) {
				matches := make([]*models.Match, len(items))
				for i, item := range items {
					if item.Title == "Song X" {
						matches[i] = &models.Match{ProviderID: "t-x", Title: item.Title, Score: 90}
					}
				}
				return matches, nil
			},
		}
		youtube := matchAll("YouTube Music", "v-", 88)

		pipeline := NewPipeline(
			repositories.NewLocalTrackRepository(db), matching.NewMatcher(0, 0),
			tidal, repositories.NewTidalTrackRepository(db),
			youtube, repositories.NewYouTubeTrackRepository(db),
			Options{}, nil,
		)

		results := pipeline.ResolveBatch(ctx, []models.Metadata{
			{Title: "Song X"},
			{Title: "Song Y"},
		})

		if results[0].Source != models.ResolvedTidal {
			t.Errorf("expected tidal for slot 0, got %s", results[0].Source)
		}
		if results[1].Source != models.ResolvedYouTube {
			t.Errorf("expected youtube fallback for slot 1, got %s", results[1].Source)
		}
		if youtube.sawTitle("Song X") {
			t.Error("tidal-resolved input leaked into the youtube stage")
		}
	})

	t.Run("missing youtube client skips the stage", func(t *testing.T) {
		db := setupTestDB(t)

		pipeline := NewPipeline(
			repositories.NewLocalTrackRepository(db), matching.NewMatcher(0, 0),
			matchNone("Tidal"), repositories.NewTidalTrackRepository(db),
			nil, nil, Options{}, nil,
		)

		results := pipeline.ResolveBatch(ctx, []models.Metadata{{Title: "Song X"}})
		if results[0].Resolved() {
			t.Errorf("expected unresolved, got %s", results[0].Source)
		}
	})

	t.Run("failed chunk degrades without aborting the batch", func(t *testing.T) {
		db := setupTestDB(t)

		broken := &fakeProvider{
			name: "Tidal",
			fn: func(items []models.Metadata) ([]*models.Match, error) {
				return nil, errors.New("upstream outage")
			},
		}
		youtube := matchAll("YouTube Music", "v-", 80)

		pipeline := NewPipeline(
			repositories.NewLocalTrackRepository(db), matching.NewMatcher(0, 0),
			broken, repositories.NewTidalTrackRepository(db),
			youtube, repositories.NewYouTubeTrackRepository(db),
			Options{}, nil,
		)

		results := pipeline.ResolveBatch(ctx, []models.Metadata{{Title: "Song X"}})
		if results[0].Source != models.ResolvedYouTube {
			t.Errorf("expected youtube to pick up after tidal outage, got %s", results[0].Source)
		}
	})

	t.Run("order is preserved across chunked concurrent lookups", func(t *testing.T) {
		db := setupTestDB(t)

		titles := make([]models.Metadata, 60)
		for i := range titles {
			titles[i] = models.Metadata{Title: "Song " + string(rune('A'+i%26)) + string(rune('0'+i/26))}
		}

		pipeline := NewPipeline(
			repositories.NewLocalTrackRepository(db), matching.NewMatcher(0, 0),
			matchAll("Tidal", "t-", 85), repositories.NewTidalTrackRepository(db),
			nil, nil, Options{ChunkSize: 7, LookupWorkers: 3, UpsertWorkers: 4}, nil,
		)

		results := pipeline.ResolveBatch(ctx, titles)
		if len(results) != len(titles) {
			t.Fatalf("expected %d results, got %d", len(titles), len(results))
		}
		for i, r := range results {
			if r.Index != i {
				t.Fatalf("result %d carries index %d", i, r.Index)
			}
			if r.Source != models.ResolvedTidal {
				t.Fatalf("slot %d unresolved", i)
			}
		}
	})
}
