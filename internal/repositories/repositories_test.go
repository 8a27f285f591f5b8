package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestLocalTrackRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("Create and Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalTrackRepository(db)
		track := &models.LocalTrack{Title: "Song X", ArtistName: "Artist A", AlbumTitle: "Album Y", Duration: 200, FilePath: "/music/a/x.flac"}

		if err := repo.Create(ctx, track); err != nil {
			t.Fatalf("failed to create track: %v", err)
		}
		if track.ID == "" {
			t.Fatal("track ID should be set after creation")
		}

		got, err := repo.Get(ctx, track.ID)
		if err != nil {
			t.Fatalf("failed to get track: %v", err)
		}
		if got.Title != "Song X" || got.ArtistName != "Artist A" {
			t.Errorf("unexpected track: %+v", got)
		}
	})

	t.Run("ListAll", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLocalTrackRepository(db)
		for _, title := range []string{"One", "Two", "Three"} {
			if err := repo.Create(ctx, &models.LocalTrack{Title: title, FilePath: "/music/" + title}); err != nil {
				t.Fatalf("failed to create track: %v", err)
			}
		}

		tracks, err := repo.ListAll(ctx)
		if err != nil {
			t.Fatalf("failed to list tracks: %v", err)
		}
		if len(tracks) != 3 {
			t.Errorf("expected 3 tracks, got %d", len(tracks))
		}
	})
}

func TestTidalTrackRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := NewTidalTrackRepository(db)

	first, err := repo.Upsert(ctx, &models.TidalTrack{TidalID: "12345", Title: "Song X", Artist: "Artist A", Duration: 200})
	if err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	t.Run("converges on the provider-native id", func(t *testing.T) {
		second, err := repo.Upsert(ctx, &models.TidalTrack{TidalID: "12345", Title: "Song X (2011 Remaster)", Artist: "Artist A", Duration: 201, ISRC: "USX123"})
		if err != nil {
			t.Fatalf("failed to upsert duplicate: %v", err)
		}

		if second.ID != first.ID {
			t.Errorf("expected one converged row, got ids %s and %s", first.ID, second.ID)
		}
		if second.Title != "Song X (2011 Remaster)" {
			t.Errorf("expected metadata refresh, got title %q", second.Title)
		}
		if second.ISRC != "USX123" {
			t.Errorf("expected refreshed isrc, got %q", second.ISRC)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM tidal_tracks WHERE tidal_id = '12345'").Scan(&count); err != nil {
			t.Fatalf("count query failed: %v", err)
		}
		if count != 1 {
			t.Errorf("expected 1 row, got %d", count)
		}
	})

	t.Run("rejects empty provider id", func(t *testing.T) {
		if _, err := repo.Upsert(ctx, &models.TidalTrack{Title: "No ID"}); err == nil {
			t.Error("expected error for empty tidal id")
		}
	})
}

func TestYouTubeTrackRepositoryUpsert(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	defer db.Close()

	repo := NewYouTubeTrackRepository(db)

	first, err := repo.Upsert(ctx, &models.YouTubeTrack{VideoID: "vid001", Title: "Song X"})
	if err != nil {
		t.Fatalf("failed to upsert: %v", err)
	}

	second, err := repo.Upsert(ctx, &models.YouTubeTrack{VideoID: "vid001", Title: "Song X", Artist: "Artist A"})
	if err != nil {
		t.Fatalf("failed to upsert duplicate: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected one converged row, got ids %s and %s", first.ID, second.ID)
	}
	if second.Artist != "Artist A" {
		t.Errorf("expected refreshed artist, got %q", second.Artist)
	}
}

func TestLinkageRepository(t *testing.T) {
	ctx := context.Background()

	seedTidal := func(t *testing.T, db *sql.DB, tidalID string) *models.TidalTrack {
		t.Helper()
		row, err := NewTidalTrackRepository(db).Upsert(ctx, &models.TidalTrack{TidalID: tidalID, Title: "Song " + tidalID})
		if err != nil {
			t.Fatalf("failed to seed tidal track: %v", err)
		}
		return row
	}

	t.Run("Insert assigns id and creation time", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkageRepository(db)
		row := seedTidal(t, db, "t1")

		l := &models.Linkage{TidalTrackID: &row.ID, Confidence: 0.85, Source: models.SourceImportMatch}
		if err := repo.Insert(ctx, db, l); err != nil {
			t.Fatalf("failed to insert linkage: %v", err)
		}
		if l.ID == 0 {
			t.Error("expected generated linkage id")
		}
		if l.CreatedAt.IsZero() {
			t.Error("expected creation time to be set")
		}
	})

	t.Run("Insert rejects orphan tuple", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkageRepository(db)
		err := repo.Insert(ctx, db, &models.Linkage{Confidence: 0.5, Source: models.SourceManual})
		if err == nil {
			t.Fatal("expected orphan linkage to be rejected")
		}
	})

	t.Run("ActiveByTuple matches null slots", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkageRepository(db)
		row := seedTidal(t, db, "t1")
		other := seedTidal(t, db, "t2")

		for _, id := range []string{row.ID, row.ID, other.ID} {
			rowID := id
			if err := repo.Insert(ctx, db, &models.Linkage{TidalTrackID: &rowID, Confidence: 0.5, Source: models.SourceImportMatch}); err != nil {
				t.Fatalf("failed to insert linkage: %v", err)
			}
		}

		group, err := repo.ActiveByTuple(ctx, db, models.LinkageTuple{TidalTrackID: &row.ID})
		if err != nil {
			t.Fatalf("failed to query tuple group: %v", err)
		}
		if len(group) != 2 {
			t.Errorf("expected 2 rows in tuple group, got %d", len(group))
		}
	})

	t.Run("MarkStale hides rows from tuple queries", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkageRepository(db)
		row := seedTidal(t, db, "t1")

		l := &models.Linkage{TidalTrackID: &row.ID, Confidence: 0.5, Source: models.SourceImportMatch}
		if err := repo.Insert(ctx, db, l); err != nil {
			t.Fatalf("failed to insert linkage: %v", err)
		}
		if err := repo.MarkStale(ctx, db, l.ID); err != nil {
			t.Fatalf("failed to mark stale: %v", err)
		}

		group, err := repo.ActiveByTuple(ctx, db, models.LinkageTuple{TidalTrackID: &row.ID})
		if err != nil {
			t.Fatalf("failed to query tuple group: %v", err)
		}
		if len(group) != 0 {
			t.Errorf("expected empty group after staling, got %d rows", len(group))
		}

		got, err := repo.Get(ctx, db, l.ID)
		if err != nil {
			t.Fatalf("failed to get stale row: %v", err)
		}
		if !got.Stale {
			t.Error("expected row to remain, tombstoned")
		}
	})

	t.Run("ListUnanchored joins provider metadata", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkageRepository(db)
		row := seedTidal(t, db, "t1")

		if err := repo.Insert(ctx, db, &models.Linkage{TidalTrackID: &row.ID, Confidence: 0.6, Source: models.SourceImportMatch}); err != nil {
			t.Fatalf("failed to insert linkage: %v", err)
		}

		// Anchored rows must not appear.
		locals := NewLocalTrackRepository(db)
		local := &models.LocalTrack{Title: "Song X", FilePath: "/music/x"}
		if err := locals.Create(ctx, local); err != nil {
			t.Fatalf("failed to create local track: %v", err)
		}
		if err := repo.Insert(ctx, db, &models.Linkage{LocalTrackID: &local.ID, Confidence: 1, Source: models.SourceManual}); err != nil {
			t.Fatalf("failed to insert anchored linkage: %v", err)
		}

		page, err := repo.ListUnanchored(ctx, 10)
		if err != nil {
			t.Fatalf("failed to list unanchored: %v", err)
		}
		if len(page) != 1 {
			t.Fatalf("expected 1 unanchored row, got %d", len(page))
		}
		if page[0].Tidal == nil || page[0].Tidal.TidalID != "t1" {
			t.Errorf("expected joined tidal metadata, got %+v", page[0].Tidal)
		}
		if page[0].Local != nil {
			t.Error("unanchored row should have no local metadata")
		}
	})

	t.Run("ActiveForAlbum", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLinkageRepository(db)
		locals := NewLocalTrackRepository(db)

		local := &models.LocalTrack{Title: "Song X", AlbumTitle: "Album Y", FilePath: "/music/x"}
		if err := locals.Create(ctx, local); err != nil {
			t.Fatalf("failed to create local track: %v", err)
		}
		if err := repo.Insert(ctx, db, &models.Linkage{LocalTrackID: &local.ID, Confidence: 0.9, Source: models.SourceImportMatch}); err != nil {
			t.Fatalf("failed to insert linkage: %v", err)
		}

		linkages, err := repo.ActiveForAlbum(ctx, "Album Y")
		if err != nil {
			t.Fatalf("failed to query album linkages: %v", err)
		}
		if len(linkages) != 1 {
			t.Errorf("expected 1 linkage for album, got %d", len(linkages))
		}

		none, err := repo.ActiveForAlbum(ctx, "Other Album")
		if err != nil {
			t.Fatalf("failed to query album linkages: %v", err)
		}
		if len(none) != 0 {
			t.Errorf("expected no linkages for other album, got %d", len(none))
		}
	})
}
