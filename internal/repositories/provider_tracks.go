package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
)

// TidalTrackRepository persists cached Tidal catalog rows.
type TidalTrackRepository struct {
	db *sql.DB
}

// NewTidalTrackRepository creates a new TidalTrackRepository with the given database connection
func NewTidalTrackRepository(db *sql.DB) *TidalTrackRepository {
	return &TidalTrackRepository{db: db}
}

// Upsert inserts or refreshes the row keyed by the provider-native tidal id.
//
// Descriptive fields are last-write-wins; concurrent duplicate upserts for
// the same tidal id converge to a single row. Returns the canonical row.
func (r *TidalTrackRepository) Upsert(ctx context.Context, track *models.TidalTrack) (*models.TidalTrack, error) {
	if track.TidalID == "" {
		return nil, fmt.Errorf("%w: tidal id is required", shared.ErrInvalidInput)
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tidal_tracks (id, tidal_id, title, artist, album, duration, isrc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(tidal_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration = excluded.duration,
			isrc = excluded.isrc,
			updated_at = excluded.updated_at
	`, shared.GenerateID(), track.TidalID, track.Title, track.Artist, track.Album, track.Duration, track.ISRC, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to upsert tidal track: %v", shared.ErrStoreWrite, err)
	}

	return r.GetByTidalID(ctx, track.TidalID)
}

// GetByTidalID retrieves a row by its provider-native id.
func (r *TidalTrackRepository) GetByTidalID(ctx context.Context, tidalID string) (*models.TidalTrack, error) {
	var t models.TidalTrack
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tidal_id, title, artist, album, duration, isrc, created_at, updated_at
		FROM tidal_tracks
		WHERE tidal_id = ?
	`, tidalID).Scan(&t.ID, &t.TidalID, &t.Title, &t.Artist, &t.Album, &t.Duration, &t.ISRC, &t.CreatedAt, &t.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: tidal track %s", shared.ErrTrackNotFound, tidalID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tidal track: %v", shared.ErrStoreRead, err)
	}

	return &t, nil
}

// Get retrieves a row by its internal id.
func (r *TidalTrackRepository) Get(ctx context.Context, id string) (*models.TidalTrack, error) {
	var t models.TidalTrack
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tidal_id, title, artist, album, duration, isrc, created_at, updated_at
		FROM tidal_tracks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.TidalID, &t.Title, &t.Artist, &t.Album, &t.Duration, &t.ISRC, &t.CreatedAt, &t.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: tidal track %s", shared.ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get tidal track: %v", shared.ErrStoreRead, err)
	}

	return &t, nil
}

// YouTubeTrackRepository persists cached YouTube Music catalog rows.
type YouTubeTrackRepository struct {
	db *sql.DB
}

// NewYouTubeTrackRepository creates a new YouTubeTrackRepository with the given database connection
func NewYouTubeTrackRepository(db *sql.DB) *YouTubeTrackRepository {
	return &YouTubeTrackRepository{db: db}
}

// Upsert inserts or refreshes the row keyed by the provider-native video id.
//
// Same contract as [TidalTrackRepository.Upsert].
func (r *YouTubeTrackRepository) Upsert(ctx context.Context, track *models.YouTubeTrack) (*models.YouTubeTrack, error) {
	if track.VideoID == "" {
		return nil, fmt.Errorf("%w: video id is required", shared.ErrInvalidInput)
	}

	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO youtube_tracks (id, video_id, title, artist, album, duration, isrc, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(video_id) DO UPDATE SET
			title = excluded.title,
			artist = excluded.artist,
			album = excluded.album,
			duration = excluded.duration,
			isrc = excluded.isrc,
			updated_at = excluded.updated_at
	`, shared.GenerateID(), track.VideoID, track.Title, track.Artist, track.Album, track.Duration, track.ISRC, now, now)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to upsert youtube track: %v", shared.ErrStoreWrite, err)
	}

	return r.GetByVideoID(ctx, track.VideoID)
}

// GetByVideoID retrieves a row by its provider-native id.
func (r *YouTubeTrackRepository) GetByVideoID(ctx context.Context, videoID string) (*models.YouTubeTrack, error) {
	var t models.YouTubeTrack
	err := r.db.QueryRowContext(ctx, `
		SELECT id, video_id, title, artist, album, duration, isrc, created_at, updated_at
		FROM youtube_tracks
		WHERE video_id = ?
	`, videoID).Scan(&t.ID, &t.VideoID, &t.Title, &t.Artist, &t.Album, &t.Duration, &t.ISRC, &t.CreatedAt, &t.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: youtube track %s", shared.ErrTrackNotFound, videoID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get youtube track: %v", shared.ErrStoreRead, err)
	}

	return &t, nil
}

// Get retrieves a row by its internal id.
func (r *YouTubeTrackRepository) Get(ctx context.Context, id string) (*models.YouTubeTrack, error) {
	var t models.YouTubeTrack
	err := r.db.QueryRowContext(ctx, `
		SELECT id, video_id, title, artist, album, duration, isrc, created_at, updated_at
		FROM youtube_tracks
		WHERE id = ?
	`, id).Scan(&t.ID, &t.VideoID, &t.Title, &t.Artist, &t.Album, &t.Duration, &t.ISRC, &t.CreatedAt, &t.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: youtube track %s", shared.ErrTrackNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get youtube track: %v", shared.ErrStoreRead, err)
	}

	return &t, nil
}
