package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/shared"
)

const linkageColumns = "id, local_track_id, tidal_track_id, youtube_track_id, confidence, source, stale, created_at"

// LinkageRepository persists linkage rows.
//
// Write operations take a [Querier] so the arbitrator can compose them into
// one transaction; no other code path writes linkage rows.
type LinkageRepository struct {
	db *sql.DB
}

// NewLinkageRepository creates a new LinkageRepository with the given database connection
func NewLinkageRepository(db *sql.DB) *LinkageRepository {
	return &LinkageRepository{db: db}
}

// DB exposes the underlying handle for transaction control.
func (r *LinkageRepository) DB() *sql.DB {
	return r.db
}

// Insert adds a new linkage row and fills in its generated id and creation time.
func (r *LinkageRepository) Insert(ctx context.Context, q Querier, l *models.Linkage) error {
	if err := l.Validate(); err != nil {
		return err
	}

	l.CreatedAt = time.Now().UTC()
	l.Stale = false

	result, err := q.ExecContext(ctx, `
		INSERT INTO linkages (local_track_id, tidal_track_id, youtube_track_id, confidence, source, stale, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?)
	`, nullableString(l.LocalTrackID), nullableString(l.TidalTrackID), nullableString(l.YouTubeTrackID),
		l.Confidence, string(l.Source), l.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: failed to insert linkage: %v", shared.ErrStoreWrite, err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("%w: failed to read linkage id: %v", shared.ErrStoreWrite, err)
	}
	l.ID = id

	return nil
}

// Update rewrites a row's tuple, confidence and source, clearing staleness.
func (r *LinkageRepository) Update(ctx context.Context, q Querier, l *models.Linkage) error {
	if err := l.Validate(); err != nil {
		return err
	}

	result, err := q.ExecContext(ctx, `
		UPDATE linkages
		SET local_track_id = ?, tidal_track_id = ?, youtube_track_id = ?, confidence = ?, source = ?, stale = 0
		WHERE id = ?
	`, nullableString(l.LocalTrackID), nullableString(l.TidalTrackID), nullableString(l.YouTubeTrackID),
		l.Confidence, string(l.Source), l.ID)
	if err != nil {
		return fmt.Errorf("%w: failed to update linkage: %v", shared.ErrStoreWrite, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: failed to get affected rows: %v", shared.ErrStoreWrite, err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: linkage %d", shared.ErrLinkageNotFound, l.ID)
	}

	l.Stale = false
	return nil
}

// MarkStale tombstones the given rows.
func (r *LinkageRepository) MarkStale(ctx context.Context, q Querier, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	if _, err := q.ExecContext(ctx, "UPDATE linkages SET stale = 1 WHERE id IN ("+placeholders+")", args...); err != nil {
		return fmt.Errorf("%w: failed to mark linkages stale: %v", shared.ErrStoreWrite, err)
	}

	return nil
}

// Get retrieves a single linkage row by id.
func (r *LinkageRepository) Get(ctx context.Context, q Querier, id int64) (*models.Linkage, error) {
	row := q.QueryRowContext(ctx, "SELECT "+linkageColumns+" FROM linkages WHERE id = ?", id)

	l, err := scanLinkage(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: linkage %d", shared.ErrLinkageNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to get linkage: %v", shared.ErrStoreRead, err)
	}

	return l, nil
}

// ActiveByTuple fetches all non-stale rows whose tuple exactly equals the
// requested tuple. IS comparison makes null slots match null slots.
func (r *LinkageRepository) ActiveByTuple(ctx context.Context, q Querier, tuple models.LinkageTuple) ([]*models.Linkage, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+linkageColumns+`
		FROM linkages
		WHERE stale = 0
		  AND local_track_id IS ?
		  AND tidal_track_id IS ?
		  AND youtube_track_id IS ?
		ORDER BY id ASC
	`, nullableString(tuple.LocalTrackID), nullableString(tuple.TidalTrackID), nullableString(tuple.YouTubeTrackID))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query tuple group: %v", shared.ErrStoreRead, err)
	}

	return collectLinkages(rows)
}

// ActiveForLocalTrack lists all non-stale rows referencing the local track.
func (r *LinkageRepository) ActiveForLocalTrack(ctx context.Context, trackID string) ([]*models.Linkage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+linkageColumns+`
		FROM linkages
		WHERE stale = 0 AND local_track_id = ?
		ORDER BY id ASC
	`, trackID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query linkages for track: %v", shared.ErrStoreRead, err)
	}

	return collectLinkages(rows)
}

// ActiveForAlbum lists all non-stale rows whose local track belongs to the
// album. The local library carries the album as a denormalized title.
func (r *LinkageRepository) ActiveForAlbum(ctx context.Context, albumTitle string) ([]*models.Linkage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.local_track_id, l.tidal_track_id, l.youtube_track_id, l.confidence, l.source, l.stale, l.created_at
		FROM linkages l
		JOIN local_tracks lt ON lt.id = l.local_track_id
		WHERE l.stale = 0 AND lt.album_title = ?
		ORDER BY l.id ASC
	`, albumTitle)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query linkages for album: %v", shared.ErrStoreRead, err)
	}

	return collectLinkages(rows)
}

// LinkageDetail is a linkage row joined with the referenced track metadata.
type LinkageDetail struct {
	Linkage models.Linkage
	Local   *models.LocalTrack
	Tidal   *models.TidalTrack
	YouTube *models.YouTubeTrack
}

// ListUnanchored returns a bounded page of active rows with no local-track
// reference, with provider metadata attached for re-matching.
func (r *LinkageRepository) ListUnanchored(ctx context.Context, limit int) ([]LinkageDetail, error) {
	return r.listDetails(ctx, "l.stale = 0 AND l.local_track_id IS NULL", nil, limit)
}

// ListActiveBelowConfidence returns a bounded page of active rows under the
// given confidence, for manual review.
func (r *LinkageRepository) ListActiveBelowConfidence(ctx context.Context, cutoff float64, limit int) ([]LinkageDetail, error) {
	return r.listDetails(ctx, "l.stale = 0 AND l.confidence < ?", []any{cutoff}, limit)
}

func (r *LinkageRepository) listDetails(ctx context.Context, where string, args []any, limit int) ([]LinkageDetail, error) {
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT l.id, l.local_track_id, l.tidal_track_id, l.youtube_track_id, l.confidence, l.source, l.stale, l.created_at,
		       lt.title, lt.artist_name, lt.album_title, lt.duration, lt.file_path,
		       tt.tidal_id, tt.title, tt.artist, tt.album, tt.duration, tt.isrc,
		       yt.video_id, yt.title, yt.artist, yt.album, yt.duration, yt.isrc
		FROM linkages l
		LEFT JOIN local_tracks lt ON lt.id = l.local_track_id
		LEFT JOIN tidal_tracks tt ON tt.id = l.tidal_track_id
		LEFT JOIN youtube_tracks yt ON yt.id = l.youtube_track_id
		WHERE `+where+`
		ORDER BY l.id ASC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query linkage details: %v", shared.ErrStoreRead, err)
	}
	defer rows.Close()

	var details []LinkageDetail
	for rows.Next() {
		var (
			d          LinkageDetail
			localID    sql.NullString
			tidalID    sql.NullString
			youtubeID  sql.NullString
			source     string
			ltTitle    sql.NullString
			ltArtist   sql.NullString
			ltAlbum    sql.NullString
			ltDuration sql.NullInt64
			ltPath     sql.NullString
			ttNative   sql.NullString
			ttTitle    sql.NullString
			ttArtist   sql.NullString
			ttAlbum    sql.NullString
			ttDuration sql.NullInt64
			ttISRC     sql.NullString
			ytNative   sql.NullString
			ytTitle    sql.NullString
			ytArtist   sql.NullString
			ytAlbum    sql.NullString
			ytDuration sql.NullInt64
			ytISRC     sql.NullString
		)

		err := rows.Scan(
			&d.Linkage.ID, &localID, &tidalID, &youtubeID, &d.Linkage.Confidence, &source, &d.Linkage.Stale, &d.Linkage.CreatedAt,
			&ltTitle, &ltArtist, &ltAlbum, &ltDuration, &ltPath,
			&ttNative, &ttTitle, &ttArtist, &ttAlbum, &ttDuration, &ttISRC,
			&ytNative, &ytTitle, &ytArtist, &ytAlbum, &ytDuration, &ytISRC,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to scan linkage detail: %v", shared.ErrStoreRead, err)
		}

		d.Linkage.LocalTrackID = stringPtr(localID)
		d.Linkage.TidalTrackID = stringPtr(tidalID)
		d.Linkage.YouTubeTrackID = stringPtr(youtubeID)
		d.Linkage.Source = models.LinkSource(source)

		if localID.Valid {
			d.Local = &models.LocalTrack{
				ID:         localID.String,
				Title:      ltTitle.String,
				ArtistName: ltArtist.String,
				AlbumTitle: ltAlbum.String,
				Duration:   int(ltDuration.Int64),
				FilePath:   ltPath.String,
			}
		}
		if tidalID.Valid {
			d.Tidal = &models.TidalTrack{
				ID:       tidalID.String,
				TidalID:  ttNative.String,
				Title:    ttTitle.String,
				Artist:   ttArtist.String,
				Album:    ttAlbum.String,
				Duration: int(ttDuration.Int64),
				ISRC:     ttISRC.String,
			}
		}
		if youtubeID.Valid {
			d.YouTube = &models.YouTubeTrack{
				ID:       youtubeID.String,
				VideoID:  ytNative.String,
				Title:    ytTitle.String,
				Artist:   ytArtist.String,
				Album:    ytAlbum.String,
				Duration: int(ytDuration.Int64),
				ISRC:     ytISRC.String,
			}
		}

		details = append(details, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStoreRead, err)
	}

	return details, nil
}

// scanLinkage scans a single [sql.Row] into a [models.Linkage].
func scanLinkage(row *sql.Row) (*models.Linkage, error) {
	var (
		l       models.Linkage
		local   sql.NullString
		tidal   sql.NullString
		youtube sql.NullString
		source  string
	)

	if err := row.Scan(&l.ID, &local, &tidal, &youtube, &l.Confidence, &source, &l.Stale, &l.CreatedAt); err != nil {
		return nil, err
	}

	l.LocalTrackID = stringPtr(local)
	l.TidalTrackID = stringPtr(tidal)
	l.YouTubeTrackID = stringPtr(youtube)
	l.Source = models.LinkSource(source)

	return &l, nil
}

// collectLinkages drains rows into linkage values.
func collectLinkages(rows *sql.Rows) ([]*models.Linkage, error) {
	defer rows.Close()

	var linkages []*models.Linkage
	for rows.Next() {
		var (
			l       models.Linkage
			local   sql.NullString
			tidal   sql.NullString
			youtube sql.NullString
			source  string
		)

		if err := rows.Scan(&l.ID, &local, &tidal, &youtube, &l.Confidence, &source, &l.Stale, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan linkage: %v", shared.ErrStoreRead, err)
		}

		l.LocalTrackID = stringPtr(local)
		l.TidalTrackID = stringPtr(tidal)
		l.YouTubeTrackID = stringPtr(youtube)
		l.Source = models.LinkSource(source)

		linkages = append(linkages, &l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrStoreRead, err)
	}

	return linkages, nil
}
