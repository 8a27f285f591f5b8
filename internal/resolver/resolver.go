// package resolver implements the batch resolution pipeline.
//
// Inbound playlist metadata is matched against the local library first, then
// routed to remote providers in priority order. The pipeline is total: every
// input produces exactly one output in input order, and failures anywhere
// degrade the affected entries to unresolved rather than aborting the batch.
package resolver

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/rowanvale/tracklink/internal/matching"
	"github.com/rowanvale/tracklink/internal/models"
	"github.com/rowanvale/tracklink/internal/services"
	"github.com/rowanvale/tracklink/internal/shared"
)

const (
	defaultChunkSize     = 25
	defaultLookupWorkers = 2
	defaultUpsertWorkers = 6
)

// LibraryStore provides the local library snapshot.
type LibraryStore interface {
	ListAll(ctx context.Context) ([]models.LocalTrack, error)
}

// TidalStore persists Tidal catalog rows found during resolution.
type TidalStore interface {
	Upsert(ctx context.Context, track *models.TidalTrack) (*models.TidalTrack, error)
}

// YouTubeStore persists YouTube Music catalog rows found during resolution.
type YouTubeStore interface {
	Upsert(ctx context.Context, track *models.YouTubeTrack) (*models.YouTubeTrack, error)
}

// Options tunes pipeline concurrency. Zero values select the defaults.
type Options struct {
	ChunkSize     int
	LookupWorkers int
	UpsertWorkers int
}

// Pipeline resolves batches of inbound metadata against the local library and
// the configured remote providers.
//
// Tidal and YouTube are optional; a nil client skips that stage. This is how
// missing credentials gate a provider off without changing pipeline shape.
type Pipeline struct {
	library LibraryStore
	matcher *matching.Matcher

	tidal        services.Provider
	tidalStore   TidalStore
	youtube      services.Provider
	youtubeStore YouTubeStore

	chunkSize     int
	lookupWorkers int
	upsertWorkers int

	logger *log.Logger
}

// NewPipeline creates a resolution pipeline.
func NewPipeline(library LibraryStore, matcher *matching.Matcher, tidal services.Provider, tidalStore TidalStore, youtube services.Provider, youtubeStore YouTubeStore, opts Options, logger *log.Logger) *Pipeline {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = defaultChunkSize
	}
	if opts.LookupWorkers <= 0 {
		opts.LookupWorkers = defaultLookupWorkers
	}
	if opts.UpsertWorkers <= 0 {
		opts.UpsertWorkers = defaultUpsertWorkers
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Pipeline{
		library:       library,
		matcher:       matcher,
		tidal:         tidal,
		tidalStore:    tidalStore,
		youtube:       youtube,
		youtubeStore:  youtubeStore,
		chunkSize:     opts.ChunkSize,
		lookupWorkers: opts.LookupWorkers,
		upsertWorkers: opts.UpsertWorkers,
		logger:        shared.WithLogger(logger, "component", "resolver"),
	}
}

// ResolveBatch resolves every input and returns one result per input, in
// input order. It never returns an error; read failures and provider outages
// degrade the affected entries to unresolved.
func (p *Pipeline) ResolveBatch(ctx context.Context, items []models.Metadata) []models.ResolvedTrack {
	results := make([]models.ResolvedTrack, len(items))
	for i := range results {
		results[i] = models.ResolvedTrack{Index: i, Source: models.ResolvedUnresolved}
	}
	if len(items) == 0 {
		return results
	}

	p.matchLocal(ctx, items, results)

	if p.tidal != nil {
		p.runProviderStage(ctx, p.tidal, stageTidal, items, results)
	}
	if p.youtube != nil {
		p.runProviderStage(ctx, p.youtube, stageYouTube, items, results)
	}

	return results
}

// matchLocal runs the local-library pass. Each library track is claimed by at
// most one input; later inputs matching an already-claimed track are marked
// as duplicates and drop out of provider routing.
func (p *Pipeline) matchLocal(ctx context.Context, items []models.Metadata, results []models.ResolvedTrack) {
	snapshot, err := p.library.ListAll(ctx)
	if err != nil {
		p.logger.Error("library snapshot failed, routing everything to providers", "error", err)
		return
	}
	if len(snapshot) == 0 {
		return
	}

	// Exact-key index for the common case: an input that normalizes to the
	// same (title, artist) key as a library row skips the full scan.
	index := make(map[string]int, len(snapshot))
	for i, track := range snapshot {
		key := matching.Key(track.Title, track.ArtistName)
		if _, ok := index[key]; !ok {
			index[key] = i
		}
	}

	claimed := make(map[string]int)

	for i, item := range items {
		var match *matching.LocalMatch
		if at, ok := index[matching.Key(item.Title, item.Artist)]; ok {
			match = &matching.LocalMatch{Track: snapshot[at], Score: 100}
		} else if scored, ok := p.matcher.Match(item, snapshot); ok {
			match = scored
		} else {
			continue
		}

		if winner, taken := claimed[match.Track.ID]; taken {
			results[i].Duplicate = true
			results[i].DuplicateOf = winner
			continue
		}

		claimed[match.Track.ID] = i
		results[i].Source = models.ResolvedLocal
		results[i].Confidence = match.Score
		results[i].LocalTrackID = match.Track.ID
	}
}

type stageKind int

const (
	stageTidal stageKind = iota
	stageYouTube
)

// matchJob carries one provider hit from a lookup worker to the upsert pool.
type matchJob struct {
	index int
	match models.Match
}

// runProviderStage routes the still-unresolved, non-duplicate inputs through
// one provider: chunked lookups feed a separate upsert pool, and each slot is
// touched by exactly one job so the workers never contend on a result entry.
func (p *Pipeline) runProviderStage(ctx context.Context, provider services.Provider, kind stageKind, items []models.Metadata, results []models.ResolvedTrack) {
	var pending []int
	for i := range results {
		if results[i].Resolved() || results[i].Duplicate {
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return
	}

	chunkCh := make(chan []int)
	jobCh := make(chan matchJob)

	var lookups sync.WaitGroup
	for w := 0; w < p.lookupWorkers; w++ {
		lookups.Add(1)
		go func() {
			defer lookups.Done()
			for chunk := range chunkCh {
				p.lookupChunk(ctx, provider, chunk, items, jobCh)
			}
		}()
	}

	var upserts sync.WaitGroup
	for w := 0; w < p.upsertWorkers; w++ {
		upserts.Add(1)
		go func() {
			defer upserts.Done()
			for job := range jobCh {
				p.persistMatch(ctx, kind, job, results)
			}
		}()
	}

	for start := 0; start < len(pending); start += p.chunkSize {
		end := start + p.chunkSize
		if end > len(pending) {
			end = len(pending)
		}
		chunkCh <- pending[start:end]
	}
	close(chunkCh)

	lookups.Wait()
	close(jobCh)
	upserts.Wait()
}

// lookupChunk queries the provider for one chunk. A failed chunk is logged
// and its slots stay unresolved; other chunks are unaffected.
func (p *Pipeline) lookupChunk(ctx context.Context, provider services.Provider, chunk []int, items []models.Metadata, jobCh chan<- matchJob) {
	batch := make([]models.Metadata, len(chunk))
	for j, idx := range chunk {
		batch[j] = items[idx]
	}

	matches, err := provider.FindMatchesForBatch(ctx, batch)
	if err != nil {
		p.logger.Warn("provider chunk failed", "provider", provider.Name(), "size", len(chunk), "error", err)
		return
	}
	if len(matches) != len(chunk) {
		p.logger.Warn("provider returned misaligned chunk", "provider", provider.Name(), "want", len(chunk), "got", len(matches))
		return
	}

	for j, match := range matches {
		if match == nil {
			continue
		}
		jobCh <- matchJob{index: chunk[j], match: *match}
	}
}

// persistMatch upserts the provider row and marks the slot resolved. A failed
// upsert leaves the slot unresolved; the catalog cache stays consistent.
func (p *Pipeline) persistMatch(ctx context.Context, kind stageKind, job matchJob, results []models.ResolvedTrack) {
	switch kind {
	case stageTidal:
		row, err := p.tidalStore.Upsert(ctx, &models.TidalTrack{
			TidalID:  job.match.ProviderID,
			Title:    job.match.Title,
			Artist:   job.match.Artist,
			Album:    job.match.Album,
			Duration: job.match.Duration,
			ISRC:     job.match.ISRC,
		})
		if err != nil {
			p.logger.Warn("tidal upsert failed", "tidal_id", job.match.ProviderID, "error", err)
			return
		}
		results[job.index].Source = models.ResolvedTidal
		results[job.index].Confidence = job.match.Score
		results[job.index].TidalTrackID = row.ID

	case stageYouTube:
		row, err := p.youtubeStore.Upsert(ctx, &models.YouTubeTrack{
			VideoID:  job.match.ProviderID,
			Title:    job.match.Title,
			Artist:   job.match.Artist,
			Album:    job.match.Album,
			Duration: job.match.Duration,
			ISRC:     job.match.ISRC,
		})
		if err != nil {
			p.logger.Warn("youtube upsert failed", "video_id", job.match.ProviderID, "error", err)
			return
		}
		results[job.index].Source = models.ResolvedYouTube
		results[job.index].Confidence = job.match.Score
		results[job.index].YouTubeTrackID = row.ID
	}
}
