package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/rowanvale/tracklink/internal/linker"
	"github.com/rowanvale/tracklink/internal/matching"
	"github.com/rowanvale/tracklink/internal/repositories"
	"github.com/rowanvale/tracklink/internal/resolver"
	"github.com/rowanvale/tracklink/internal/services"
	"github.com/rowanvale/tracklink/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	db     *sql.DB
	logger *log.Logger
	output io.Writer

	locals        *repositories.LocalTrackRepository
	tidalTracks   *repositories.TidalTrackRepository
	youtubeTracks *repositories.YouTubeTrackRepository
	links         *repositories.LinkageRepository

	matcher    *matching.Matcher
	pipeline   *resolver.Pipeline
	arbitrator *linker.Arbitrator
	sweeper    *linker.Sweeper
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	DB      *sql.DB
	Tidal   services.Provider
	YouTube services.Provider
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config: opts.Config,
		db:     opts.DB,
		logger: opts.Logger,
		output: opts.Output,
	}

	r.matcher = matching.NewMatcher(opts.Config.Resolver.TitleWeight, opts.Config.Resolver.ArtistWeight)

	if opts.DB != nil {
		r.locals = repositories.NewLocalTrackRepository(opts.DB)
		r.tidalTracks = repositories.NewTidalTrackRepository(opts.DB)
		r.youtubeTracks = repositories.NewYouTubeTrackRepository(opts.DB)
		r.links = repositories.NewLinkageRepository(opts.DB)

		r.arbitrator = linker.NewArbitrator(r.links, opts.Logger)
		r.sweeper = linker.NewSweeper(r.links, r.locals, r.matcher, r.arbitrator, opts.Logger)
		r.pipeline = resolver.NewPipeline(
			r.locals, r.matcher,
			opts.Tidal, r.tidalTracks,
			opts.YouTube, r.youtubeTracks,
			resolver.Options{
				ChunkSize:     opts.Config.Resolver.ChunkSize,
				LookupWorkers: opts.Config.Resolver.LookupWorkers,
				UpsertWorkers: opts.Config.Resolver.UpsertWorkers,
			},
			opts.Logger,
		)
	}

	return r
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, resolveCommand, linkCommand, sweepCommand, serveCommand, reviewCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireDB guards command actions that need an initialized store.
func (r *Runner) requireDB() error {
	if r.db == nil {
		return fmt.Errorf("%w: database not initialized, run 'tracklink setup' first", shared.ErrMissingConfig)
	}
	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
