package job

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"mediagrab/internal/archive"
	fileutil "mediagrab/internal/file"
	"mediagrab/internal/resolver"
)

const (
	// prefixDelimiter separates the job id from the tool-templated part of
	// an artifact name. Three underscores keep it out of the way of titles.
	prefixDelimiter   = "___"
	playlistDirPrefix = "playlist_"
	playlistArchive   = "Playlist.zip"

	// AccessErrorPrefix marks authentication / bot-detection failures so
	// callers can tell them from generic download failures.
	AccessErrorPrefix = "Access Error: "

	defaultMaxConcurrent = 4
)

// ArtifactPrefix returns the filename prefix that marks artifacts of a job.
func ArtifactPrefix(id string) string { return id + prefixDelimiter }

// DisplayName derives the caller-facing filename from an artifact name by
// stripping the job-id prefix. Playlist archives get a fixed name since
// their on-disk name is entirely synthetic.
func DisplayName(filename string) string {
	if _, stripped, found := strings.Cut(filename, prefixDelimiter); found {
		return stripped
	}
	if strings.HasPrefix(filename, playlistDirPrefix) {
		return playlistArchive
	}
	return filename
}

// Options configures an Executor.
type Options struct {
	DownloadDir       string
	MaxConcurrentJobs int
}

// Executor runs one worker per submitted job. Workers are tracked in a
// WaitGroup for graceful shutdown; a semaphore caps how many downloads run
// at once without introducing any cross-job coordination.
type Executor struct {
	registry    *Registry
	media       resolver.Resolver
	downloadDir string
	semaphore   chan struct{}
	workers     sync.WaitGroup

	mu      sync.Mutex
	baseCtx context.Context
}

func NewExecutor(registry *Registry, media resolver.Resolver, opts Options) *Executor {
	if opts.MaxConcurrentJobs <= 0 {
		opts.MaxConcurrentJobs = defaultMaxConcurrent
	}
	if opts.DownloadDir == "" {
		opts.DownloadDir = "downloads"
	}
	return &Executor{
		registry:    registry,
		media:       media,
		downloadDir: opts.DownloadDir,
		semaphore:   make(chan struct{}, opts.MaxConcurrentJobs),
		baseCtx:     context.Background(),
	}
}

// SetBaseContext sets the context under which workers run their external
// tool invocations. Intended to be set at process startup and cancelled
// during shutdown.
func (e *Executor) SetBaseContext(ctx context.Context) {
	e.mu.Lock()
	e.baseCtx = ctx
	e.mu.Unlock()
}

func (e *Executor) base() context.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.baseCtx == nil {
		return context.Background()
	}
	return e.baseCtx
}

// Submit creates a job and spawns its worker, returning the job id
// immediately. Validation failures surface asynchronously through the job's
// error state, never as a submission failure.
func (e *Executor) Submit(url string, mode Mode, quality int) string {
	id := e.registry.Create(Params{URL: url, Mode: mode, Quality: quality})
	e.workers.Add(1)
	go func() {
		defer e.workers.Done()
		e.run(id)
	}()
	log.Info().Str("job_id", id).Str("mode", string(mode)).Msg("job submitted")
	return id
}

// WaitAll blocks until all in-flight workers finish or the context is done.
// Returns true if all workers finished, false if timed out.
func (e *Executor) WaitAll(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		e.workers.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// fetchPlan is the mode-specific configuration for one download run.
type fetchPlan struct {
	spec resolver.FetchSpec
	// playlistDir is set for playlist jobs: entries land there before being
	// archived into a single container.
	playlistDir string
}

func (e *Executor) plan(id string, params Params) (fetchPlan, error) {
	if !params.Mode.Valid() {
		return fetchPlan{}, NewErrUnsupportedMode(params.Mode)
	}
	if params.Mode.NeedsQuality() && params.Quality <= 0 {
		return fetchPlan{}, ErrQualityRequired
	}

	prefix := filepath.Join(e.downloadDir, ArtifactPrefix(id))
	plan := fetchPlan{spec: resolver.FetchSpec{URL: params.URL}}

	switch params.Mode {
	case ModeVideoBest:
		plan.spec.Format = "bestvideo+bestaudio/best"
		plan.spec.OutputTemplate = prefix + "%(title)s - %(height)sp.%(ext)s"
	case ModeVideoQuality:
		plan.spec.Format = fmt.Sprintf("bestvideo[height=%d]+bestaudio/best[height=%d]", params.Quality, params.Quality)
		plan.spec.OutputTemplate = fmt.Sprintf("%s%%(title)s - %dp.%%(ext)s", prefix, params.Quality)
	case ModeAudioBest:
		plan.spec.Format = "bestaudio/best"
		plan.spec.OutputTemplate = prefix + "%(title)s.%(ext)s"
		plan.spec.ExtractAudio = true
		plan.spec.AudioFormat = "mp3"
		plan.spec.AudioQuality = "320"
	case ModeAudioQuality:
		plan.spec.Format = fmt.Sprintf("bestaudio[abr<=%d]/bestaudio/best", params.Quality)
		plan.spec.OutputTemplate = fmt.Sprintf("%s%%(title)s - %dkbps.%%(ext)s", prefix, params.Quality)
		plan.spec.ExtractAudio = true
		plan.spec.AudioFormat = "mp3"
		plan.spec.AudioQuality = strconv.Itoa(params.Quality)
	case ModePlaylist:
		plan.playlistDir = filepath.Join(e.downloadDir, playlistDirPrefix+id)
		plan.spec.OutputTemplate = filepath.Join(plan.playlistDir, "%(playlist_index)s - %(title)s.%(ext)s")
		plan.spec.Format = "bestaudio/best"
		plan.spec.AllowPlaylist = true
		plan.spec.ExtractAudio = true
		plan.spec.AudioFormat = "mp3"
		plan.spec.AudioQuality = "192"
	}
	return plan, nil
}

func (e *Executor) run(id string) {
	e.semaphore <- struct{}{}
	defer func() { <-e.semaphore }()

	params, found := e.registry.Params(id)
	if !found {
		return
	}

	plan, err := e.plan(id, params)
	if err != nil {
		e.fail(id, "", err)
		return
	}
	if err := fileutil.EnsureDir(e.downloadDir); err != nil {
		e.fail(id, "", err)
		return
	}
	if plan.playlistDir != "" {
		if err := fileutil.EnsureDir(plan.playlistDir); err != nil {
			e.fail(id, "", err)
			return
		}
	}

	if err := e.media.Fetch(e.base(), plan.spec, e.progressFor(id)); err != nil {
		e.fail(id, plan.playlistDir, err)
		return
	}

	artifactPath, err := e.materialize(id, plan)
	if err != nil {
		e.fail(id, plan.playlistDir, err)
		return
	}

	e.registry.Update(id, State{
		Status:   StatusComplete,
		Percent:  100,
		Message:  "Download complete!",
		Filepath: artifactPath,
	})
	log.Info().Str("job_id", id).Str("path", artifactPath).Msg("job complete")
}

// progressFor relays resolver byte-progress into the registry. Each event
// replaces the whole state record for the job.
func (e *Executor) progressFor(id string) resolver.ProgressFunc {
	return func(event resolver.ProgressEvent) {
		switch event.Status {
		case "downloading":
			percent := 0.0
			if total := event.Total(); total > 0 {
				percent = float64(event.DownloadedBytes) / float64(total) * 100
			}
			e.registry.Update(id, State{
				Status:  StatusDownloading,
				Percent: math.Round(percent*10) / 10,
				Speed:   event.Speed,
				ETA:     event.ETA,
			})
		case "finished":
			e.registry.Update(id, State{
				Status:  StatusProcessing,
				Percent: 100,
				Message: "Processing file...",
			})
		}
	}
}

// materialize locates (or assembles) the job's single artifact after the
// external tool finished. Playlist directories are archived store-only and
// removed; single files are found by their id prefix since the tool expands
// the rest of the name from its own template.
func (e *Executor) materialize(id string, plan fetchPlan) (string, error) {
	if plan.playlistDir != "" {
		zipPath := plan.playlistDir + ".zip"
		if err := archive.BuildFromDir(zipPath, plan.playlistDir); err != nil {
			return "", fmt.Errorf("archive playlist: %w", err)
		}
		if err := fileutil.RemoveTree(plan.playlistDir); err != nil {
			// the archive is intact; leftover raw files age out via the sweeper
			log.Warn().Err(err).Str("job_id", id).Str("dir", plan.playlistDir).Msg("could not delete playlist directory")
		}
		return zipPath, nil
	}
	if artifactPath, found := fileutil.FindByPrefix(e.downloadDir, ArtifactPrefix(id)); found {
		return artifactPath, nil
	}
	return "", ErrArtifactMissing
}

// fail transitions the job to its terminal error state and cleans up any
// partially-written playlist directory.
func (e *Executor) fail(id, playlistDir string, err error) {
	if playlistDir != "" {
		if rmErr := fileutil.RemoveTree(playlistDir); rmErr != nil {
			log.Warn().Err(rmErr).Str("job_id", id).Str("dir", playlistDir).Msg("cleanup of partial playlist failed")
		}
	}
	message := err.Error()
	if isAccessError(err) {
		message = AccessErrorPrefix + message
	}
	e.registry.Update(id, State{Status: StatusError, Message: message})
	log.Error().Str("job_id", id).Err(err).Msg("job failed")
}

// isAccessError recognizes authentication / bot-detection failures in the
// external tool's output. No automatic retry is attempted; the caller's
// recourse is resubmission.
func isAccessError(err error) bool {
	text := err.Error()
	return strings.Contains(text, "403") || strings.Contains(text, "Sign in")
}
