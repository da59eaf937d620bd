package api

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gin-contrib/sse"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	fileutil "mediagrab/internal/file"
	"mediagrab/internal/job"
	"mediagrab/internal/resolver"
	"mediagrab/internal/sweeper"
)

const artifactChunkSize = 8 * 1024

type infoRequest struct {
	URL string `json:"url"`
}

type downloadRequest struct {
	URL     string `json:"url"`
	Mode    string `json:"mode"`
	Quality int    `json:"quality"`
}

type videoInfoResponse struct {
	Title          string                  `json:"title"`
	Thumbnail      string                  `json:"thumbnail"`
	Duration       float64                 `json:"duration"`
	Channel        string                  `json:"channel"`
	IsPlaylist     bool                    `json:"is_playlist"`
	VideoQualities []resolver.VideoQuality `json:"video_qualities"`
	AudioQualities []resolver.AudioQuality `json:"audio_qualities"`
}

type playlistInfoResponse struct {
	Title      string `json:"title"`
	IsPlaylist bool   `json:"is_playlist"`
	Count      int    `json:"count"`
	Thumbnail  string `json:"thumbnail"`
}

type downloadResponse struct {
	DownloadID string `json:"download_id"`
}

// API wires the HTTP surface to the job registry, executor, resolver and
// sweeper. All collaborators are passed in; nothing here owns global state.
type API struct {
	registry         *job.Registry
	executor         *job.Executor
	media            resolver.Resolver
	sweeper          *sweeper.Sweeper
	progressInterval time.Duration
}

func New(registry *job.Registry, executor *job.Executor, media resolver.Resolver, sw *sweeper.Sweeper, progressInterval time.Duration) *API {
	if progressInterval <= 0 {
		progressInterval = 500 * time.Millisecond
	}
	return &API{
		registry:         registry,
		executor:         executor,
		media:            media,
		sweeper:          sw,
		progressInterval: progressInterval,
	}
}

// RegisterRoutes registers API routes on the provided gin engine.
func (a *API) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		api.POST("/info", a.Info)
		api.POST("/download", a.Download)
		api.GET("/progress/:id", a.Progress)
		api.GET("/download_file/:id", a.DownloadFile)
	}
}

// Info resolves metadata and available quality variants for a URL without
// starting a download.
func (a *API) Info(c *gin.Context) {
	var req infoRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no url provided"})
		return
	}

	metadata, err := a.media.Resolve(c.Request.Context(), req.URL)
	if err != nil {
		log.Warn().Str("url", req.URL).Err(err).Msg("metadata resolution failed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not fetch video info"})
		return
	}

	title := metadata.Title
	if title == "" {
		title = "Unknown"
	}

	if metadata.IsPlaylist() {
		c.JSON(http.StatusOK, playlistInfoResponse{
			Title:      title,
			IsPlaylist: true,
			Count:      len(metadata.Entries),
			Thumbnail:  metadata.BestThumbnail(),
		})
		return
	}

	videoQualities, audioQualities := resolver.ExtractQualities(metadata.Formats)
	c.JSON(http.StatusOK, videoInfoResponse{
		Title:          title,
		Thumbnail:      metadata.BestThumbnail(),
		Duration:       metadata.Duration,
		Channel:        metadata.ChannelName(),
		IsPlaylist:     false,
		VideoQualities: videoQualities,
		AudioQualities: audioQualities,
	})
}

// Download submits a job and returns its id immediately. Only URL presence
// is validated here; mode/quality problems surface through the job's error
// state. Each submission also triggers a best-effort retention sweep.
func (a *API) Download(c *gin.Context) {
	a.sweeper.Sweep()

	var req downloadRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.URL) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no url provided"})
		return
	}
	mode := job.Mode(req.Mode)
	if req.Mode == "" {
		mode = job.ModeVideoBest
	}

	id := a.executor.Submit(req.URL, mode, req.Quality)
	c.JSON(http.StatusOK, downloadResponse{DownloadID: id})
}

// Progress streams the job's state as server-sent events until it reaches a
// terminal status. Unknown ids (not yet created, or already reaped) produce
// "waiting" placeholders instead of an error. The stream wakes on registry
// pushes, with a ticker as heartbeat fallback.
func (a *API) Progress(c *gin.Context) {
	id := c.Param("id")

	c.Header("Content-Type", sse.ContentType)
	c.Header("Cache-Control", "no-cache")

	ticker := time.NewTicker(a.progressInterval)
	defer ticker.Stop()

	for {
		state, known := a.registry.Get(id)
		var payload any = state
		if !known {
			payload = gin.H{"status": "waiting", "percent": 0}
		}
		if err := sse.Encode(c.Writer, sse.Event{Data: payload}); err != nil {
			return
		}
		c.Writer.Flush()

		if known && state.Status.Terminal() {
			return
		}

		select {
		case <-c.Request.Context().Done():
			return
		case <-a.registry.Watch(id):
		case <-ticker.C:
		}
	}
}

// DownloadFile streams a completed job's artifact in fixed-size chunks, then
// deletes the artifact and the job record. This is the intended reclamation
// path; uncollected jobs fall back to the retention sweeper.
func (a *API) DownloadFile(c *gin.Context) {
	id := c.Param("id")

	state, found := a.registry.Get(id)
	if !found || state.Status != job.StatusComplete || state.Filepath == "" {
		c.String(http.StatusNotFound, "File not found or download not complete")
		return
	}
	info, err := os.Stat(state.Filepath)
	if err != nil {
		c.String(http.StatusNotFound, "File not found or download not complete")
		return
	}

	displayName := job.DisplayName(filepath.Base(state.Filepath))
	c.Header("Content-Disposition", contentDisposition(displayName))
	c.Header("Content-Type", detectContentType(state.Filepath))
	c.Header("Content-Length", strconv.FormatInt(info.Size(), 10))
	c.Status(http.StatusOK)

	a.streamAndReclaim(c, id, state.Filepath)
}

func (a *API) streamAndReclaim(c *gin.Context, id, artifactPath string) {
	artifact, err := os.Open(artifactPath) //nolint:gosec // path recorded by our own executor
	if err != nil {
		log.Warn().Err(err).Str("job_id", id).Msg("artifact vanished before streaming")
		return
	}

	buffer := make([]byte, artifactChunkSize)
	_, copyErr := io.CopyBuffer(c.Writer, artifact, buffer)
	_ = artifact.Close()
	if copyErr != nil {
		log.Warn().Err(copyErr).Str("job_id", id).Msg("artifact stream interrupted")
	}

	// reclaim regardless of how the stream ended; the sweeper may have
	// raced us and that is fine
	if err := fileutil.RemoveTree(artifactPath); err != nil {
		log.Warn().Err(err).Str("path", artifactPath).Msg("artifact cleanup failed")
	}
	a.registry.Remove(id)
	log.Info().Str("job_id", id).Str("path", artifactPath).Msg("artifact delivered and reclaimed")
}

// contentDisposition builds an attachment header with an ASCII fallback name
// and an RFC 5987 UTF-8 extended name.
func contentDisposition(displayName string) string {
	fallback := asciiFallback(displayName)
	return fmt.Sprintf("attachment; filename=%q; filename*=UTF-8''%s", fallback, url.PathEscape(displayName))
}

func asciiFallback(name string) string {
	var builder strings.Builder
	for _, r := range name {
		if r >= 32 && r < 127 && r != '"' && r != '\\' {
			builder.WriteRune(r)
		}
	}
	fallback := strings.TrimSpace(builder.String())
	if fallback == "" {
		return "download"
	}
	return fallback
}

func detectContentType(path string) string {
	if detected, err := mimetype.DetectFile(path); err == nil {
		return detected.String()
	}
	if strings.HasSuffix(path, ".zip") {
		return "application/zip"
	}
	return "application/octet-stream"
}
