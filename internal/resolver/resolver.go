// Package resolver defines the narrow interface through which the service
// talks to an external media resolver (yt-dlp or equivalent). The service
// never parses site pages itself; it only asks the resolver for metadata and
// for downloads with byte-progress callbacks.
package resolver

import "context"

// Format is one stream variant reported by the resolver for a single video.
type Format struct {
	FormatID string  `json:"format_id"`
	Ext      string  `json:"ext"`
	Height   int     `json:"height"`
	ABR      float64 `json:"abr"`
	VCodec   string  `json:"vcodec"`
	ACodec   string  `json:"acodec"`
}

// Thumbnail is one preview image variant; resolvers list them smallest first.
type Thumbnail struct {
	URL string `json:"url"`
}

// Entry is one member of a playlist.
type Entry struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Duration float64 `json:"duration"`
}

// Metadata describes a single video or a playlist, without downloading it.
type Metadata struct {
	Title      string      `json:"title"`
	Thumbnail  string      `json:"thumbnail"`
	Thumbnails []Thumbnail `json:"thumbnails"`
	Duration   float64     `json:"duration"`
	Channel    string      `json:"channel"`
	Uploader   string      `json:"uploader"`
	Entries    []Entry     `json:"entries"`
	Formats    []Format    `json:"formats"`
}

// IsPlaylist reports whether the metadata describes a playlist.
func (m *Metadata) IsPlaylist() bool { return m.Entries != nil }

// ChannelName returns the channel, falling back to the uploader field.
func (m *Metadata) ChannelName() string {
	if m.Channel != "" {
		return m.Channel
	}
	if m.Uploader != "" {
		return m.Uploader
	}
	return "Unknown"
}

// BestThumbnail returns the thumbnail URL, preferring the largest variant of
// the thumbnails list when the direct field is empty.
func (m *Metadata) BestThumbnail() string {
	if m.Thumbnail != "" {
		return m.Thumbnail
	}
	if len(m.Thumbnails) > 0 {
		return m.Thumbnails[len(m.Thumbnails)-1].URL
	}
	return ""
}

// ProgressEvent is one byte-progress callback from a running download.
// Status is "downloading" while bytes move and "finished" once the resolver
// has written its output and only post-processing remains.
type ProgressEvent struct {
	Status             string  `json:"status"`
	DownloadedBytes    int64   `json:"downloaded_bytes"`
	TotalBytes         int64   `json:"total_bytes"`
	TotalBytesEstimate float64 `json:"total_bytes_estimate"`
	Speed              float64 `json:"speed"`
	ETA                float64 `json:"eta"`
}

// Total returns the best known total size in bytes, or 0 when unknown.
func (e ProgressEvent) Total() int64 {
	if e.TotalBytes > 0 {
		return e.TotalBytes
	}
	if e.TotalBytesEstimate > 0 {
		return int64(e.TotalBytesEstimate)
	}
	return 0
}

// ProgressFunc receives progress events during a Fetch.
type ProgressFunc func(ProgressEvent)

// FetchSpec configures a single download run.
type FetchSpec struct {
	URL            string
	Format         string // resolver format selector, e.g. "bestvideo+bestaudio/best"
	OutputTemplate string // resolver output template, absolute or relative path
	AllowPlaylist  bool
	ExtractAudio   bool
	AudioFormat    string // target codec when ExtractAudio is set, e.g. "mp3"
	AudioQuality   string // target bitrate in kbps when ExtractAudio is set
}

// Resolver locates and produces playable media from a source URL.
type Resolver interface {
	// Resolve fetches metadata without downloading.
	Resolve(ctx context.Context, url string) (*Metadata, error)
	// Fetch downloads media described by the FetchSpec, writing files under
	// its output template and reporting progress. It returns once all files (and any
	// post-processing) are written.
	Fetch(ctx context.Context, spec FetchSpec, progress ProgressFunc) error
}
