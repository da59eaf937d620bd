package ytdlp

import (
	"slices"
	"testing"

	"mediagrab/internal/resolver"
)

func TestBuildFetchArgsVideo(t *testing.T) {
	args := buildFetchArgs(resolver.FetchSpec{
		URL:            "https://example.org/v",
		Format:         "bestvideo+bestaudio/best",
		OutputTemplate: "downloads/id___%(title)s.%(ext)s",
	})

	if args[len(args)-1] != "https://example.org/v" {
		t.Fatalf("url must be the last argument, got %q", args[len(args)-1])
	}
	if !slices.Contains(args, "--no-playlist") {
		t.Fatalf("single-item fetch must pass --no-playlist: %v", args)
	}
	if slices.Contains(args, "-x") {
		t.Fatalf("video fetch must not extract audio: %v", args)
	}
	formatIndex := slices.Index(args, "-f")
	if formatIndex < 0 || args[formatIndex+1] != "bestvideo+bestaudio/best" {
		t.Fatalf("format selector not passed: %v", args)
	}
}

func TestBuildFetchArgsAudioExtraction(t *testing.T) {
	args := buildFetchArgs(resolver.FetchSpec{
		URL:            "https://example.org/v",
		Format:         "bestaudio/best",
		OutputTemplate: "downloads/id___%(title)s.%(ext)s",
		ExtractAudio:   true,
		AudioFormat:    "mp3",
		AudioQuality:   "320",
	})

	extractIndex := slices.Index(args, "-x")
	if extractIndex < 0 {
		t.Fatalf("expected -x flag: %v", args)
	}
	audioFormatIndex := slices.Index(args, "--audio-format")
	if audioFormatIndex < 0 || args[audioFormatIndex+1] != "mp3" {
		t.Fatalf("audio format not passed: %v", args)
	}
	audioQualityIndex := slices.Index(args, "--audio-quality")
	if audioQualityIndex < 0 || args[audioQualityIndex+1] != "320" {
		t.Fatalf("audio quality not passed: %v", args)
	}
}

func TestBuildFetchArgsPlaylist(t *testing.T) {
	args := buildFetchArgs(resolver.FetchSpec{
		URL:            "https://example.org/list",
		Format:         "bestaudio/best",
		OutputTemplate: "downloads/playlist_id/%(playlist_index)s - %(title)s.%(ext)s",
		AllowPlaylist:  true,
	})
	if !slices.Contains(args, "--yes-playlist") {
		t.Fatalf("playlist fetch must pass --yes-playlist: %v", args)
	}
	if slices.Contains(args, "--no-playlist") {
		t.Fatalf("playlist fetch must not pass --no-playlist: %v", args)
	}
}

func TestParseProgressLine(t *testing.T) {
	line := `progress:{"status":"downloading","downloaded_bytes":512,"total_bytes":1024,"total_bytes_estimate":0,"speed":256.5,"eta":2}`
	event, ok := parseProgressLine(line)
	if !ok {
		t.Fatalf("expected progress line to parse")
	}
	if event.Status != "downloading" {
		t.Fatalf("status: got %q", event.Status)
	}
	if event.DownloadedBytes != 512 || event.TotalBytes != 1024 {
		t.Fatalf("bytes: got %d/%d", event.DownloadedBytes, event.TotalBytes)
	}
	if event.Speed != 256.5 {
		t.Fatalf("speed: got %v", event.Speed)
	}
	if event.Total() != 1024 {
		t.Fatalf("total: got %d", event.Total())
	}
}

func TestParseProgressLineFinished(t *testing.T) {
	line := `progress:{"status":"finished","downloaded_bytes":1024,"total_bytes":1024,"total_bytes_estimate":0,"speed":0,"eta":0}`
	event, ok := parseProgressLine(line)
	if !ok || event.Status != "finished" {
		t.Fatalf("expected finished event, got %+v ok=%v", event, ok)
	}
}

func TestParseProgressLineIgnoresOtherOutput(t *testing.T) {
	for _, line := range []string{
		"[download] Destination: downloads/abc___title.webm",
		"[ExtractAudio] Destination: downloads/abc___title.mp3",
		"progress:{not json",
		"",
	} {
		if _, ok := parseProgressLine(line); ok {
			t.Fatalf("line %q should not parse as progress", line)
		}
	}
}

func TestNewDefaultsBinary(t *testing.T) {
	if c := New(""); c.binary != "yt-dlp" {
		t.Fatalf("expected default binary, got %q", c.binary)
	}
	if c := New("/opt/yt-dlp"); c.binary != "/opt/yt-dlp" {
		t.Fatalf("expected explicit binary, got %q", c.binary)
	}
}
