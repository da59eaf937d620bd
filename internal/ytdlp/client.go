// Package ytdlp implements resolver.Resolver by shelling out to the yt-dlp
// binary. Metadata is fetched with -J; downloads stream line-buffered
// progress back through a --progress-template that emits JSON.
package ytdlp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"

	"mediagrab/internal/resolver"
)

const defaultBinary = "yt-dlp"

// browserUserAgent masquerades as a desktop browser; datacenter IPs with the
// default yt-dlp agent trip bot detection far more often.
const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

var extraHeaders = []string{
	"Accept:text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language:en-us,en;q=0.5",
	"Sec-Fetch-Mode:navigate",
}

// progressPrefix marks progress lines on stdout so they can be told apart
// from yt-dlp's other output.
const progressPrefix = "progress:"

// progressTemplate makes yt-dlp print one JSON object per progress tick with
// the fields the executor needs. The |0 defaults keep absent fields numeric.
const progressTemplate = progressPrefix + `{"status":%(progress.status)j,` +
	`"downloaded_bytes":%(progress.downloaded_bytes|0)j,` +
	`"total_bytes":%(progress.total_bytes|0)j,` +
	`"total_bytes_estimate":%(progress.total_bytes_estimate|0)j,` +
	`"speed":%(progress.speed|0)j,` +
	`"eta":%(progress.eta|0)j}`

// Client runs the yt-dlp binary.
type Client struct {
	binary string
}

// New creates a client for the given binary path; empty means "yt-dlp" from PATH.
func New(binary string) *Client {
	if strings.TrimSpace(binary) == "" {
		binary = defaultBinary
	}
	return &Client{binary: binary}
}

// CheckBinary reports whether the configured binary is available on PATH.
func (c *Client) CheckBinary() error {
	if _, err := exec.LookPath(c.binary); err != nil {
		return fmt.Errorf("missing dependency: %s is not installed or not on PATH", c.binary)
	}
	return nil
}

// Resolve fetches metadata for a URL without downloading.
func (c *Client) Resolve(ctx context.Context, url string) (*resolver.Metadata, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("url is required")
	}

	args := commonArgs()
	args = append(args, "-J", url)

	cmd := exec.CommandContext(ctx, c.binary, args...)
	var stdout bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s failed: %w: %s", c.binary, err, strings.TrimSpace(stderr.String()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("%s returned empty output", c.binary)
	}

	var metadata resolver.Metadata
	if err := json.Unmarshal(stdout.Bytes(), &metadata); err != nil {
		return nil, fmt.Errorf("parse %s metadata: %w", c.binary, err)
	}
	return &metadata, nil
}

// Fetch downloads media according to the given FetchSpec, invoking progress
// for each reported tick.
func (c *Client) Fetch(ctx context.Context, spec resolver.FetchSpec, progress resolver.ProgressFunc) error {
	if strings.TrimSpace(spec.URL) == "" {
		return fmt.Errorf("url is required")
	}
	if strings.TrimSpace(spec.OutputTemplate) == "" {
		return fmt.Errorf("output template is required")
	}

	args := buildFetchArgs(spec)
	cmd := exec.CommandContext(ctx, c.binary, args...)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("setup stdout pipe: %w", err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", c.binary, err)
	}

	scanner := bufio.NewScanner(stdoutPipe)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		event, ok := parseProgressLine(line)
		if !ok {
			continue
		}
		if progress != nil {
			progress(event)
		}
	}
	if err := scanner.Err(); err != nil {
		log.Warn().Err(err).Msg("reading yt-dlp output interrupted")
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", c.binary, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

func commonArgs() []string {
	args := []string{
		"--no-warnings",
		"--user-agent", browserUserAgent,
		"--extractor-args", "youtube:player_client=android,web",
	}
	for _, header := range extraHeaders {
		args = append(args, "--add-headers", header)
	}
	return args
}

func buildFetchArgs(spec resolver.FetchSpec) []string {
	args := commonArgs()
	args = append(args,
		"--newline",
		"--progress-template", progressTemplate,
		"-o", spec.OutputTemplate,
	)
	if spec.Format != "" {
		args = append(args, "-f", spec.Format)
	}
	if spec.AllowPlaylist {
		args = append(args, "--yes-playlist")
	} else {
		args = append(args, "--no-playlist")
	}
	if spec.ExtractAudio {
		args = append(args, "-x", "--audio-format", spec.AudioFormat)
		if spec.AudioQuality != "" {
			args = append(args, "--audio-quality", spec.AudioQuality)
		}
	}
	return append(args, spec.URL)
}

// parseProgressLine decodes one stdout line into a progress event; lines
// without the progress prefix are ignored.
func parseProgressLine(line string) (resolver.ProgressEvent, bool) {
	payload, found := strings.CutPrefix(strings.TrimSpace(line), progressPrefix)
	if !found {
		return resolver.ProgressEvent{}, false
	}
	var event resolver.ProgressEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		return resolver.ProgressEvent{}, false
	}
	return event, true
}
