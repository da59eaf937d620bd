package job

import "errors"

var (
	// ErrArtifactMissing means the external tool reported success but no
	// output carrying the job's prefix was found on disk.
	ErrArtifactMissing = errors.New("file not found after download processing")
	// ErrQualityRequired means a _quality mode was submitted without a
	// height or bitrate.
	ErrQualityRequired = errors.New("quality is required for this mode")
)

// NewErrUnsupportedMode reports a mode outside the supported set.
func NewErrUnsupportedMode(mode Mode) error {
	return errors.New("unsupported mode: " + string(mode))
}
