package job

// Status is the lifecycle state of a download job. Jobs move monotonically
// starting -> downloading -> processing -> complete, or to error from any
// non-terminal state. Terminal states are never left.
type Status string

const (
	StatusStarting    Status = "starting"
	StatusDownloading Status = "downloading"
	StatusProcessing  Status = "processing"
	StatusComplete    Status = "complete"
	StatusError       Status = "error"
)

// Terminal reports whether the status ends the job's lifecycle.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// Mode selects what a job downloads and how it is post-processed.
type Mode string

const (
	ModeVideoBest    Mode = "video_best"
	ModeVideoQuality Mode = "video_quality"
	ModeAudioBest    Mode = "audio_best"
	ModeAudioQuality Mode = "audio_quality"
	ModePlaylist     Mode = "playlist"
)

// Valid reports whether the mode is one of the supported values.
func (m Mode) Valid() bool {
	switch m {
	case ModeVideoBest, ModeVideoQuality, ModeAudioBest, ModeAudioQuality, ModePlaylist:
		return true
	}
	return false
}

// NeedsQuality reports whether the mode requires an explicit quality
// parameter (a pixel height or a kbps bitrate).
func (m Mode) NeedsQuality() bool {
	return m == ModeVideoQuality || m == ModeAudioQuality
}

// Params are the immutable submission parameters of a job.
type Params struct {
	URL     string
	Mode    Mode
	Quality int
}

// State is the live status record of a job. Updates replace the whole
// record; there are no merge semantics. Filepath is internal bookkeeping and
// never serialized to clients.
type State struct {
	Status   Status  `json:"status"`
	Percent  float64 `json:"percent"`
	Speed    float64 `json:"speed,omitempty"`
	ETA      float64 `json:"eta,omitempty"`
	Message  string  `json:"message,omitempty"`
	Filepath string  `json:"-"`
}
