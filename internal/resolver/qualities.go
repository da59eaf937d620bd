package resolver

import (
	"fmt"
	"sort"
)

// VideoQuality is a selectable pixel height offered to clients.
type VideoQuality struct {
	Height   int    `json:"height"`
	Label    string `json:"label"`
	FormatID string `json:"format_id"`
}

// AudioQuality is a selectable audio bitrate offered to clients.
type AudioQuality struct {
	ABR      int    `json:"abr"`
	Label    string `json:"label"`
	FormatID string `json:"format_id"`
}

// ExtractQualities derives the distinct video heights and audio bitrates from
// raw resolver formats, sorted highest first. Each height/bitrate appears
// once, keeping the format id of the first stream that offered it.
func ExtractQualities(formats []Format) ([]VideoQuality, []AudioQuality) {
	videoQualities := make([]VideoQuality, 0)
	audioQualities := make([]AudioQuality, 0)
	seenHeights := make(map[int]struct{})
	seenBitrates := make(map[int]struct{})

	for _, format := range formats {
		if format.VCodec != "" && format.VCodec != "none" && format.Height > 0 {
			if _, seen := seenHeights[format.Height]; !seen {
				seenHeights[format.Height] = struct{}{}
				videoQualities = append(videoQualities, VideoQuality{
					Height:   format.Height,
					Label:    fmt.Sprintf("%dp", format.Height),
					FormatID: format.FormatID,
				})
			}
		}
		if format.ACodec != "" && format.ACodec != "none" && format.ABR > 0 {
			bitrate := int(format.ABR)
			if _, seen := seenBitrates[bitrate]; !seen {
				seenBitrates[bitrate] = struct{}{}
				audioQualities = append(audioQualities, AudioQuality{
					ABR:      bitrate,
					Label:    fmt.Sprintf("%d kbps", bitrate),
					FormatID: format.FormatID,
				})
			}
		}
	}

	sort.Slice(videoQualities, func(i, j int) bool { return videoQualities[i].Height > videoQualities[j].Height })
	sort.Slice(audioQualities, func(i, j int) bool { return audioQualities[i].ABR > audioQualities[j].ABR })
	return videoQualities, audioQualities
}
