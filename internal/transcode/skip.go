package transcode

import (
	"fmt"
	"sort"

	"github.com/Nomadcxx/transcodarr/internal/probe"
)

// hevcCodecs are video codecs already in the target family; re-encoding them
// loses quality for no size win.
var hevcCodecs = map[string]bool{
	"hevc": true,
	"h265": true,
}

// crfBitrateTable maps libx265 CRF to the maximum expected bitrate (kbps) at
// 1080p. A source already below the threshold for the effective CRF won't
// shrink meaningfully.
var crfBitrateTable = map[int]int{
	16: 8000,
	18: 5500,
	20: 3800,
	22: 2500,
	24: 1700,
	26: 1200,
	28: 800,
}

const pixels1080p = 1920 * 1080

// ShouldSkip decides whether encoding a file would be wasteful. It is a pure
// function of the probe result and the effective quality settings.
func ShouldSkip(result *probe.Result, crf, resCap int) (bool, string) {
	videos := result.VideoStreams()

	// A source above the resolution cap must be transcoded to downscale,
	// whatever its codec or bitrate.
	if resCap > 0 {
		maxHeight := 0
		for _, vs := range videos {
			if vs.Height > maxHeight {
				maxHeight = vs.Height
			}
		}
		if maxHeight > resCap {
			return false, ""
		}
	}

	for _, vs := range videos {
		if hevcCodecs[vs.CodecName] {
			return true, "source is already HEVC/H.265"
		}
	}

	sourceKbps := int(result.Format.BitRateBPS() / 1000)
	if sourceKbps > 0 {
		maxPixels := pixels1080p
		if len(videos) > 0 {
			maxPixels = 0
			for _, vs := range videos {
				w, h := vs.Width, vs.Height
				if w <= 0 {
					w = 1920
				}
				if h <= 0 {
					h = 1080
				}
				if w*h > maxPixels {
					maxPixels = w * h
				}
			}
		}
		if maxPixels < 1 {
			maxPixels = 1
		}

		normalisedKbps := sourceKbps * pixels1080p / maxPixels
		threshold := bitrateThreshold(crf)
		if normalisedKbps < threshold {
			return true, fmt.Sprintf(
				"source bitrate %d kbps (~%d kbps @1080p) already below CRF %d threshold %d kbps",
				sourceKbps, normalisedKbps, crf, threshold)
		}
	}

	return false, ""
}

// bitrateThreshold looks up the 1080p bitrate threshold for a CRF, linearly
// interpolating between table rows and clamping outside the table range.
func bitrateThreshold(crf int) int {
	if kbps, ok := crfBitrateTable[crf]; ok {
		return kbps
	}

	crfs := make([]int, 0, len(crfBitrateTable))
	for k := range crfBitrateTable {
		crfs = append(crfs, k)
	}
	sort.Ints(crfs)

	if crf < crfs[0] {
		return crfBitrateTable[crfs[0]]
	}
	if crf > crfs[len(crfs)-1] {
		return crfBitrateTable[crfs[len(crfs)-1]]
	}

	// Between two table rows
	var lower, upper int
	for _, k := range crfs {
		if k < crf {
			lower = k
		}
		if k > crf {
			upper = k
			break
		}
	}

	lo, hi := crfBitrateTable[lower], crfBitrateTable[upper]
	ratio := float64(crf-lower) / float64(upper-lower)
	return lo + int(ratio*float64(hi-lo))
}
