package transcode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Nomadcxx/transcodarr/internal/probe"
)

// losslessCodecs are audio codecs that waste space uncompressed or losslessly
// compressed; they get re-encoded.
var losslessCodecs = map[string]bool{
	"truehd": true,
	"mlp":    true,
	"flac":   true,
}

func isLossless(codecName string) bool {
	name := strings.ToLower(codecName)
	return losslessCodecs[name] || strings.HasPrefix(name, "pcm_")
}

// isDTSHD reports whether a dts stream carries one of the HD profiles
// (MA, HD, DTS:X), which are lossless-class.
func isDTSHD(codecName, profile string) bool {
	if strings.ToLower(codecName) != "dts" {
		return false
	}
	prof := strings.ToLower(profile)
	return strings.Contains(prof, "ma") || strings.Contains(prof, "hd") || strings.Contains(prof, "x")
}

// buildArgs assembles the encoder argv for one entry. Argument order matters
// to ffmpeg: input, maps, video codec, optional scale filter, audio
// directives, subtitles, progress reporting, output.
func buildArgs(sourcePath, workfile string, result *probe.Result, crf, resCap int) []string {
	args := []string{
		"-y", "-loglevel", "error",
		"-i", sourcePath,
		"-map", "0:v?",
		"-map", "0:a?",
		"-map", "0:s?",
		"-c:v", "libx265",
		"-crf", strconv.Itoa(crf),
		"-preset", "slow",
		"-x265-params", "log-level=error",
	}

	maxHeight := 0
	for _, vs := range result.VideoStreams() {
		if vs.Height > maxHeight {
			maxHeight = vs.Height
		}
	}
	if resCap > 0 && maxHeight > resCap {
		args = append(args, "-vf", fmt.Sprintf("scale=-2:%d", resCap))
	}

	args = append(args, audioArgs(result.AudioStreams())...)

	args = append(args, "-c:s", "copy")
	args = append(args, "-progress", "pipe:1", "-nostats")
	args = append(args, "-f", "matroska", workfile)

	return args
}

// audioArgs selects per-stream audio directives. When nothing is lossless a
// single bulk copy suffices; otherwise lossless streams are compressed (aac
// for surround, opus for stereo/mono) and lossy streams pass through.
func audioArgs(audioStreams []probe.Stream) []string {
	anyLossless := false
	for _, as := range audioStreams {
		if isLossless(as.CodecName) || isDTSHD(as.CodecName, as.Profile) {
			anyLossless = true
			break
		}
	}

	if !anyLossless {
		return []string{"-c:a", "copy"}
	}

	var args []string
	for i, as := range audioStreams {
		if isLossless(as.CodecName) || isDTSHD(as.CodecName, as.Profile) {
			if as.Channels >= 3 {
				args = append(args,
					fmt.Sprintf("-c:a:%d", i), "aac",
					fmt.Sprintf("-b:a:%d", i), "640k")
			} else {
				args = append(args,
					fmt.Sprintf("-c:a:%d", i), "libopus",
					fmt.Sprintf("-b:a:%d", i), "192k")
			}
		} else {
			args = append(args, fmt.Sprintf("-c:a:%d", i), "copy")
		}
	}
	return args
}
