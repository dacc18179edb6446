package probe

import (
	"fmt"
	"math"

	"github.com/Nomadcxx/transcodarr/internal/database"
)

// ActualMetadata builds an actual-kind metadata row from a probe result. A
// nil result (probe failure) yields a row with every field at its sentinel
// default — the caller records what it knows, which is nothing.
func ActualMetadata(uuid string, result *Result) database.Metadata {
	meta := database.NewMetadata(uuid, database.KindActual)
	if result == nil {
		return meta
	}

	videos := result.VideoStreams()
	if len(videos) == 0 {
		return meta
	}

	// First video stream is usually the main one
	vs := videos[0]

	if vs.CodecName != "" {
		meta.Codec = vs.CodecName
	}
	if vs.PixFmt != "" {
		meta.Format = vs.PixFmt
	}
	if vs.Width > 0 && vs.Height > 0 {
		meta.Resolution = fmt.Sprintf("%dx%d", vs.Width, vs.Height)
	}

	// "0:1" is ffprobe's way of saying it has no idea
	if vs.SampleAspectRatio != "" && vs.SampleAspectRatio != "0:1" {
		meta.SAR = vs.SampleAspectRatio
	}
	if vs.DisplayAspectRatio != "" && vs.DisplayAspectRatio != "0:1" {
		meta.DAR = vs.DisplayAspectRatio
	}

	if fps := vs.FPS(0); fps > 0 {
		meta.Framerate = math.Round(fps*1000) / 1000
	}

	if duration := result.Format.DurationSeconds(); duration > 0 {
		meta.Extra["duration"] = duration
	}
	if bitrate := result.Format.BitRateBPS(); bitrate > 0 {
		meta.Extra["bitrate"] = bitrate
	}

	return meta
}
