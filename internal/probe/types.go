package probe

import (
	"fmt"
	"strconv"
	"strings"
)

// Result mirrors the probe child protocol: a format object plus a streams
// array. ffprobe emits numeric format fields as strings.
type Result struct {
	Format  Format   `json:"format"`
	Streams []Stream `json:"streams"`
}

// Format is the container-level section of a probe document.
type Format struct {
	Duration string            `json:"duration"`
	BitRate  string            `json:"bit_rate"`
	Tags     map[string]string `json:"tags"`
}

// Stream is one elementary stream.
type Stream struct {
	CodecType          string `json:"codec_type"`
	CodecName          string `json:"codec_name"`
	Profile            string `json:"profile"`
	Width              int    `json:"width"`
	Height             int    `json:"height"`
	PixFmt             string `json:"pix_fmt"`
	SampleAspectRatio  string `json:"sample_aspect_ratio"`
	DisplayAspectRatio string `json:"display_aspect_ratio"`
	RFrameRate         string `json:"r_frame_rate"`
	Duration           string `json:"duration"`
	Channels           int    `json:"channels"`
}

// VideoStreams returns the video streams, in document order.
func (r *Result) VideoStreams() []Stream {
	return r.streamsOfType("video")
}

// AudioStreams returns the audio streams, in document order.
func (r *Result) AudioStreams() []Stream {
	return r.streamsOfType("audio")
}

func (r *Result) streamsOfType(codecType string) []Stream {
	var out []Stream
	for _, s := range r.Streams {
		if s.CodecType == codecType {
			out = append(out, s)
		}
	}
	return out
}

// DurationSeconds parses the container duration, 0 on failure.
func (f Format) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(f.Duration, 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// BitRateBPS parses the container bitrate in bits per second, 0 on failure.
func (f Format) BitRateBPS() int64 {
	b, err := strconv.ParseInt(f.BitRate, 10, 64)
	if err != nil || b < 0 {
		return 0
	}
	return b
}

// DurationSeconds parses the stream duration, 0 on failure.
func (s Stream) DurationSeconds() float64 {
	d, err := strconv.ParseFloat(s.Duration, 64)
	if err != nil || d < 0 {
		return 0
	}
	return d
}

// FPS evaluates the r_frame_rate rational. Returns fallback when the field
// is missing or malformed.
func (s Stream) FPS(fallback float64) float64 {
	fps, err := parseRational(s.RFrameRate)
	if err != nil {
		return fallback
	}
	return fps
}

func parseRational(s string) (float64, error) {
	num, den, ok := strings.Cut(s, "/")
	if !ok {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("not a rational: %q", s)
		}
		return v, nil
	}
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("bad numerator in %q", s)
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, fmt.Errorf("bad denominator in %q", s)
	}
	return n / d, nil
}
