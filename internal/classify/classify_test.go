package classify

import (
	"testing"
)

func TestClassifyCodec(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Movie.2019.1080p.x265.mkv", "h265"},
		{"Movie.2019.1080p.x264.mkv", "h264"},
		{"Movie.2019.HEVC.mkv", "hevc"},
		{"Movie.2019.H.264.mkv", "h264"},
		{"Movie.2019.H.265.mkv", "h265"},
		{"Movie.2019.AV1.mkv", "av1"},
		{"Movie.2019.XviD.avi", "xvid"},
		{"Movie.2019.mkv", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := Classify(tt.filename).Codec
			if got != tt.want {
				t.Errorf("Classify(%q).Codec = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestClassifyResolution(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Movie.2160p.mkv", "3840x2160"},
		{"Movie.4K.mkv", "3840x2160"},
		{"Movie.UHD.mkv", "3840x2160"},
		{"Movie.1080p.mkv", "1920x1080"},
		{"Movie.1080i.mkv", "1920x1080"},
		{"Movie.720p.mkv", "1280x720"},
		{"Movie.576p.mkv", "720x576"},
		{"Movie.480p.mkv", "720x480"},
		{"Movie.mkv", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := Classify(tt.filename).Resolution
			if got != tt.want {
				t.Errorf("Classify(%q).Resolution = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestClassifyFormat(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Movie.2019.10bit.mkv", "10bit"},
		{"Movie.2019.10-bit.mkv", "10bit"},
		{"Movie.2019.HDR10.mkv", "hdr10"},
		{"Movie.2019.HDR.mkv", "hdr"},
		{"Movie.2019.HLG.mkv", "hlg"},
		{"Movie.2019.mkv", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := Classify(tt.filename).Format
			if got != tt.want {
				t.Errorf("Classify(%q).Format = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

func TestClassifyFramerate(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"Movie.2019.60fps.mkv", "60"},
		{"Movie.2019.23.98 fps.mkv", "23.98"},
		{"Movie.2019.mkv", Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got := Classify(tt.filename).Framerate
			if got != tt.want {
				t.Errorf("Classify(%q).Framerate = %q, want %q", tt.filename, got, tt.want)
			}
		})
	}
}

// Classify must cope with any byte string without failing and without
// returning empty fields.
func TestClassifyNeverEmpty(t *testing.T) {
	inputs := []string{
		"",
		"   ",
		"...",
		"....mkv",
		"no extension at all",
		"ünïcödé.Фильм.2020.1080p.mkv",
		"\x00\x01\x02",
		"[[[((()))]]]",
	}

	for _, input := range inputs {
		d := Classify(input)
		for field, value := range map[string]string{
			"Codec":      d.Codec,
			"Format":     d.Format,
			"SAR":        d.SAR,
			"DAR":        d.DAR,
			"Resolution": d.Resolution,
			"Framerate":  d.Framerate,
		} {
			if value == "" {
				t.Errorf("Classify(%q).%s is empty, want %q", input, field, Unknown)
			}
		}
	}
}

// Fields parse independently: garbage around one token doesn't affect others.
func TestClassifyFieldsIndependent(t *testing.T) {
	d := Classify("Garbage###x265###NoRes.mkv")
	if d.Codec != "h265" {
		t.Errorf("Codec = %q, want h265", d.Codec)
	}
	if d.Resolution != Unknown {
		t.Errorf("Resolution = %q, want %q", d.Resolution, Unknown)
	}
}
