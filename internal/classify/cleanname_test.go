package classify

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"The.Matrix.1999.1080p.BluRay.x264-GROUP.mkv", "The Matrix"},
		{"Some_Movie_2020_2160p_WEB-DL_HEVC.mkv", "Some Movie"},
		{"www.TorrentSite.com - Cool Movie 2018 720p.mkv", "Cool Movie"},
		{"Another Movie (2021) [1080p].mkv", "Another Movie"},
		{"plain name.mkv", "Plain Name"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanName(tt.input))
		})
	}
}

func TestCleanNameStripsJunkWithoutYear(t *testing.T) {
	got := CleanName("Old.Show.1080p.BluRay.x265.mkv")
	assert.NotContains(t, strings.ToLower(got), "bluray")
	assert.NotContains(t, strings.ToLower(got), "x265")
	assert.NotContains(t, strings.ToLower(got), "1080p")
	assert.Contains(t, got, "Old")
}

func TestCleanNameIdempotent(t *testing.T) {
	inputs := []string{
		"The.Matrix.1999.1080p.BluRay.x264-GROUP.mkv",
		"www.TorrentSite.com - Cool Movie 2018 720p.mkv",
		"plain name.mkv",
		"Another Movie",
		"Blade Runner 2049 2017.mkv",
	}

	for _, input := range inputs {
		once := CleanName(input)
		twice := CleanName(once)
		assert.Equal(t, once, twice, "CleanName not idempotent for %q", input)
	}
}

func TestCleanNameBoundsLength(t *testing.T) {
	long := strings.Repeat("Verylongword ", 30) + ".mkv"
	got := CleanName(long)
	assert.LessOrEqual(t, len(got), 120)
	assert.NotEmpty(t, got)
}

func TestCleanNameDegenerateInputs(t *testing.T) {
	// Unparseable names fall back to the raw input rather than returning
	// nothing
	for _, input := range []string{"...", "___", "[](){}"} {
		got := CleanName(input)
		assert.NotEmpty(t, got, "CleanName(%q) returned empty", input)
	}
}
