package classify

import (
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// maxNameLen bounds cleaned titles; release names occasionally run absurd.
const maxNameLen = 120

var (
	yearRegex = regexp.MustCompile(`\b(19|20)\d{2}\b`)

	// Website watermark prefixes: "www.SomeSite.com - Title" and friends
	urlWatermarkRegex = regexp.MustCompile(`(?i)^(?:www\.[\w\-]+\.\w{2,6}|[\w\-]+\.(?:com|net|org|io|tv|me))[\s._\-]*(?:-\s*)?`)

	// Separator-delimited watermark: "SomeGroup - Actual Title"
	leadingTagRegex = regexp.MustCompile(`^[\w.\s]{1,40}\s+-\s+`)

	punctRegex      = regexp.MustCompile(`[.\-_]+`)
	bracketsRegex   = regexp.MustCompile(`[\[\](){}<>]`)
	multiSpaceRegex = regexp.MustCompile(`\s{2,}`)

	// Tokens stripped when no year is present to truncate at: resolution,
	// source, codecs, release types, known group names, generic noise.
	junkTokensRegex = regexp.MustCompile(`(?i)\b(` +
		`2160p|1080p|1080i|720p|576p|480p|4k|uhd` +
		`|hdr10\+|hdr10|hdr|dv|dolby[._\s]?vision|hlg` +
		`|bluray|blu[._\-]?ray|bdrip|bdremux|bdmux` +
		`|web[._\-]?dl|webrip|web|amzn|nf|hmax|dsnp|atvp|pcok` +
		`|hdtv|dvdrip|dvdscr|dvd|ts|cam|r5|scr` +
		`|hevc|x265|x264|h264|h265|avc|xvid|divx|av1|vp9|vp8` +
		`|10[._\-]?bit|10bit|8bit|12bit|hq` +
		`|aac|dts|truehd|atmos|dd5\.1|dd2\.0|ac3|eac3|opus|flac|mp3|lpcm|pcm` +
		`|dolby|dolby[._\s]?digital|dolby[._\s]?atmos` +
		`|remux|repack|proper|extended|theatrical|directors[._\s]?cut|unrated|retail` +
		`|internal|limited|complete|season|episode` +
		`|yts|yify|rarbg|eztv|ettv|mkvcage|sparks|fgt|ntb|ion10` +
		`|tigole|qxr|bhdstudio|framestor` +
		`|sample|trailer|featurette|extras?` +
		`)\b`)
)

var titleCaser = cases.Title(language.Und)

// CleanName turns a raw release filename into a human-readable title. It is
// idempotent: cleaning an already-clean name is a no-op.
func CleanName(raw string) string {
	name := strings.TrimSuffix(filepath.Base(raw), filepath.Ext(raw))

	name = stripWatermark(name)

	name = punctRegex.ReplaceAllString(name, " ")
	name = bracketsRegex.ReplaceAllString(name, " ")

	// Everything after the first year is release noise
	if loc := yearRegex.FindStringIndex(name); loc != nil {
		name = strings.TrimSpace(name[:loc[0]])
	} else {
		name = junkTokensRegex.ReplaceAllString(name, "")
	}

	name = multiSpaceRegex.ReplaceAllString(name, " ")
	name = strings.Trim(name, " -_.")

	result := titleCaser.String(name)
	if result == "" {
		result = strings.TrimSpace(raw)
	}

	if len(result) > maxNameLen {
		truncated := result[:maxNameLen]
		if idx := strings.LastIndex(truncated, " "); idx > 0 {
			truncated = truncated[:idx]
		}
		result = truncated
	}

	return result
}

func stripWatermark(name string) string {
	cleaned := strings.TrimSpace(urlWatermarkRegex.ReplaceAllString(name, ""))
	if cleaned != name && cleaned != "" {
		return cleaned
	}
	if m := leadingTagRegex.FindString(name); m != "" {
		candidate := strings.TrimSpace(name[len(m):])
		if len(candidate) >= 3 {
			return candidate
		}
	}
	return name
}
