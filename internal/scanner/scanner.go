// Package scanner discovers media files under the configured source
// directories and records them in the state database. The scan runs once per
// process startup; it is the only writer of new entries.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/Nomadcxx/transcodarr/internal/classify"
	"github.com/Nomadcxx/transcodarr/internal/database"
	"github.com/Nomadcxx/transcodarr/internal/fingerprint"
	"github.com/Nomadcxx/transcodarr/internal/logging"
	"github.com/Nomadcxx/transcodarr/internal/probe"
)

// maxDepth bounds the walk relative to each source root. Media libraries are
// shallow; anything deeper is extras/samples clutter.
const maxDepth = 3

// mediaExtensions is the fixed set of file extensions considered media.
var mediaExtensions = map[string]bool{
	".mkv": true,
	".mp4": true,
	".avi": true,
	".mov": true,
	".m4v": true,
	".ts":  true,
	".wmv": true,
}

// Result summarises one scan pass.
type Result struct {
	Added   int
	Skipped int
	Errors  int
}

// Scanner walks source directories and inserts newly discovered files. The
// hash, classify, clean, and probe collaborators are injected so the walk
// logic tests without real media.
type Scanner struct {
	db       *database.DB
	logger   *logging.Logger
	hash     func(path string) (string, error)
	classify func(filename string) classify.Declared
	clean    func(filename string) string
	prober   probe.Prober
}

// New creates a Scanner with the production collaborators.
func New(db *database.DB, prober probe.Prober, logger *logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Scanner{
		db:       db,
		logger:   logger,
		hash:     fingerprint.Hash,
		classify: classify.Classify,
		clean:    classify.CleanName,
		prober:   prober,
	}
}

// WithHash overrides the fingerprint function. For tests.
func (s *Scanner) WithHash(fn func(string) (string, error)) *Scanner {
	s.hash = fn
	return s
}

// Scan walks each source directory once, to a maximum relative depth of 3,
// and inserts every media file not already known by (hash, path). Per-file
// IO errors are counted and skipped, never fatal.
func (s *Scanner) Scan(ctx context.Context, sourceDirs []string) (Result, error) {
	s.logger.Info("scanner", "Source scan started", logging.F("dirs", strings.Join(sourceDirs, ",")))

	var result Result
	for _, dir := range sourceDirs {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			s.logger.Warn("scanner", "Source directory missing", logging.F("dir", dir))
			continue
		}
		s.scanDir(ctx, dir, &result)
	}

	s.logger.Info("scanner", "Source scan completed",
		logging.F("added", result.Added),
		logging.F("skipped", result.Skipped),
		logging.F("errors", result.Errors))

	return result, ctx.Err()
}

func (s *Scanner) scanDir(ctx context.Context, root string, result *Result) {
	filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			s.logger.Warn("scanner", "Walk error", logging.F("path", path), logging.F("error", err))
			result.Errors++
			return nil
		}

		if d.IsDir() {
			// Directories deeper than maxDepth are not entered; files in a
			// directory at maxDepth are still picked up.
			if relativeDepth(root, path) > maxDepth {
				return filepath.SkipDir
			}
			return nil
		}

		if !mediaExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		s.scanFile(ctx, path, result)
		return nil
	})
}

// relativeDepth is 0 for the root itself, 1 for its direct children.
func relativeDepth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

func (s *Scanner) scanFile(ctx context.Context, path string, result *Result) {
	hash, err := s.hash(path)
	if err != nil {
		s.logger.Warn("scanner", "Failed to fingerprint file",
			logging.F("path", path), logging.F("error", err))
		result.Errors++
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		s.logger.Warn("scanner", "Failed to stat file",
			logging.F("path", path), logging.F("error", err))
		result.Errors++
		return
	}

	existing, err := s.db.GetEntryByHashAndPath(hash, path)
	if err != nil {
		s.logger.Error("scanner", "Lookup failed", err, logging.F("path", path))
		result.Errors++
		return
	}
	if existing != nil {
		result.Skipped++
		return
	}

	base := filepath.Base(path)
	declared := s.classify(base)
	name := s.clean(base)

	entry := database.Entry{
		UUID: uuid.NewString(),
		Name: name,
		Hash: hash,
		Path: path,
		Size: info.Size(),
	}

	metaDeclared := declaredMetadata(entry.UUID, declared)

	probeResult, err := s.prober.Probe(ctx, path)
	if err != nil {
		s.logger.Warn("scanner", "Probe failed, recording defaults",
			logging.F("uuid", entry.UUID), logging.F("error", err))
		probeResult = nil
	}
	metaActual := probe.ActualMetadata(entry.UUID, probeResult)

	if err := s.db.InsertFile(entry, []database.Metadata{metaDeclared, metaActual}); err != nil {
		s.logger.Error("scanner", "Insert failed", err, logging.F("uuid", entry.UUID))
		result.Errors++
		return
	}

	result.Added++
	s.logger.Info("scanner", "File discovered",
		logging.F("uuid", entry.UUID),
		logging.F("name", name),
		logging.F("size", info.Size()),
		logging.F("codec", metaActual.Codec))
}

// declaredMetadata converts classifier output into a metadata row.
func declaredMetadata(uuid string, d classify.Declared) database.Metadata {
	meta := database.NewMetadata(uuid, database.KindDeclared)
	meta.Codec = d.Codec
	meta.Format = d.Format
	meta.SAR = d.SAR
	meta.DAR = d.DAR
	meta.Resolution = d.Resolution
	if d.Framerate != classify.Unknown {
		if fps, err := strconv.ParseFloat(d.Framerate, 64); err == nil && fps > 0 {
			meta.Framerate = fps
		}
	}
	return meta
}
