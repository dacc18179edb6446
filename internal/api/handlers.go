package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Nomadcxx/transcodarr/internal/database"
	"github.com/Nomadcxx/transcodarr/internal/queue"
)

type listItem struct {
	UUID     string  `json:"uuid"`
	Name     string  `json:"name"`
	Size     int64   `json:"size"`
	Status   string  `json:"status"`
	Progress float64 `json:"progress"`
	Codec    string  `json:"codec"`
}

type metadataView struct {
	Kind       string                 `json:"kind"`
	Codec      string                 `json:"codec"`
	Format     string                 `json:"format"`
	SAR        string                 `json:"sar"`
	DAR        string                 `json:"dar"`
	Resolution string                 `json:"resolution"`
	Framerate  float64                `json:"framerate"`
	Extra      map[string]interface{} `json:"extra"`
}

type progressView struct {
	Status       string  `json:"status"`
	Progress     float64 `json:"progress"`
	FrameCurrent int64   `json:"frame_current"`
	FrameTotal   int64   `json:"frame_total"`
	Workfile     *string `json:"workfile"`
}

type entryDetail struct {
	UUID     string         `json:"uuid"`
	Name     string         `json:"name"`
	Hash     string         `json:"hash"`
	Path     string         `json:"path"`
	Size     int64          `json:"size"`
	Progress *progressView  `json:"progress"`
	Metadata []metadataView `json:"metadata"`
}

type currentFile struct {
	UUID         string  `json:"uuid"`
	Name         string  `json:"name"`
	FrameCurrent int64   `json:"frame_current"`
	FrameTotal   int64   `json:"frame_total"`
	Progress     float64 `json:"progress"`
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"uptime": time.Since(s.startTime).Round(time.Second).String(),
	})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	entries, err := s.db.ListEntries()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	items := make([]listItem, 0, len(entries))
	for _, entry := range entries {
		item := listItem{
			UUID:  entry.UUID,
			Name:  entry.Name,
			Size:  entry.Size,
			Codec: database.Unknown,
		}
		item.Status = "unknown"
		if progress, err := s.db.GetProgress(entry.UUID); err == nil && progress != nil {
			item.Status = string(progress.Status)
			item.Progress = progress.Progress
		}
		if meta, err := s.db.GetMetadata(entry.UUID, database.KindDeclared); err == nil && meta != nil {
			item.Codec = meta.Codec
		}
		items = append(items, item)
	}

	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleListOne(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")

	entry, err := s.db.GetEntryByUUID(uuid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	detail := entryDetail{
		UUID: entry.UUID,
		Name: entry.Name,
		Hash: entry.Hash,
		Path: entry.Path,
		Size: entry.Size,
	}

	if progress, err := s.db.GetProgress(uuid); err == nil && progress != nil {
		detail.Progress = &progressView{
			Status:       string(progress.Status),
			Progress:     progress.Progress,
			FrameCurrent: progress.FrameCurrent,
			FrameTotal:   progress.FrameTotal,
			Workfile:     progress.Workfile,
		}
	}

	metas, err := s.db.GetAllMetadata(uuid)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	detail.Metadata = make([]metadataView, 0, len(metas))
	for _, m := range metas {
		detail.Metadata = append(detail.Metadata, metadataView{
			Kind:       string(m.Kind),
			Codec:      m.Codec,
			Format:     m.Format,
			SAR:        m.SAR,
			DAR:        m.DAR,
			Resolution: m.Resolution,
			Framerate:  m.Framerate,
			Extra:      m.Extra,
		})
	}

	writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	counts, err := s.db.CountByStatus()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	total := 0
	for _, c := range counts {
		total += c
	}

	response := map[string]interface{}{
		"total":       total,
		"pending":     counts[database.StatusPending],
		"queued":      counts[database.StatusQueued],
		"in_progress": counts[database.StatusInProgress],
		"done":        counts[database.StatusDone],
		"optimum":     counts[database.StatusOptimum],
		"uptime":      time.Since(s.startTime).Round(time.Second).String(),
	}

	var current *currentFile
	if s.worker != nil {
		if entry, snap := s.worker.Current(); entry != nil {
			current = &currentFile{
				UUID:         entry.UUID,
				Name:         entry.Name,
				FrameCurrent: snap.FrameCurrent,
				FrameTotal:   snap.FrameTotal,
				Progress:     snap.Progress,
			}
		}
	}
	response["current_file"] = current

	writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleEnqueue(w http.ResponseWriter, r *http.Request) {
	uuid := chi.URLParam(r, "uuid")

	err := s.admission.Enqueue(uuid)
	var conflict *queue.ConflictError
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]string{
			"uuid":   uuid,
			"status": "queued",
		})
	case errors.Is(err, queue.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.As(err, &conflict):
		writeError(w, http.StatusConflict, conflict.Error())
	default:
		writeError(w, http.StatusInternalServerError, "database error")
	}
}

func (s *Server) handleEnqueueBest(w http.ResponseWriter, r *http.Request) {
	best, err := s.admission.EnqueueBest()
	switch {
	case err == nil:
		writeJSON(w, http.StatusAccepted, map[string]interface{}{
			"uuid": best.UUID,
			"name": best.Name,
			"size": best.Size,
		})
	case errors.Is(err, queue.ErrQueueActive):
		writeError(w, http.StatusConflict, queue.ErrQueueActive.Error())
	case errors.Is(err, queue.ErrNoCandidates):
		writeError(w, http.StatusNotFound, queue.ErrNoCandidates.Error())
	default:
		writeError(w, http.StatusInternalServerError, "database error")
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
