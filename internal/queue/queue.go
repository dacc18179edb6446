// Package queue implements the admission policy: which entries may be
// queued, and when. Exactly one entry is ever queued or in progress at a
// time when admission goes through EnqueueBest.
package queue

import (
	"errors"
	"fmt"

	"github.com/Nomadcxx/transcodarr/internal/database"
	"github.com/Nomadcxx/transcodarr/internal/logging"
)

var (
	// ErrNotFound means the uuid references no known entry.
	ErrNotFound = errors.New("not found")
	// ErrQueueActive means another entry is already queued or in progress.
	ErrQueueActive = errors.New("queue already active")
	// ErrNoCandidates means nothing is pending.
	ErrNoCandidates = errors.New("no eligible candidates")
)

// ConflictError is returned when an entry can't be enqueued because of its
// current status.
type ConflictError struct {
	Status database.Status
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("already %s", e.Status)
}

// Admission applies the enqueue policy against the store.
type Admission struct {
	db     *database.DB
	logger *logging.Logger
}

// New creates an Admission.
func New(db *database.DB, logger *logging.Logger) *Admission {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Admission{db: db, logger: logger}
}

// Enqueue queues a specific entry. Entries that are already queued or in
// progress conflict; done and optimum entries are re-enqueueable.
func (a *Admission) Enqueue(uuid string) error {
	entry, err := a.db.GetEntryByUUID(uuid)
	if err != nil {
		return err
	}
	if entry == nil {
		a.logger.Info("queue", "Enqueue rejected",
			logging.F("uuid", uuid), logging.F("reason", "not_found"))
		return ErrNotFound
	}

	progress, err := a.db.GetProgress(uuid)
	if err != nil {
		return err
	}
	if progress != nil &&
		(progress.Status == database.StatusQueued || progress.Status == database.StatusInProgress) {
		a.logger.Info("queue", "Enqueue rejected",
			logging.F("uuid", uuid), logging.F("reason", "already_"+string(progress.Status)))
		return &ConflictError{Status: progress.Status}
	}

	if err := a.db.SetStatus(uuid, database.StatusQueued); err != nil {
		return err
	}
	a.logger.Info("queue", "Enqueue accepted", logging.F("uuid", uuid))
	return nil
}

// EnqueueBest queues the largest pending entry, provided nothing else is
// queued or in progress. Returns the chosen entry.
func (a *Admission) EnqueueBest() (*database.Entry, error) {
	active, err := a.db.HasActiveQueue()
	if err != nil {
		return nil, err
	}
	if active {
		a.logger.Info("queue", "Enqueue best rejected", logging.F("reason", "queue_active"))
		return nil, ErrQueueActive
	}

	best, err := a.db.QueryBestCandidate()
	if err != nil {
		return nil, err
	}
	if best == nil {
		a.logger.Info("queue", "Enqueue best rejected", logging.F("reason", "no_candidates"))
		return nil, ErrNoCandidates
	}

	if err := a.db.SetStatus(best.UUID, database.StatusQueued); err != nil {
		return nil, err
	}
	a.logger.Info("queue", "Enqueue best selected",
		logging.F("uuid", best.UUID), logging.F("size", best.Size))
	return best, nil
}
