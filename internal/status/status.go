// Package status persists realization job records so clients can poll
// long-running renders. Persistence goes through Supabase's PostgREST API;
// when no store is configured the records are kept in memory only.
package status

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"
)

// Job lifecycle states.
const (
	StatePending    = "PENDING"
	StateProcessing = "PROCESSING"
	StateCompleted  = "COMPLETED"
	StateFailed     = "FAILED"
)

const jobTable = "realization_jobs"

// Record maps to the realization_jobs table.
type Record struct {
	JobID        string          `json:"job_id"`
	JobType      string          `json:"job_type"`
	Status       string          `json:"status"`
	InputPayload json.RawMessage `json:"input_payload,omitempty"`
	ErrorMessage *string         `json:"error_message,omitempty"`
	CreatedAt    time.Time       `json:"created_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at,omitempty"`
}

// Store tracks job records, mirroring them to PostgREST when configured.
type Store struct {
	client *postgrest.Client

	mu   sync.RWMutex
	jobs map[string]*Record
}

// NewStore builds a store. url/key may be empty for in-memory-only
// operation.
func NewStore(url, key string) (*Store, error) {
	s := &Store{jobs: make(map[string]*Record)}
	if url == "" || key == "" {
		logrus.Info("no status backend configured; job records are in-memory only")
		return s, nil
	}

	client := postgrest.NewClient(url+"/rest/v1", "", map[string]string{
		"apikey":        key,
		"Authorization": fmt.Sprintf("Bearer %s", key),
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("status: initializing PostgREST client: %w", client.ClientError)
	}
	s.client = client
	return s, nil
}

// Create registers a new pending job and returns its id.
func (s *Store) Create(jobType string, payload interface{}) (string, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("status: marshaling payload: %w", err)
	}

	rec := &Record{
		JobID:        uuid.NewString(),
		JobType:      jobType,
		Status:       StatePending,
		InputPayload: raw,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}

	s.mu.Lock()
	s.jobs[rec.JobID] = rec
	s.mu.Unlock()

	if s.client != nil {
		var results []Record
		if _, err := s.client.From(jobTable).Insert(rec, false, "", "representation", "").ExecuteTo(&results); err != nil {
			return "", fmt.Errorf("status: inserting job record: %w", err)
		}
	}

	logrus.WithFields(logrus.Fields{"job_id": rec.JobID, "type": jobType}).Info("job record created")
	return rec.JobID, nil
}

// Update moves a job to a new state, optionally recording a failure message.
func (s *Store) Update(jobID, state, errorMessage string) error {
	s.mu.Lock()
	if rec, ok := s.jobs[jobID]; ok {
		rec.Status = state
		rec.UpdatedAt = time.Now().UTC()
		if errorMessage != "" {
			rec.ErrorMessage = &errorMessage
		}
	}
	s.mu.Unlock()

	if s.client != nil {
		update := map[string]interface{}{
			"status":     state,
			"updated_at": time.Now().UTC(),
		}
		if errorMessage != "" {
			update["error_message"] = errorMessage
		}
		var results []Record
		if _, err := s.client.From(jobTable).Update(update, "", "").Eq("job_id", jobID).ExecuteTo(&results); err != nil {
			return fmt.Errorf("status: updating job %s: %w", jobID, err)
		}
	}

	logrus.WithFields(logrus.Fields{"job_id": jobID, "status": state}).Info("job record updated")
	return nil
}

// Get returns the locally tracked record for a job, or nil.
func (s *Store) Get(jobID string) *Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.jobs[jobID]; ok {
		dup := *rec
		return &dup
	}
	return nil
}
