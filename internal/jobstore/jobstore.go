/*
 *     Copyright 2024 The Dragonfly Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *      http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package jobstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/gofrs/flock"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	"github.com/astroquery/astroquery-go/pkg/uws"
)

const (
	// JobFileName is the file name of the job history.
	JobFileName = "jobs.csv"

	// maxQueryLength bounds the query text kept per job.
	maxQueryLength = 4096
)

// Record is a submitted job.
type Record struct {
	// JobID is the id assigned by the service.
	JobID string `csv:"jobID"`

	// Service is the service name.
	Service string `csv:"service"`

	// URL is the job location.
	URL string `csv:"url"`

	// RunID is the client tag of the job.
	RunID string `csv:"runID"`

	// Phase is the last known phase.
	Phase string `csv:"phase"`

	// Query is the ADQL text.
	Query string `csv:"query"`

	// CreatedAt is the submission time.
	CreatedAt time.Time `csv:"createdAt"`

	// UpdatedAt is the time the phase was last stored.
	UpdatedAt time.Time `csv:"updatedAt"`
}

// Store is the local history of submitted jobs.
type Store interface {
	// Record appends a submitted job.
	Record(service string, job *uws.Job, query string) error

	// Remove drops a job given by id or url.
	Remove(jobID string) error

	// UpdatePhase stores the last known phase of a job.
	UpdatePhase(jobID string, phase uws.Phase) error

	// Get returns a job given by id or url.
	Get(jobID string) (*Record, error)

	// List returns the jobs, most recent first, optionally of one service.
	List(service string) ([]*Record, error)

	// Clear removes the history.
	Clear() error
}

type store struct {
	baseDir  string
	mu       sync.Mutex
	fileLock *flock.Flock
}

// New returns a new Store instance writing under baseDir.
func New(baseDir string) (Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, err
	}

	return &store{
		baseDir:  baseDir,
		fileLock: flock.New(filepath.Join(baseDir, JobFileName+".lock")),
	}, nil
}

// lock serializes access to the history file within and across processes.
func (s *store) lock() (func(), error) {
	s.mu.Lock()
	if err := s.fileLock.Lock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("lock %s: %w", s.fileLock.Path(), err)
	}

	return func() {
		s.fileLock.Unlock()
		s.mu.Unlock()
	}, nil
}

// Record appends a submitted job.
func (s *store) Record(service string, job *uws.Job, query string) error {
	if job == nil || job.ID == "" {
		return fmt.Errorf("job id: %w", aqerrors.ErrInvalidArgument)
	}

	if len(query) > maxQueryLength {
		query = query[:maxQueryLength]
	}

	now := time.Now().UTC()
	createdAt := job.CreationTime
	if createdAt.IsZero() {
		createdAt = now
	}

	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	file, err := os.OpenFile(s.filename(), os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return err
	}
	defer file.Close()

	// Write job to the history file.
	return gocsv.MarshalWithoutHeaders([]*Record{{
		JobID:     job.ID,
		Service:   service,
		URL:       job.URL,
		RunID:     job.RunID,
		Phase:     string(job.Phase),
		Query:     strings.Join(strings.Fields(query), " "),
		CreatedAt: createdAt,
		UpdatedAt: now,
	}}, file)
}

// Remove drops a job given by id or url.
func (s *store) Remove(jobID string) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	kept := records[:0]
	for _, r := range records {
		if !r.matches(jobID) {
			kept = append(kept, r)
		}
	}

	if len(kept) == len(records) {
		return fmt.Errorf("job %s: %w", jobID, aqerrors.ErrNotFound)
	}

	return s.save(kept)
}

// UpdatePhase stores the last known phase of a job.
func (s *store) UpdatePhase(jobID string, phase uws.Phase) error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	records, err := s.load()
	if err != nil {
		return err
	}

	found := false
	for _, r := range records {
		if r.matches(jobID) {
			r.Phase = string(phase)
			r.UpdatedAt = time.Now().UTC()
			found = true
		}
	}

	if !found {
		return fmt.Errorf("job %s: %w", jobID, aqerrors.ErrNotFound)
	}

	return s.save(records)
}

// Get returns a job given by id or url.
func (s *store) Get(jobID string) (*Record, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	for _, r := range records {
		if r.matches(jobID) {
			return r, nil
		}
	}

	return nil, fmt.Errorf("job %s: %w", jobID, aqerrors.ErrNotFound)
}

// List returns the jobs, most recent first, optionally of one service.
func (s *store) List(service string) ([]*Record, error) {
	unlock, err := s.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	records, err := s.load()
	if err != nil {
		return nil, err
	}

	var result []*Record
	for _, r := range records {
		if service == "" || r.Service == service {
			result = append(result, r)
		}
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// Clear removes the history.
func (s *store) Clear() error {
	unlock, err := s.lock()
	if err != nil {
		return err
	}
	defer unlock()

	if err := os.Remove(s.filename()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return nil
}

// load reads every record, a missing file is an empty history.
func (s *store) load() ([]*Record, error) {
	file, err := os.Open(s.filename())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}

		return nil, err
	}
	defer file.Close()

	var records []*Record
	if err := gocsv.UnmarshalWithoutHeaders(file, &records); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}

		return nil, err
	}

	return records, nil
}

// save replaces the history file with records.
func (s *store) save(records []*Record) error {
	tmp, err := os.CreateTemp(s.baseDir, JobFileName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if len(records) > 0 {
		if err := gocsv.MarshalWithoutHeaders(records, tmp); err != nil {
			tmp.Close()
			return err
		}
	}

	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), s.filename())
}

// filename returns the history file name.
func (s *store) filename() string {
	return filepath.Join(s.baseDir, JobFileName)
}

// matches reports whether the record is the job given by id or url.
func (r *Record) matches(jobID string) bool {
	return r.JobID == jobID || (r.URL != "" && r.URL == jobID)
}
