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

package uws

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/astroquery/astroquery-go/internal/aqerrors"
	"github.com/astroquery/astroquery-go/pkg/table"
)

// Job is the client side mirror of a UWS job document.
type Job struct {
	ID                string
	RunID             string
	OwnerID           string
	Phase             Phase
	Quote             time.Time
	CreationTime      time.Time
	StartTime         time.Time
	EndTime           time.Time
	ExecutionDuration time.Duration
	Destruction       time.Time
	Parameters        map[string]string
	Results           []Result
	ErrorSummary      *ErrorSummary

	// URL is the job location, set by the client that fetched the job.
	URL string
}

// Result references one result of a job.
type Result struct {
	ID       string
	Href     string
	Size     int64
	MimeType string
}

// ErrorSummary is the short error description of a failed job.
type ErrorSummary struct {
	Type      string
	HasDetail bool
	Message   string
}

// JobRef is an entry of a job list.
type JobRef struct {
	ID           string
	Href         string
	Phase        Phase
	RunID        string
	OwnerID      string
	CreationTime time.Time
}

type jobXML struct {
	XMLName           xml.Name         `xml:"job"`
	JobID             string           `xml:"jobId"`
	RunID             string           `xml:"runId"`
	OwnerID           string           `xml:"ownerId"`
	Phase             string           `xml:"phase"`
	Quote             string           `xml:"quote"`
	CreationTime      string           `xml:"creationTime"`
	StartTime         string           `xml:"startTime"`
	EndTime           string           `xml:"endTime"`
	ExecutionDuration string           `xml:"executionDuration"`
	Destruction       string           `xml:"destruction"`
	Parameters        []parameterXML   `xml:"parameters>parameter"`
	Results           []resultXML      `xml:"results>result"`
	ErrorSummary      *errorSummaryXML `xml:"errorSummary"`
}

type parameterXML struct {
	ID    string `xml:"id,attr"`
	Value string `xml:",chardata"`
}

type resultXML struct {
	ID       string `xml:"id,attr"`
	Href     string `xml:"href,attr"`
	Size     string `xml:"size,attr"`
	MimeType string `xml:"mime-type,attr"`
}

type errorSummaryXML struct {
	Type      string `xml:"type,attr"`
	HasDetail string `xml:"hasDetail,attr"`
	Message   string `xml:"message"`
}

type jobListXML struct {
	XMLName xml.Name    `xml:"jobs"`
	JobRefs []jobRefXML `xml:"jobref"`
}

type jobRefXML struct {
	ID           string `xml:"id,attr"`
	Href         string `xml:"href,attr"`
	Phase        string `xml:"phase"`
	RunID        string `xml:"runId"`
	OwnerID      string `xml:"ownerId"`
	CreationTime string `xml:"creationTime"`
}

// ParseJob decodes a UWS 1.0 or 1.1 job document.
func ParseJob(r io.Reader) (*Job, error) {
	var doc jobXML
	if err := decodeXML(r, &doc); err != nil {
		return nil, err
	}

	if strings.TrimSpace(doc.JobID) == "" {
		return nil, aqerrors.NewParseError("uws job", fmt.Errorf("document has no jobId"))
	}

	job := &Job{
		ID:           strings.TrimSpace(doc.JobID),
		RunID:        strings.TrimSpace(doc.RunID),
		OwnerID:      strings.TrimSpace(doc.OwnerID),
		Phase:        parsePhase(doc.Phase),
		Quote:        parseTime(doc.Quote),
		CreationTime: parseTime(doc.CreationTime),
		StartTime:    parseTime(doc.StartTime),
		EndTime:      parseTime(doc.EndTime),
		Destruction:  parseTime(doc.Destruction),
		Parameters:   make(map[string]string, len(doc.Parameters)),
	}

	if seconds, err := strconv.ParseInt(strings.TrimSpace(doc.ExecutionDuration), 10, 64); err == nil {
		job.ExecutionDuration = time.Duration(seconds) * time.Second
	}

	for _, p := range doc.Parameters {
		job.Parameters[strings.ToUpper(p.ID)] = strings.TrimSpace(p.Value)
	}

	for _, r := range doc.Results {
		size, _ := strconv.ParseInt(r.Size, 10, 64)
		job.Results = append(job.Results, Result{
			ID:       r.ID,
			Href:     r.Href,
			Size:     size,
			MimeType: r.MimeType,
		})
	}

	if doc.ErrorSummary != nil {
		job.ErrorSummary = &ErrorSummary{
			Type:      doc.ErrorSummary.Type,
			HasDetail: doc.ErrorSummary.HasDetail == "true",
			Message:   strings.TrimSpace(doc.ErrorSummary.Message),
		}
	}

	return job, nil
}

// ParseJobList decodes a UWS job list document.
func ParseJobList(r io.Reader) ([]JobRef, error) {
	var doc jobListXML
	if err := decodeXML(r, &doc); err != nil {
		return nil, err
	}

	refs := make([]JobRef, 0, len(doc.JobRefs))
	for _, ref := range doc.JobRefs {
		refs = append(refs, JobRef{
			ID:           ref.ID,
			Href:         ref.Href,
			Phase:        parsePhase(ref.Phase),
			RunID:        strings.TrimSpace(ref.RunID),
			OwnerID:      strings.TrimSpace(ref.OwnerID),
			CreationTime: parseTime(ref.CreationTime),
		})
	}

	return refs, nil
}

// ParsePhaseText decodes the plain text body of a {job}/phase resource.
func ParsePhaseText(body []byte) (Phase, error) {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return PhaseUnknown, fmt.Errorf("phase body: %w", aqerrors.ErrEmptyResponse)
	}

	return parsePhase(text), nil
}

// ResultHref returns the href of the result named id, or of the first result
// when id is empty.
func (j *Job) ResultHref(id string) (string, bool) {
	for _, r := range j.Results {
		if id == "" || r.ID == id {
			return r.Href, r.Href != ""
		}
	}

	return "", false
}

func decodeXML(r io.Reader, v any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return fmt.Errorf("uws document: %w", aqerrors.ErrEmptyResponse)
	}

	if err := xml.Unmarshal(data, v); err != nil {
		return aqerrors.NewParseError("uws", err)
	}

	return nil
}

// parsePhase maps unexpected values to PhaseUnknown.
func parsePhase(s string) Phase {
	phase, err := ParsePhase(s)
	if err != nil {
		return PhaseUnknown
	}

	return phase
}

func parseTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	t, err := table.ParseTime(s, table.TimeISO)
	if err != nil {
		return time.Time{}
	}

	return t
}
