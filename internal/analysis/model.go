// Package analysis produces citation-grounded task analyses and follow-up
// answers from the uploaded corpus. Facts and assumptions are verbatim corpus
// phrases; their sources are resolved deterministically after the completion
// call, never invented by the model.
package analysis

import (
	"errors"
	"strings"
	"time"
)

// Input validation failures. These are rejected before any external call.
var (
	ErrInvalidIdentifier = errors.New("task name and entity are required")
	ErrInvalidQuestion   = errors.New("question must be non-empty and at most 1000 characters")
	ErrEmptyCorpus       = errors.New("no documents uploaded for this session")
)

// ErrUngroundedFact marks an extracted fact or assumption whose phrase cannot
// be located in the corpus, so no source can be attributed to it.
var ErrUngroundedFact = errors.New("extracted statement not found in the corpus")

// maxQuestionLen bounds follow-up question length.
const maxQuestionLen = 1000

// TaskIdentifier keys a task for analysis and follow-up questions. It is not
// globally unique: the same task name may appear under several entities.
type TaskIdentifier struct {
	TaskName string `json:"taskName"`
	Entity   string `json:"entity"`
}

// Validate reports whether both identifier fields are present.
func (id TaskIdentifier) Validate() error {
	if strings.TrimSpace(id.TaskName) == "" || strings.TrimSpace(id.Entity) == "" {
		return ErrInvalidIdentifier
	}
	return nil
}

// ValidateQuestion trims the question and checks the length bound, returning
// the trimmed form.
func ValidateQuestion(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" || len(q) > maxQuestionLen {
		return "", ErrInvalidQuestion
	}
	return q, nil
}

// Task status values relative to the anchor date.
const (
	StatusCompleted  = "completed"
	StatusInProgress = "in-progress"
	StatusNotStarted = "not-started"
	StatusNA         = "n/a"
)

// Fact is one verbatim corpus statement with its attributed source. URL is
// empty unless the statement sits next to an in-corpus hyperlink with an
// http or https target.
type Fact struct {
	Fact   string `json:"fact"`
	Source string `json:"source"`
	URL    string `json:"url,omitempty"`
}

// Assumption mirrors Fact under the "assumption" key.
type Assumption struct {
	Assumption string `json:"assumption"`
	Source     string `json:"source"`
	URL        string `json:"url,omitempty"`
}

// AnalysisResult is the full per-task analysis. Rationale is set when the
// task is in progress or not started; Summary when it is completed.
type AnalysisResult struct {
	TaskName    string       `json:"taskName"`
	StartDate   string       `json:"startDate,omitempty"`
	EndDate     string       `json:"endDate,omitempty"`
	Status      string       `json:"status"`
	Facts       []Fact       `json:"facts"`
	Assumptions []Assumption `json:"assumptions"`
	Rationale   string       `json:"rationale,omitempty"`
	Summary     string       `json:"summary,omitempty"`
}

const dateLayout = "2006-01-02"

// DeriveStatus computes the task status from its span and the anchor date.
// Missing or unparseable dates yield StatusNA.
func DeriveStatus(startDate, endDate string, anchor time.Time) string {
	start, errS := time.Parse(dateLayout, startDate)
	end, errE := time.Parse(dateLayout, endDate)
	if errS != nil || errE != nil {
		return StatusNA
	}
	switch {
	case end.Before(anchor):
		return StatusCompleted
	case start.After(anchor):
		return StatusNotStarted
	default:
		return StatusInProgress
	}
}
