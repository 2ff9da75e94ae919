package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mapline/gantry/internal/gemini"
)

// ErrIncompleteAnalysis marks a response that resolved a status but omitted
// the narrative field that status requires.
var ErrIncompleteAnalysis = errors.New("analysis missing required narrative")

// FallbackAnswer is returned verbatim when a follow-up question cannot be
// answered from the corpus. It is a successful result, not an error.
const FallbackAnswer = "I don't have enough information in the provided documents to answer that."

// completer is the completion capability the analyst needs. *gemini.Client
// satisfies it.
type completer interface {
	CompleteStructured(ctx context.Context, instruction, user string, schema map[string]any, opts gemini.GenOptions) (json.RawMessage, error)
	CompleteText(ctx context.Context, instruction, user string, opts gemini.GenOptions) (string, error)
}

// Analyst runs per-task analysis and follow-up Q&A against the corpus.
// The anchor function supplies the reference date for status computation.
type Analyst struct {
	completer completer
	anchor    func() time.Time
	logger    *zap.Logger
}

func NewAnalyst(c completer, anchor func() time.Time, logger *zap.Logger) *Analyst {
	if anchor == nil {
		anchor = func() time.Time { return time.Now().UTC().Truncate(24 * time.Hour) }
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyst{completer: c, anchor: anchor, logger: logger}
}

// analysisInstruction and analysisSchema are authored together; the prose
// rules and the shape descriptor describe the same contract.
const analysisInstruction = `You are a project research assistant. You will receive research documents and one task to analyze. Today's date is %s.

Extract from the documents, for the given task only:
- startDate and endDate in YYYY-MM-DD form, or empty strings when the documents do not state them.
- facts: statements about the task copied VERBATIM from the documents. Never paraphrase, summarize, or infer. If a sentence supports the task, copy it exactly as written, including punctuation. Keep any inline link markup that appears inside the copied text.
- assumptions: verbatim statements that imply something about the task without stating it outright. Same verbatim rule.
- rationale: if the task is still running or has not started as of today's date, a short explanation of what remains and why, grounded in the documents.
- summary: if the task finished before today's date, a short account of what was done, grounded in the documents.

Use only the documents. Do not invent facts, dates, or sources. Return only the JSON object.`

func analysisSchema() map[string]any {
	phrases := map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"taskName":    map[string]any{"type": "string"},
			"startDate":   map[string]any{"type": "string"},
			"endDate":     map[string]any{"type": "string"},
			"facts":       phrases,
			"assumptions": phrases,
			"rationale":   map[string]any{"type": "string"},
			"summary":     map[string]any{"type": "string"},
		},
		"required": []string{"taskName", "facts", "assumptions"},
	}
}

type analysisReply struct {
	TaskName    string   `json:"taskName"`
	StartDate   string   `json:"startDate"`
	EndDate     string   `json:"endDate"`
	Facts       []string `json:"facts"`
	Assumptions []string `json:"assumptions"`
	Rationale   string   `json:"rationale"`
	Summary     string   `json:"summary"`
}

// Analyze extracts grounded facts and assumptions for one task, derives its
// status against the anchor date, and attributes every statement to a source
// in the corpus.
func (a *Analyst) Analyze(ctx context.Context, id TaskIdentifier, corpusText string) (*AnalysisResult, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	if corpusText == "" {
		return nil, ErrEmptyCorpus
	}

	anchor := a.anchor()
	instruction := fmt.Sprintf(analysisInstruction, anchor.Format(dateLayout))
	user := fmt.Sprintf("TASK: %s\nGROUP: %s\n\nRESEARCH DOCUMENTS:\n%s", id.TaskName, id.Entity, corpusText)

	raw, err := a.completer.CompleteStructured(ctx, instruction, user, analysisSchema(), gemini.GenOptions{
		Temperature: 0,
		TopP:        0.95,
		TopK:        40,
	})
	if err != nil {
		return nil, err
	}
	var reply analysisReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("analysis does not match schema: %w", err)
	}

	result := &AnalysisResult{
		TaskName:  id.TaskName,
		StartDate: reply.StartDate,
		EndDate:   reply.EndDate,
		Status:    DeriveStatus(reply.StartDate, reply.EndDate, anchor),
	}
	for _, phrase := range reply.Facts {
		source, url, err := ResolveSource(corpusText, phrase)
		if err != nil {
			return nil, fmt.Errorf("fact %q: %w", phrase, err)
		}
		result.Facts = append(result.Facts, Fact{Fact: phrase, Source: source, URL: url})
	}
	for _, phrase := range reply.Assumptions {
		source, url, err := ResolveSource(corpusText, phrase)
		if err != nil {
			return nil, fmt.Errorf("assumption %q: %w", phrase, err)
		}
		result.Assumptions = append(result.Assumptions, Assumption{Assumption: phrase, Source: source, URL: url})
	}

	switch result.Status {
	case StatusCompleted:
		if reply.Summary == "" {
			return nil, fmt.Errorf("%w: summary for completed task", ErrIncompleteAnalysis)
		}
		result.Summary = reply.Summary
	case StatusInProgress, StatusNotStarted:
		if reply.Rationale == "" {
			return nil, fmt.Errorf("%w: rationale for %s task", ErrIncompleteAnalysis, result.Status)
		}
		result.Rationale = reply.Rationale
	}

	a.logger.Debug("task analyzed",
		zap.String("task", id.TaskName),
		zap.String("status", result.Status),
		zap.Int("facts", len(result.Facts)),
		zap.Int("assumptions", len(result.Assumptions)),
	)
	return result, nil
}

const answerInstruction = `You are a project research assistant answering a follow-up question about one task, using ONLY the research documents provided.

Rules:
- Answer only from the documents. Never use outside knowledge and never speculate.
- If the documents do not contain enough information to answer, reply with exactly this sentence and nothing else: ` + FallbackAnswer + `
- Reply with the answer text alone: no preamble, no headings, no JSON.`

// Answer responds to a follow-up question about a task. A question the corpus
// cannot answer yields FallbackAnswer as a normal result.
func (a *Analyst) Answer(ctx context.Context, id TaskIdentifier, question, corpusText string) (string, error) {
	if err := id.Validate(); err != nil {
		return "", err
	}
	question, err := ValidateQuestion(question)
	if err != nil {
		return "", err
	}
	if corpusText == "" {
		return "", ErrEmptyCorpus
	}

	user := fmt.Sprintf("TASK: %s\nGROUP: %s\n\nRESEARCH DOCUMENTS:\n%s\n\nQUESTION: %s", id.TaskName, id.Entity, corpusText, question)
	return a.completer.CompleteText(ctx, answerInstruction, user, gemini.GenOptions{
		Temperature: 0.4,
		TopP:        0.95,
		TopK:        40,
	})
}
