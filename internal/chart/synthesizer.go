package chart

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mapline/gantry/internal/gemini"
)

// structuredCompleter is the completion capability the synthesizer needs.
// *gemini.Client satisfies it.
type structuredCompleter interface {
	CompleteStructured(ctx context.Context, instruction, user string, schema map[string]any, opts gemini.GenOptions) (json.RawMessage, error)
}

// Synthesizer turns an instruction plus a grounding corpus into a validated
// ChartDocument through a single schema-constrained completion call.
type Synthesizer struct {
	completer structuredCompleter
	logger    *zap.Logger
}

func NewSynthesizer(completer structuredCompleter, logger *zap.Logger) *Synthesizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Synthesizer{completer: completer, logger: logger}
}

// synthesisInstruction and responseSchema describe the same contract twice,
// once as rules for the model and once as a formal shape. They live side by
// side in this file so a change to one is a change to both.
const synthesisInstruction = `You are a project planning assistant. You will receive research documents and a user instruction. Build a Gantt chart from them as a single JSON object.

TIME HORIZON
- If the user instruction states an explicit date range, use it.
- Otherwise derive the range [earliest date, latest date] across every date mentioned in the documents.

TIME COLUMNS
Pick exactly one bucket granularity from the total horizon duration and fill timeColumns with consecutive bucket labels covering the whole horizon:
- 3 months or less: weekly buckets labeled "W<ISO week number> <year>", e.g. "W46 2025".
- 4 to 12 months: monthly buckets labeled "<3-letter month> <year>", e.g. "Nov 2025".
- 1 to 3 years: quarterly buckets labeled "Q<1-4> <year>", e.g. "Q4 2025".
- More than 3 years: yearly buckets labeled "<year>", e.g. "2025".
Use the same label format for every column.

ROWS
- Group the work into logical swimlanes (workstreams, teams, phases, or whatever grouping the documents support).
- Emit each swimlane as a row with isSwimlane true, entity equal to its own title, and no bar.
- Immediately after each swimlane row, emit all of its task rows with isSwimlane false and entity set to the swimlane title. Never emit a swimlane with zero tasks.

BARS
- startCol is the 1-based index of the timeColumns bucket containing the task's start date.
- endCol is the 1-based index of the bucket containing the task's end date, plus one (the interval is half-open: the bar occupies [startCol, endCol)).
- A task whose timing cannot be determined from the documents gets startCol and endCol both null, but must still carry a color.

COLORS AND LEGEND
Allowed colors, in priority order: %s. Use them in this order, exhausting earlier colors before later ones.
- First, look for 2 to 6 thematic groupings that cut across swimlanes. If they exist, assign each theme one distinct color and add one legend entry {color, label} per theme. Every bar takes its theme's color.
- If no coherent themes exist, assign one distinct color per swimlane instead and emit an empty legend.

OUTPUT
Return only the JSON object. Every string value must be valid JSON string content: escape embedded quotes and newlines.`

// SynthesisInstruction returns the system instruction with the palette
// interpolated in priority order.
func SynthesisInstruction() string {
	return fmt.Sprintf(synthesisInstruction, strings.Join(Palette, ", "))
}

// ResponseSchema returns the formal shape descriptor matching
// SynthesisInstruction. Callers must not mutate the returned map.
func ResponseSchema() map[string]any {
	bar := map[string]any{
		"type":     "object",
		"nullable": true,
		"properties": map[string]any{
			"startCol": map[string]any{"type": "integer", "nullable": true},
			"endCol":   map[string]any{"type": "integer", "nullable": true},
			"color":    map[string]any{"type": "string", "enum": Palette},
		},
		"required": []string{"color"},
	}
	row := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":      map[string]any{"type": "string"},
			"isSwimlane": map[string]any{"type": "boolean"},
			"entity":     map[string]any{"type": "string"},
			"bar":        bar,
		},
		"required": []string{"title", "isSwimlane", "entity"},
	}
	legendEntry := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"color": map[string]any{"type": "string", "enum": Palette},
			"label": map[string]any{"type": "string"},
		},
		"required": []string{"color", "label"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":       map[string]any{"type": "string"},
			"timeColumns": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"data":        map[string]any{"type": "array", "items": row},
			"legend":      map[string]any{"type": "array", "items": legendEntry},
		},
		"required": []string{"title", "timeColumns", "data", "legend"},
	}
}

// Synthesize runs one completion call and returns the validated document.
// An empty but well-formed chart is ErrNoTasks; structural violations are
// ErrInvalidChart. Both are semantic failures the caller should not retry
// without changing the inputs.
func (s *Synthesizer) Synthesize(ctx context.Context, instruction, corpusText string) (*ChartDocument, error) {
	user := fmt.Sprintf("USER INSTRUCTION:\n%s\n\nRESEARCH DOCUMENTS:\n%s", instruction, corpusText)

	raw, err := s.completer.CompleteStructured(ctx, SynthesisInstruction(), user, ResponseSchema(), gemini.GenOptions{
		Temperature: 0,
		TopP:        0.95,
		TopK:        40,
	})
	if err != nil {
		return nil, err
	}

	var doc ChartDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("chart document does not match schema: %w", err)
	}
	if len(doc.TimeColumns) == 0 || len(doc.Data) == 0 {
		return nil, ErrNoTasks
	}
	if err := Validate(&doc); err != nil {
		return nil, err
	}

	s.logger.Debug("chart synthesized",
		zap.String("title", doc.Title),
		zap.Int("columns", len(doc.TimeColumns)),
		zap.Int("rows", len(doc.Data)),
		zap.Int("legend", len(doc.Legend)),
	)
	return &doc, nil
}
