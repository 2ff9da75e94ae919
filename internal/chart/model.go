// Package chart synthesizes a Gantt chart document from a grounding corpus
// through one schema-constrained completion call, and validates the result.
package chart

import "errors"

// ErrNoTasks marks a well-formed response that contains no usable chart data.
// It is a semantic failure, distinct from transport or parse failures: the
// input documents or the instruction should be revisited.
var ErrNoTasks = errors.New("no tasks found in the provided documents")

// ErrInvalidChart marks a response that violates the chart document invariants.
var ErrInvalidChart = errors.New("invalid chart document")

// ChartDocument is the synthesized chart: bucket labels forming the time axis,
// rows ordered so every task immediately follows its swimlane, and a legend
// describing the thematic color groupings (empty when colors are per-swimlane).
type ChartDocument struct {
	Title       string        `json:"title"`
	TimeColumns []string      `json:"timeColumns"`
	Data        []Row         `json:"data"`
	Legend      []LegendEntry `json:"legend"`
}

// Row is one chart row. Entity ties a task to its swimlane label; it is the
// analysis key, not a rendering hierarchy. Swimlane rows carry no bar.
type Row struct {
	Title      string `json:"title"`
	IsSwimlane bool   `json:"isSwimlane"`
	Entity     string `json:"entity"`
	Bar        *Bar   `json:"bar,omitempty"`
}

// Bar is a task's span over the time columns. StartCol is the 1-based index of
// the bucket containing the task's start; EndCol is the index of the bucket
// containing its end plus one (half-open interval). Both are null when the
// task's timing is unknown, but Color is always set.
type Bar struct {
	StartCol *int   `json:"startCol"`
	EndCol   *int   `json:"endCol"`
	Color    string `json:"color"`
}

// LegendEntry maps one palette color to its thematic label.
type LegendEntry struct {
	Color string `json:"color"`
	Label string `json:"label"`
}
