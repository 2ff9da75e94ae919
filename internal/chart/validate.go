package chart

import "fmt"

// Validate checks the structural invariants of a synthesized document:
// bars are half-open intervals within the column range, every task follows
// a swimlane that shares its entity, no swimlane is empty, and every color
// comes from the fixed palette.
func Validate(doc *ChartDocument) error {
	cols := len(doc.TimeColumns)
	currentLane := ""
	laneTasks := 0

	for i, row := range doc.Data {
		if row.Title == "" {
			return fmt.Errorf("%w: row %d has no title", ErrInvalidChart, i)
		}
		if row.IsSwimlane {
			if currentLane != "" && laneTasks == 0 {
				return fmt.Errorf("%w: swimlane %q has no tasks", ErrInvalidChart, currentLane)
			}
			if row.Bar != nil {
				return fmt.Errorf("%w: swimlane %q carries a bar", ErrInvalidChart, row.Title)
			}
			currentLane = row.Entity
			if currentLane == "" {
				currentLane = row.Title
			}
			laneTasks = 0
			continue
		}

		if currentLane == "" {
			return fmt.Errorf("%w: task %q appears before any swimlane", ErrInvalidChart, row.Title)
		}
		if row.Entity != currentLane {
			return fmt.Errorf("%w: task %q has entity %q under swimlane %q", ErrInvalidChart, row.Title, row.Entity, currentLane)
		}
		laneTasks++

		if row.Bar == nil {
			return fmt.Errorf("%w: task %q has no bar", ErrInvalidChart, row.Title)
		}
		if err := validateBar(row.Bar, row.Title, cols); err != nil {
			return err
		}
	}
	if currentLane != "" && laneTasks == 0 {
		return fmt.Errorf("%w: swimlane %q has no tasks", ErrInvalidChart, currentLane)
	}
	if len(doc.Data) > 0 && currentLane == "" {
		return fmt.Errorf("%w: no swimlane rows", ErrInvalidChart)
	}

	for _, entry := range doc.Legend {
		if !InPalette(entry.Color) {
			return fmt.Errorf("%w: legend color %q not in palette", ErrInvalidChart, entry.Color)
		}
		if entry.Label == "" {
			return fmt.Errorf("%w: legend entry with empty label", ErrInvalidChart)
		}
	}
	return nil
}

func validateBar(bar *Bar, task string, cols int) error {
	if !InPalette(bar.Color) {
		return fmt.Errorf("%w: task %q color %q not in palette", ErrInvalidChart, task, bar.Color)
	}
	if (bar.StartCol == nil) != (bar.EndCol == nil) {
		return fmt.Errorf("%w: task %q has a half-specified bar", ErrInvalidChart, task)
	}
	if bar.StartCol == nil {
		return nil
	}
	start, end := *bar.StartCol, *bar.EndCol
	if start < 1 || end > cols+1 || end <= start {
		return fmt.Errorf("%w: task %q bar [%d,%d) outside [1,%d]", ErrInvalidChart, task, start, end, cols+1)
	}
	return nil
}
