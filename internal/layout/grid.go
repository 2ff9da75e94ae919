package layout

import (
	"time"

	"github.com/mapline/gantry/internal/chart"
)

// Geometry carries the pixel measurements the grid is laid out against.
// Values come from the rendering surface and may be absent (zero); layout
// functions that need them then decline instead of failing.
type Geometry struct {
	LabelWidthPx  float64
	ColumnWidthPx float64
	RowHeightPx   float64
}

// Column is one time bucket with its horizontal pixel placement.
type Column struct {
	Label   string
	XPx     float64
	WidthPx float64
}

// BarBox is a task bar's horizontal pixel placement.
type BarBox struct {
	XPx     float64
	WidthPx float64
	Color   string
}

// GridRow is one laid-out chart row.
type GridRow struct {
	Title      string
	IsSwimlane bool
	Entity     string
	YPx        float64
	Bar        *BarBox
}

// Grid is the full laid-out chart.
type Grid struct {
	Columns  []Column
	Rows     []GridRow
	WidthPx  float64
	HeightPx float64
}

// BuildGrid places the document on a pixel grid: one label column followed by
// one column per time bucket, one row per data entry. Bars with null columns
// produce no box. Bars are placed on the half-open [startCol, endCol)
// convention.
func BuildGrid(doc *chart.ChartDocument, geom Geometry) Grid {
	g := Grid{
		Columns: make([]Column, len(doc.TimeColumns)),
		Rows:    make([]GridRow, len(doc.Data)),
	}
	for i, label := range doc.TimeColumns {
		g.Columns[i] = Column{
			Label:   label,
			XPx:     geom.LabelWidthPx + float64(i)*geom.ColumnWidthPx,
			WidthPx: geom.ColumnWidthPx,
		}
	}
	for i, row := range doc.Data {
		gr := GridRow{
			Title:      row.Title,
			IsSwimlane: row.IsSwimlane,
			Entity:     row.Entity,
			YPx:        float64(i) * geom.RowHeightPx,
		}
		if row.Bar != nil && row.Bar.StartCol != nil && row.Bar.EndCol != nil {
			start, end := *row.Bar.StartCol, *row.Bar.EndCol
			gr.Bar = &BarBox{
				XPx:     geom.LabelWidthPx + float64(start-1)*geom.ColumnWidthPx,
				WidthPx: float64(end-start) * geom.ColumnWidthPx,
				Color:   row.Bar.Color,
			}
		}
		g.Rows[i] = gr
	}
	g.WidthPx = geom.LabelWidthPx + float64(len(doc.TimeColumns))*geom.ColumnWidthPx
	g.HeightPx = float64(len(doc.Data)) * geom.RowHeightPx
	return g
}

// TodayMarkerPx computes the marker's horizontal pixel position, or ok=false
// when the date has no bucket or the geometry is unusable. A missing marker
// is never an error; the overlay is best-effort.
func TodayMarkerPx(date time.Time, timeColumns []string, geom Geometry) (float64, bool) {
	if geom.ColumnWidthPx <= 0 {
		return 0, false
	}
	index, fraction, ok := TodayPosition(date, timeColumns)
	if !ok {
		return 0, false
	}
	return geom.LabelWidthPx + (float64(index)+fraction)*geom.ColumnWidthPx, true
}
