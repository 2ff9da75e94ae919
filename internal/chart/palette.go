package chart

// Palette is the fixed bar color set, in assignment priority order: theme (or
// swimlane) N takes the Nth color, exhausting earlier entries first.
var Palette = []string{
	"#4F6BED", // blue
	"#2E9E6B", // green
	"#E8833A", // orange
	"#8A5CF5", // purple
	"#D64550", // red
	"#2AA3B8", // teal
}

// InPalette reports whether color is one of the fixed palette entries.
func InPalette(color string) bool {
	for _, c := range Palette {
		if c == color {
			return true
		}
	}
	return false
}
