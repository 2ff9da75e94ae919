// Package corpus assembles normalized document text into a single grounding
// corpus and holds it in a session-keyed store for analysis and Q&A requests.
package corpus

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// File is one normalized document ready for corpus assembly.
type File struct {
	Name string
	Text string
}

// BeginMarker returns the start delimiter wrapping one file's content.
func BeginMarker(name string) string {
	return "===== BEGIN FILE: " + name + " ====="
}

// EndMarker returns the end delimiter wrapping one file's content.
func EndMarker(name string) string {
	return "===== END FILE: " + name + " ====="
}

// Assemble concatenates the files into one corpus string. Files are sorted by
// name with a locale-aware collator so the result is identical regardless of
// upload order; each file's text is wrapped between markers carrying the
// literal filename. Returns the corpus and the ordered filename list.
func Assemble(files []File) (string, []string) {
	sorted := make([]File, len(files))
	copy(sorted, files)
	c := collate.New(language.Und)
	sort.SliceStable(sorted, func(i, j int) bool {
		return c.CompareString(sorted[i].Name, sorted[j].Name) < 0
	})

	var b strings.Builder
	names := make([]string, 0, len(sorted))
	for i, f := range sorted {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(BeginMarker(f.Name))
		b.WriteByte('\n')
		b.WriteString(f.Text)
		b.WriteByte('\n')
		b.WriteString(EndMarker(f.Name))
		names = append(names, f.Name)
	}
	return b.String(), names
}

const (
	beginPrefix  = "===== BEGIN FILE: "
	markerSuffix = " ====="
	endPrefix    = "===== END FILE: "
)

// OriginFile returns the filename of the file block containing the given byte
// offset, by scanning backwards for the nearest begin marker. Returns "" when
// the offset precedes all markers or the corpus carries none.
func OriginFile(corpus string, offset int) string {
	if offset < 0 || offset > len(corpus) {
		return ""
	}
	i := strings.LastIndex(corpus[:offset], beginPrefix)
	if i < 0 {
		return ""
	}
	rest := corpus[i+len(beginPrefix):]
	end := strings.Index(rest, markerSuffix)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// BlockBounds returns the content span of the file block containing offset,
// excluding the wrap markers. ok is false when offset lies outside any block.
func BlockBounds(corpus string, offset int) (lo, hi int, ok bool) {
	if offset < 0 || offset > len(corpus) {
		return 0, 0, false
	}
	begin := strings.LastIndex(corpus[:offset], beginPrefix)
	if begin < 0 {
		return 0, 0, false
	}
	nl := strings.IndexByte(corpus[begin:], '\n')
	if nl < 0 {
		return 0, 0, false
	}
	lo = begin + nl + 1
	rel := strings.Index(corpus[offset:], "\n"+endPrefix)
	if rel < 0 {
		return 0, 0, false
	}
	hi = offset + rel
	if lo > hi {
		return 0, 0, false
	}
	return lo, hi, true
}
