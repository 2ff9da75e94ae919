package analysis

import (
	"regexp"
	"strings"

	"github.com/mapline/gantry/internal/corpus"
)

// windowRadius bounds how far around a phrase the link scan looks.
const windowRadius = 400

var (
	htmlLinkRe     = regexp.MustCompile(`(?s)<a\s+[^>]*href="([^"]+)"[^>]*>(.*?)</a>`)
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\(([^)\s]+)\)`)
)

// ResolveSource attributes a verbatim corpus phrase to its source. The
// hierarchy is fixed: an HTML hyperlink near the phrase wins, then a
// Markdown link, then the originating filename from the corpus wrap markers.
// Lower tiers are consulted only when every higher tier finds nothing. A
// phrase absent from the corpus has no attributable source and is rejected.
func ResolveSource(corpusText, phrase string) (source, url string, err error) {
	idx := strings.Index(corpusText, phrase)
	if idx < 0 {
		return "", "", ErrUngroundedFact
	}

	// The scan never crosses file boundaries: a link in one document says
	// nothing about a phrase in another.
	lo := idx - windowRadius
	hi := idx + len(phrase) + windowRadius
	if blockLo, blockHi, ok := corpus.BlockBounds(corpusText, idx); ok {
		if lo < blockLo {
			lo = blockLo
		}
		if hi > blockHi {
			hi = blockHi
		}
	}
	if lo < 0 {
		lo = 0
	}
	if hi > len(corpusText) {
		hi = len(corpusText)
	}
	window := corpusText[lo:hi]
	anchor := idx - lo

	if text, target, ok := nearestLink(htmlLinkRe, window, anchor, 1, 2); ok {
		return text, target, nil
	}
	if text, target, ok := nearestLink(markdownLinkRe, window, anchor, 2, 1); ok {
		return text, target, nil
	}

	name := corpus.OriginFile(corpusText, idx)
	if name == "" {
		return "", "", ErrUngroundedFact
	}
	return name, "", nil
}

// nearestLink returns the text and target of the window's link closest to the
// phrase position, skipping links whose target is not http or https. urlGroup
// and textGroup name the capture group indices of the pattern.
func nearestLink(re *regexp.Regexp, window string, anchor, urlGroup, textGroup int) (text, target string, ok bool) {
	matches := re.FindAllStringSubmatchIndex(window, -1)
	best := -1
	bestDist := 0
	for i, m := range matches {
		u := window[m[2*urlGroup]:m[2*urlGroup+1]]
		if !allowedURL(u) {
			continue
		}
		dist := m[0] - anchor
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best, bestDist = i, dist
		}
	}
	if best < 0 {
		return "", "", false
	}
	m := matches[best]
	target = window[m[2*urlGroup]:m[2*urlGroup+1]]
	text = strings.TrimSpace(window[m[2*textGroup]:m[2*textGroup+1]])
	if text == "" {
		text = target
	}
	return text, target, true
}

func allowedURL(u string) bool {
	return strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://")
}
