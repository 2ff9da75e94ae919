package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"html"
	"io"
	"regexp"
	"strings"
)

// docxDocumentXMLPath is the default path to the main document body inside a .docx zip.
const docxDocumentXMLPath = "word/document.xml"

// docxRelsPath is the relationships part mapping r:id values to hyperlink targets.
const docxRelsPath = "word/_rels/document.xml.rels"

// contentTypesPath is the path to [Content_Types].xml in OOXML packages.
const contentTypesPath = "[Content_Types].xml"

// docxMainContentType is the content type for the main document in DOCX files.
const docxMainContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"

// hyperlinkRelType identifies hyperlink relationships in the rels part.
const hyperlinkRelType = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/hyperlink"

// wpTag matches one paragraph element, including its attributes and content.
var wpTag = regexp.MustCompile(`(?s)<w:p[ >].*?</w:p>|<w:p/>`)

// wtTag matches <w:t>text</w:t> or <w:t xml:space="preserve">text</w:t> (and any other attributes).
var wtTag = regexp.MustCompile(`<w:t[^>]*>([^<]*)</w:t>`)

// hyperlinkTag matches a <w:hyperlink r:id="..."> element and captures the id and inner XML.
var hyperlinkTag = regexp.MustCompile(`(?s)<w:hyperlink[^>]*r:id="([^"]+)"[^>]*>(.*?)</w:hyperlink>`)

// partNameRe extracts PartName from Override elements in [Content_Types].xml.
var partNameRe = regexp.MustCompile(`<Override[^>]+PartName="([^"]+)"[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"`)

// partNameRe2 handles the case where ContentType appears before PartName.
var partNameRe2 = regexp.MustCompile(`<Override[^>]+ContentType="` + regexp.QuoteMeta(docxMainContentType) + `"[^>]+PartName="([^"]+)"`)

// extractDOCX converts .docx bytes to an HTML-flavored text representation.
// DOCX is a ZIP containing word/document.xml (OOXML). Each paragraph becomes one
// output line built from its <w:t> runs; <w:hyperlink> elements are rewritten to
// <a href="target">text</a> using targets from word/_rels/document.xml.rels, so
// downstream source attribution can see the original links. Library extractors in
// this space emit plain text only, which would lose the hyperlink markup.
func extractDOCX(content []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("not a zip: %w", err)
	}

	docPath := findDocxMainDocumentPath(zr)
	if docPath == "" {
		docPath = docxDocumentXMLPath
	}

	docXML, err := readZipFile(zr, docPath)
	if err != nil {
		return "", err
	}
	if docXML == nil {
		return "", fmt.Errorf("%s not found", docPath)
	}

	rels := readHyperlinkRels(zr)

	paragraphs := wpTag.FindAllString(string(docXML), -1)
	var lines []string
	for _, p := range paragraphs {
		line := paragraphText(p, rels)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

// paragraphText renders one paragraph's runs, replacing hyperlink elements with
// anchor markup. Runs outside hyperlinks pass through as escaped-XML text.
func paragraphText(p string, rels map[string]string) string {
	var b strings.Builder
	pos := 0
	for {
		loc := hyperlinkTag.FindStringSubmatchIndex(p[pos:])
		if loc == nil {
			break
		}
		b.WriteString(runText(p[pos : pos+loc[0]]))
		id := p[pos+loc[2] : pos+loc[3]]
		linkText := runText(p[pos+loc[4] : pos+loc[5]])
		if target := rels[id]; target != "" && linkText != "" {
			b.WriteString(`<a href="` + html.EscapeString(target) + `">` + linkText + `</a>`)
		} else {
			b.WriteString(linkText)
		}
		pos += loc[1]
	}
	b.WriteString(runText(p[pos:]))
	return strings.TrimSpace(b.String())
}

// runText concatenates the inner text of all <w:t> runs in the given XML fragment,
// decoding XML entities.
func runText(fragment string) string {
	parts := wtTag.FindAllStringSubmatch(fragment, -1)
	if len(parts) == 0 {
		return ""
	}
	var b strings.Builder
	for _, m := range parts {
		b.WriteString(html.UnescapeString(m[1]))
	}
	return b.String()
}

// relationshipsXML is the shape of word/_rels/document.xml.rels.
type relationshipsXML struct {
	Relationships []struct {
		ID     string `xml:"Id,attr"`
		Type   string `xml:"Type,attr"`
		Target string `xml:"Target,attr"`
	} `xml:"Relationship"`
}

// readHyperlinkRels returns a map of relationship id to external hyperlink target.
// A missing or malformed rels part yields an empty map; link text then degrades to
// plain text rather than failing the extraction.
func readHyperlinkRels(zr *zip.Reader) map[string]string {
	rels := make(map[string]string)
	data, err := readZipFile(zr, docxRelsPath)
	if err != nil || data == nil {
		return rels
	}
	var parsed relationshipsXML
	if err := xml.Unmarshal(data, &parsed); err != nil {
		return rels
	}
	for _, r := range parsed.Relationships {
		if r.Type == hyperlinkRelType && r.Target != "" {
			rels[r.ID] = r.Target
		}
	}
	return rels
}

// readZipFile returns the content of the named file in the archive, or nil when absent.
func readZipFile(zr *zip.Reader, name string) ([]byte, error) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		data, err := io.ReadAll(rc)
		_ = rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		return data, nil
	}
	return nil, nil
}

// findDocxMainDocumentPath finds the main document path from [Content_Types].xml.
// Returns the path without leading slash, or empty string if not found.
func findDocxMainDocumentPath(zr *zip.Reader) string {
	data, err := readZipFile(zr, contentTypesPath)
	if err != nil || data == nil {
		return ""
	}
	content := string(data)
	// Try both attribute orders
	if matches := partNameRe.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	if matches := partNameRe2.FindStringSubmatch(content); len(matches) > 1 {
		return strings.TrimPrefix(matches[1], "/")
	}
	return ""
}
