package scraper

import (
	"bytes"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gradscan/gradscan/internal/model"
)

// Outcome classifies the result of parsing one listing page.
//
// Design decision: The parser returns a tagged outcome instead of an
// error because "no records here" is not exceptional: an empty page is
// the expected terminal condition when pagination runs past the last
// page, and a structurally broken page is a transient condition the
// orchestrator counts rather than aborts on.
type Outcome int

const (
	// OutcomeOK means the page parsed and the records slice is valid
	// (possibly still empty if every row was noise).
	OutcomeOK Outcome = iota

	// OutcomeEmpty means the expected record container is absent or holds
	// no rows. This is the end-of-data signal.
	OutcomeEmpty

	// OutcomeError means the page could not be parsed at all.
	OutcomeError
)

// String returns the outcome name for logging.
func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeEmpty:
		return "empty"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Pattern extractors for the per-record detail blob. Each is independent
// and failure-tolerant: no match leaves the field unset.
var (
	// resultLinkRegex matches the per-record detail link, whose numeric
	// segment is the stable record identifier.
	resultLinkRegex = regexp.MustCompile(`^/result/(\d+)$`)

	termRegex     = regexp.MustCompile(`(?i)\b(Fall|Spring|Summer)\s+(\d{4})\b`)
	gpaRegex      = regexp.MustCompile(`(?i)\bGPA\s*([0-4]\.\d{1,2}|[0-4])\b`)
	greVRegex     = regexp.MustCompile(`(?i)\bV\s*[:\-]?\s*(\d{2,3})\b`)
	greQRegex     = regexp.MustCompile(`(?i)\bQ\s*[:\-]?\s*(\d{2,3})\b`)
	greAWRegex    = regexp.MustCompile(`(?i)\bAW\s*[:\-]?\s*([\d.]+)\b`)
	intlRegex     = regexp.MustCompile(`(?i)\bInternational\b`)
	americanRegex = regexp.MustCompile(`(?i)\bAmerican\b`)
)

// seasonCaser normalizes the matched term season ("fall" -> "Fall") so the
// stored term is always "Fall|Spring|Summer YYYY" regardless of how the
// source text capitalized it.
var seasonCaser = cases.Title(language.English)

// minMainRowCells is the minimum number of direct cells a row must carry,
// together with a result link, to count as the main row of a record.
const minMainRowCells = 4

// Parser transforms one listing page body into records.
//
// Design decision: We use golang.org/x/net/html rather than regex over
// the raw markup because:
//  1. It correctly handles the malformed HTML the survey serves
//  2. The row-grouping rule needs real element structure, not patterns
//  3. Standard library extension, well-maintained
type Parser struct {
	// baseURL resolves the relative detail links into absolute URLs.
	baseURL *url.URL
}

// NewParser creates a Parser resolving record links against baseURL.
func NewParser(baseURL string) (*Parser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: u}, nil
}

// Parse transforms a page body into zero or more records plus an outcome.
//
// Records are not one-row-per-record: each logical record spans one main
// row (>= 4 primary cells and a result link) followed by zero or more
// detail rows whose flattened text feeds the pattern extractors, and at
// most one comment row carrying a nested text block. A row that is
// neither a main row nor follows one is noise and contributes nothing;
// this deliberately mirrors the defensive policy of the earlier pipeline
// iterations rather than trying to salvage such rows.
func (p *Parser) Parse(body []byte) ([]model.Record, Outcome) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, OutcomeError
	}

	tbody := findFirst(doc, "tbody")
	if tbody == nil {
		return nil, OutcomeEmpty
	}

	rows := directChildren(tbody, "tr")
	if len(rows) == 0 {
		return nil, OutcomeEmpty
	}

	records := make([]model.Record, 0, len(rows)/2)
	for i := 0; i < len(rows); {
		rec, next, ok := p.extractRecord(rows, i)
		if ok {
			records = append(records, rec)
		}
		i = next
	}
	return records, OutcomeOK
}

// extractRecord parses one logical record starting at rows[start].
// It returns the record, the index of the next unconsumed row, and
// whether rows[start] was a main row at all.
func (p *Parser) extractRecord(rows []*html.Node, start int) (model.Record, int, bool) {
	row := rows[start]
	cells := directChildren(row, "td")
	href, id := resultLink(row)
	if len(cells) < minMainRowCells || id == "" {
		// Noise row: too few cells and/or no identifier link.
		return model.Record{}, start + 1, false
	}

	rec := model.Record{
		ResultID:   id,
		URL:        p.resolveURL(href),
		University: flattenText(cells[0]),
		DateAdded:  flattenText(cells[2]),
		Status:     flattenText(cells[3]),
	}
	rec.Program, rec.Degree = programLabels(cells[1])

	blob, comment, next := p.detailBlob(rows, start)
	rec.Comments = comment
	applyDetailPatterns(&rec, blob)

	return rec, next, true
}

// detailBlob consumes the rows following a main row until the next main
// row (or the end of the row list), returning their combined flattened
// text, the text of the last non-empty nested paragraph as the comment,
// and the index of the first unconsumed row.
func (p *Parser) detailBlob(rows []*html.Node, start int) (blob, comment string, next int) {
	var chunks []string
	j := start + 1
	for j < len(rows) {
		row := rows[j]
		if _, id := resultLink(row); id != "" && len(directChildren(row, "td")) >= minMainRowCells {
			break
		}
		if text := flattenText(row); text != "" {
			chunks = append(chunks, text)
		}
		if para := findFirst(row, "p"); para != nil {
			if text := flattenText(para); text != "" {
				comment = text
			}
		}
		j++
	}
	return strings.Join(chunks, " "), comment, j
}

// applyDetailPatterns runs the independent extractors over the detail
// blob. Each extractor tolerates absence: no match leaves the field unset.
func applyDetailPatterns(rec *model.Record, blob string) {
	if m := termRegex.FindStringSubmatch(blob); m != nil {
		rec.Term = seasonCaser.String(strings.ToLower(m[1])) + " " + m[2]
	}
	switch {
	case intlRegex.MatchString(blob):
		rec.Citizenship = "International"
	case americanRegex.MatchString(blob):
		rec.Citizenship = "American"
	}
	if m := gpaRegex.FindStringSubmatch(blob); m != nil {
		rec.GPA = m[1]
	}
	if m := greVRegex.FindStringSubmatch(blob); m != nil {
		rec.GREVerbal = m[1]
	}
	if m := greQRegex.FindStringSubmatch(blob); m != nil {
		rec.GREQuant = m[1]
	}
	if m := greAWRegex.FindStringSubmatch(blob); m != nil {
		rec.GREAW = m[1]
	}
}

// programLabels extracts the program name and the optional degree label
// from the program cell. The cell nests each label in its own span; when
// no span exists, the whole cell text is the program.
func programLabels(cell *html.Node) (program, degree string) {
	spans := descendants(cell, "span")
	if len(spans) == 0 {
		return flattenText(cell), ""
	}
	program = flattenText(spans[0])
	if len(spans) >= 2 {
		degree = flattenText(spans[1])
	}
	return program, degree
}

// resultLink finds the first anchor in the row whose href is a detail
// link, returning the href and the embedded identifier.
func resultLink(row *html.Node) (href, id string) {
	for _, a := range descendants(row, "a") {
		h := getAttr(a, "href")
		if m := resultLinkRegex.FindStringSubmatch(h); m != nil {
			return h, m[1]
		}
	}
	return "", ""
}

// resolveURL resolves a detail link against the parser's base URL.
func (p *Parser) resolveURL(href string) string {
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.baseURL.ResolveReference(u).String()
}

// findFirst returns the first descendant element with the given tag name,
// or nil.
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// directChildren returns the element children of n with the given tag
// name, skipping nested occurrences.
func directChildren(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == tag {
			out = append(out, c)
		}
	}
	return out
}

// descendants returns all descendant elements with the given tag name in
// document order.
func descendants(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(m *html.Node) {
		if m != n && m.Type == html.ElementNode && m.Data == tag {
			out = append(out, m)
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}

// flattenText returns the whitespace-normalized text content of a node:
// text fragments joined by single spaces, leading/trailing space removed.
func flattenText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(m *html.Node) {
		if m.Type == html.TextNode {
			b.WriteString(m.Data)
			b.WriteString(" ")
		}
		for c := m.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
