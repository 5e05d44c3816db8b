// Package report validates free-text decision reports against the structural
// contract every backend is prompted to follow: seven required sections, with
// semantic blocks inside NEXT ACTIONS, BLIND SPOTS and ASSUMPTIONS TO
// VALIDATE. Parsing is deterministic and tolerant of markdown decoration,
// scrambled case and duplicated headings.
package report

import (
	"regexp"
	"strings"
)

// Section is one of the seven required report sections.
type Section string

const (
	SectionBestOption  Section = "BEST OPTION"
	SectionRationale   Section = "RATIONALE"
	SectionTopRisks    Section = "TOP RISKS"
	SectionAssumptions Section = "ASSUMPTIONS TO VALIDATE"
	SectionHalfLife    Section = "HALF-LIFE"
	SectionBlindSpots  Section = "BLIND SPOTS"
	SectionNextActions Section = "NEXT ACTIONS"
)

// Sections lists the required sections in canonical report order.
var Sections = []Section{
	SectionBestOption,
	SectionRationale,
	SectionTopRisks,
	SectionAssumptions,
	SectionHalfLife,
	SectionBlindSpots,
	SectionNextActions,
}

var (
	reMarkdownHeading = regexp.MustCompile(`^\s{0,3}#{1,6}\s+`)
	reNumberPrefix    = regexp.MustCompile(`^\d{1,2}[.)]\s+`)
	reSpaces          = regexp.MustCompile(`\s+`)
	reAllCapsLine     = regexp.MustCompile(`^[A-Z][A-Z0-9 \-/&]{2,60}:?$`)
)

// stripDecoration removes markdown heading markers, bold/italic wrappers,
// bullet prefixes and a trailing colon from a line, leaving bare text.
func stripDecoration(line string) string {
	s := strings.TrimSpace(line)
	s = reMarkdownHeading.ReplaceAllString(s, "")
	s = reNumberPrefix.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, "- ")
	s = strings.TrimPrefix(s, "* ")
	s = strings.TrimSuffix(s, ":")
	s = strings.Trim(s, "*_")
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ":")
	return strings.TrimSpace(s)
}

// CanonicalHeader reports whether a line is one of the seven required
// headers in any accepted decoration (markdown heading, bold, ALL CAPS,
// colon-terminated, scrambled case) and returns its canonical form.
func CanonicalHeader(line string) (Section, bool) {
	s := stripDecoration(line)
	if s == "" || len(s) > 60 {
		return "", false
	}
	s = strings.ToUpper(s)
	s = reSpaces.ReplaceAllString(s, " ")
	if s == "HALF LIFE" {
		s = "HALF-LIFE"
	}
	for _, sec := range Sections {
		if s == string(sec) {
			return sec, true
		}
	}
	return "", false
}

// isHeadingLine reports whether a line looks like a heading of any kind:
// a canonical header, a markdown heading, or a short ALL-CAPS line. Used
// as a section boundary when slicing.
func isHeadingLine(line string) bool {
	if _, ok := CanonicalHeader(line); ok {
		return true
	}
	trimmed := strings.TrimSpace(line)
	if reMarkdownHeading.MatchString(trimmed) {
		return true
	}
	bare := stripDecoration(trimmed)
	if bare == "" {
		return false
	}
	// Bulleted content is never a heading even when shouty.
	if strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") {
		return false
	}
	return reAllCapsLine.MatchString(trimmed) && len(strings.Fields(bare)) <= 6
}

// FindMissingHeaders scans text for heading-like lines, maps each to one of
// the seven canonical sections, and returns the subset never seen, in
// canonical order.
func FindMissingHeaders(text string) []Section {
	seen := make(map[Section]bool, len(Sections))
	for _, line := range strings.Split(text, "\n") {
		if sec, ok := CanonicalHeader(line); ok {
			seen[sec] = true
		}
	}
	var missing []Section
	for _, sec := range Sections {
		if !seen[sec] {
			missing = append(missing, sec)
		}
	}
	return missing
}

// SliceSection returns the lines strictly between the first occurrence of
// the given header and the next heading line. Nil when the header is absent.
func SliceSection(text string, sec Section) []string {
	lines := strings.Split(text, "\n")
	start := -1
	for i, line := range lines {
		if got, ok := CanonicalHeader(line); ok && got == sec {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil
	}
	var body []string
	for _, line := range lines[start:] {
		if isHeadingLine(line) {
			break
		}
		body = append(body, line)
	}
	return body
}

// normalizeKey collapses a string to a case- and punctuation-insensitive
// comparison key for deduplication.
func normalizeKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		}
	}
	return b.String()
}
