package report

import (
	"regexp"
	"strings"
)

var (
	reSeparator = regexp.MustCompile(`^\s*[-=_]{3,}\s*$`)
	reNumBullet = regexp.MustCompile(`^\d{1,2}[.)]\s+`)
)

// structuredPrefixes are block-opening lines the bulletizer must leave
// alone so the section parsers still match them.
var structuredPrefixes = []string{
	"action:", "owner:", "timebox:",
	"blind spot:", "question:",
	"assumption:", "validation:",
}

// Normalize cleans raw backend text into the form the diagnostics expect:
// unix line endings, no code fences or emphasis markers, canonical uppercase
// headers (first occurrence of each required header wins, repeats are
// dropped), "- " bullets, and near-identical bullets within a section
// collapsed to the first. When the text contains no bullet markers at all,
// paragraph lines under a recognized heading are converted into bullets so
// downstream parsing still functions.
//
// Normalize is idempotent: Normalize(Normalize(x)) == Normalize(x).
func Normalize(raw string) string {
	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "```", "")

	lines := strings.Split(text, "\n")

	hasBullets := false
	for _, line := range lines {
		if isBulletLine(normalizeLine(line)) {
			hasBullets = true
			break
		}
	}

	seenHeaders := make(map[Section]bool, len(Sections))
	seenBullets := make(map[string]bool)
	var current Section
	out := make([]string, 0, len(lines))

	for _, line := range lines {
		if sec, ok := CanonicalHeader(line); ok {
			if seenHeaders[sec] {
				continue
			}
			seenHeaders[sec] = true
			current = sec
			seenBullets = make(map[string]bool)
			out = append(out, string(sec)+":")
			continue
		}

		l := normalizeLine(line)
		if reSeparator.MatchString(l) {
			continue
		}

		switch {
		case isBulletLine(l):
			if current != "" {
				key := bulletKey(l)
				if key != "" {
					if seenBullets[key] {
						continue
					}
					seenBullets[key] = true
				}
			}
		case !hasBullets && current != "" && strings.TrimSpace(l) != "" &&
			!isStructuredLine(l) && !isHeadingLine(l):
			l = "- " + strings.TrimSpace(l)
			key := bulletKey(l)
			if key != "" {
				if seenBullets[key] {
					continue
				}
				seenBullets[key] = true
			}
		}

		out = append(out, l)
	}

	// Collapse runs of blank lines.
	collapsed := make([]string, 0, len(out))
	blank := true
	for _, l := range out {
		if strings.TrimSpace(l) == "" {
			if blank {
				continue
			}
			blank = true
			collapsed = append(collapsed, "")
			continue
		}
		blank = false
		collapsed = append(collapsed, l)
	}

	return strings.TrimSpace(strings.Join(collapsed, "\n"))
}

// normalizeLine strips emphasis markers and rewrites unicode or asterisk
// bullet markers to "- ". Indentation in front of bullets is dropped.
func normalizeLine(line string) string {
	l := strings.TrimRight(line, " \t")
	l = strings.ReplaceAll(l, "**", "")
	l = strings.ReplaceAll(l, "__", "")

	lt := strings.TrimLeft(l, " \t")
	for _, marker := range []string{"• ", "•", "‣ ", "* "} {
		if strings.HasPrefix(lt, marker) {
			return "- " + strings.TrimSpace(strings.TrimPrefix(lt, marker))
		}
	}
	if strings.HasPrefix(lt, "- ") {
		return "- " + strings.TrimSpace(strings.TrimPrefix(lt, "- "))
	}
	if reNumBullet.MatchString(lt) {
		return lt
	}
	return l
}

// isBulletLine reports whether a normalized line is a list item.
func isBulletLine(line string) bool {
	lt := strings.TrimLeft(line, " \t")
	return strings.HasPrefix(lt, "- ") || reNumBullet.MatchString(lt)
}

// bulletKey returns the dedup key for a list item: its content with the
// marker removed, lowercased, punctuation stripped.
func bulletKey(line string) string {
	lt := strings.TrimLeft(line, " \t")
	lt = strings.TrimPrefix(lt, "- ")
	lt = reNumBullet.ReplaceAllString(lt, "")
	return normalizeKey(lt)
}

// isStructuredLine reports whether a line opens or extends a semantic block
// (Action:, Blind spot:, Assumption: and their companions).
func isStructuredLine(line string) bool {
	lt := strings.ToLower(strings.TrimSpace(line))
	for _, p := range structuredPrefixes {
		if strings.HasPrefix(lt, p) {
			return true
		}
	}
	return false
}
