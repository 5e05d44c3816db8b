package report

import "strings"

// ActionBlock is one entry in NEXT ACTIONS. Action is required; Owner and
// Timebox are optional but affect completeness scoring.
type ActionBlock struct {
	Action  string `json:"action"`
	Owner   string `json:"owner,omitempty"`
	Timebox string `json:"timebox,omitempty"`
}

// BlindSpotBlock is one entry in BLIND SPOTS.
type BlindSpotBlock struct {
	Spot     string `json:"spot"`
	Question string `json:"question,omitempty"`
}

// AssumptionBlock is one entry in ASSUMPTIONS TO VALIDATE.
type AssumptionBlock struct {
	Assumption string `json:"assumption"`
	Validation string `json:"validation,omitempty"`
}

// fieldValue strips list markers from a line and, when it starts with the
// given field label (case-insensitive), returns the text after the colon.
func fieldValue(line, label string) (string, bool) {
	lt := strings.TrimSpace(line)
	lt = strings.TrimPrefix(lt, "- ")
	lt = strings.TrimPrefix(lt, "* ")
	lt = reNumBullet.ReplaceAllString(lt, "")
	if len(lt) < len(label) || !strings.EqualFold(lt[:len(label)], label) {
		return "", false
	}
	rest := strings.TrimSpace(lt[len(label):])
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(rest, ":")), true
}

// echoesHeader reports whether text is just one of the canonical section
// names. Guards against a backend echoing a header as block content.
func echoesHeader(text string) bool {
	key := normalizeKey(text)
	for _, sec := range Sections {
		if key == normalizeKey(string(sec)) {
			return true
		}
	}
	return false
}

// ParseActions parses NEXT ACTIONS lines. A line matching "Action: ..."
// opens a new block; subsequent "Owner:" / "Timebox:" lines populate it
// until the next "Action:" line. Blocks with an empty action, or whose
// action merely repeats a section header, are discarded.
func ParseActions(lines []string) []ActionBlock {
	var blocks []ActionBlock
	var cur *ActionBlock

	flush := func() {
		if cur == nil {
			return
		}
		if cur.Action != "" && !echoesHeader(cur.Action) {
			blocks = append(blocks, *cur)
		}
		cur = nil
	}

	for _, line := range lines {
		if v, ok := fieldValue(line, "action"); ok {
			flush()
			cur = &ActionBlock{Action: v}
			continue
		}
		if cur == nil {
			continue
		}
		if v, ok := fieldValue(line, "owner"); ok && cur.Owner == "" {
			cur.Owner = v
			continue
		}
		if v, ok := fieldValue(line, "timebox"); ok && cur.Timebox == "" {
			cur.Timebox = v
		}
	}
	flush()
	return blocks
}

// ParseBlindSpots parses BLIND SPOTS lines. "Blind spot: ..." opens a block
// and a following "Question:" line attaches to it. Blocks are deduplicated
// by the normalized spot text; repeats after the first are dropped.
func ParseBlindSpots(lines []string) []BlindSpotBlock {
	var blocks []BlindSpotBlock
	seen := make(map[string]bool)
	var cur *BlindSpotBlock

	flush := func() {
		if cur == nil {
			return
		}
		key := normalizeKey(cur.Spot)
		if cur.Spot != "" && !seen[key] {
			seen[key] = true
			blocks = append(blocks, *cur)
		}
		cur = nil
	}

	for _, line := range lines {
		if v, ok := fieldValue(line, "blind spot"); ok {
			flush()
			cur = &BlindSpotBlock{Spot: v}
			continue
		}
		if cur == nil {
			continue
		}
		if v, ok := fieldValue(line, "question"); ok && cur.Question == "" {
			cur.Question = v
		}
	}
	flush()
	return blocks
}

// ParseAssumptions parses ASSUMPTIONS TO VALIDATE lines as "Assumption:" /
// "Validation:" pairs. Duplicate Validation lines within one block (by
// normalized text) collapse to the first.
func ParseAssumptions(lines []string) []AssumptionBlock {
	var blocks []AssumptionBlock
	var cur *AssumptionBlock

	flush := func() {
		if cur == nil {
			return
		}
		if cur.Assumption != "" {
			blocks = append(blocks, *cur)
		}
		cur = nil
	}

	for _, line := range lines {
		if v, ok := fieldValue(line, "assumption"); ok {
			flush()
			cur = &AssumptionBlock{Assumption: v}
			continue
		}
		if cur == nil {
			continue
		}
		if v, ok := fieldValue(line, "validation"); ok && cur.Validation == "" {
			cur.Validation = v
		}
	}
	flush()
	return blocks
}
