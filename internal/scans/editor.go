package scans

import "strings"

// SplitLines turns newline-delimited user input back into a list, dropping
// blank lines. Editing happens on the joined text, so "A\n\nB\n" comes back
// as ["A", "B"].
func SplitLines(text string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// JoinLines renders a list as newline-delimited text for editing.
func JoinLines(items []string) string {
	return strings.Join(items, "\n")
}

// DraftEdit carries the reviewable fields of a draft. Nil means leave the
// field alone; list fields arrive as newline-delimited text.
type DraftEdit struct {
	Title        *string `json:"title"`
	FullText     *string `json:"full_text"`
	Materials    *string `json:"materials"`
	Measurements *string `json:"measurements"`
	Instructions *string `json:"instructions"`
}

// Apply writes the edit onto the draft. The draft's image fields and
// ownership are not editable.
func (e DraftEdit) Apply(draft *Draft) {
	if e.Title != nil {
		draft.Title = strings.TrimSpace(*e.Title)
	}
	if e.FullText != nil {
		draft.FullText = *e.FullText
	}
	if e.Materials != nil {
		draft.Materials = SplitLines(*e.Materials)
	}
	if e.Measurements != nil {
		draft.Measurements = SplitLines(*e.Measurements)
	}
	if e.Instructions != nil {
		draft.Instructions = SplitLines(*e.Instructions)
	}
}
