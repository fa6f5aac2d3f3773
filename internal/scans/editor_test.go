package scans

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitLinesDropsBlanks(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, SplitLines("A\n\nB\n"))
	assert.Equal(t, []string{"50cm", "20cm"}, SplitLines("  50cm  \n20cm"))
	assert.Equal(t, []string{}, SplitLines(""))
	assert.Equal(t, []string{}, SplitLines("\n\n\n"))
}

func TestJoinThenSplitRoundTrip(t *testing.T) {
	items := []string{"Cortar la madera", "Unir las piezas"}
	assert.Equal(t, items, SplitLines(JoinLines(items)))
}

func TestDraftEditApplyPartial(t *testing.T) {
	draft := &Draft{
		Title:        "Project 1/2/2026",
		FullText:     "texto",
		Materials:    []string{"Madera", "Tornillos"},
		Measurements: []string{"50cm"},
		Instructions: []string{"Cortar"},
		ImageURL:     "https://bucket/images/u/1-a.jpg",
	}

	materials := "Madera\n\nClavos\n"
	title := "  Estantería  "
	DraftEdit{Title: &title, Materials: &materials}.Apply(draft)

	assert.Equal(t, "Estantería", draft.Title)
	assert.Equal(t, []string{"Madera", "Clavos"}, draft.Materials)
	// Untouched fields stay put.
	assert.Equal(t, "texto", draft.FullText)
	assert.Equal(t, []string{"50cm"}, draft.Measurements)
	assert.Equal(t, "https://bucket/images/u/1-a.jpg", draft.ImageURL)
}

func TestDraftEditEditsAreIndependent(t *testing.T) {
	original := []string{"Madera"}
	draft := &Draft{Materials: append([]string(nil), original...)}

	materials := "Metal"
	DraftEdit{Materials: &materials}.Apply(draft)

	assert.Equal(t, []string{"Metal"}, draft.Materials)
	assert.Equal(t, []string{"Madera"}, original)
}
