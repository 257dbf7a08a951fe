package sections

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_NoHeadingsSingleSection(t *testing.T) {
	b := NewBuilder()

	pages := []string{
		"First page body sentence ends here.",
		"Second page continues the same flow of text.",
	}
	secs := b.Build("notes.pdf", pages)

	require.Len(t, secs, 1)
	assert.Equal(t, "notes.pdf", secs[0].Path)
	assert.Equal(t, 1, secs[0].Level)
	assert.Equal(t, 1, secs[0].PageStart)
	assert.Equal(t, 2, secs[0].PageEnd)
	assert.Contains(t, secs[0].Text, "First page body sentence ends here.")
	assert.Contains(t, secs[0].Text, "Second page continues the same flow of text.")
}

func TestBuilder_HeadingStartsNewSection(t *testing.T) {
	b := NewBuilder()

	pages := []string{
		"Preamble text before any heading appears at all.\nINTRODUCTION\nThe introduction body explains the aims of the work.",
		"2.3 Methodology\nThe methodology body describes the sampling approach.",
	}
	secs := b.Build("paper.pdf", pages)

	require.Len(t, secs, 3)

	assert.Equal(t, "paper.pdf", secs[0].Path)
	assert.Equal(t, 1, secs[0].Level)

	assert.Equal(t, "paper.pdf > Introduction", secs[1].Path)
	assert.Equal(t, 2, secs[1].Level)
	assert.Equal(t, 1, secs[1].PageStart)
	assert.Equal(t, 2, secs[1].PageEnd)
	assert.Contains(t, secs[1].Text, "explains the aims")

	assert.Equal(t, "paper.pdf > 2.3 Methodology", secs[2].Path)
	assert.Equal(t, 2, secs[2].Level)
	assert.Equal(t, 2, secs[2].PageStart)
	assert.Equal(t, 2, secs[2].PageEnd)
}

func TestBuilder_HeadingWithNoBodyDiscarded(t *testing.T) {
	b := NewBuilder()

	pages := []string{"CONCLUSIONS"}
	secs := b.Build("empty.pdf", pages)

	assert.Empty(t, secs)
}

func TestBuilder_BulletsNormalised(t *testing.T) {
	b := NewBuilder()

	pages := []string{
		"The list of findings is reproduced below, in order.\n- first item was found.\n* second item was found.\n(c) third item was found.",
	}
	secs := b.Build("list.pdf", pages)

	require.Len(t, secs, 1)
	assert.Contains(t, secs[0].Text, "• first item was found.")
	assert.Contains(t, secs[0].Text, "• second item was found.")
	assert.Contains(t, secs[0].Text, "• third item was found.")
}

func TestBuilder_BlankPagesSkipped(t *testing.T) {
	b := NewBuilder()

	pages := []string{
		"",
		"Body text starts on the second physical page here.",
		"   \n  ",
		"And resumes on the fourth page without a break.",
	}
	secs := b.Build("gaps.pdf", pages)

	require.Len(t, secs, 1)
	assert.Equal(t, 2, secs[0].PageStart)
	assert.Equal(t, 4, secs[0].PageEnd)
}

func TestBuilder_BlankRunsCollapse(t *testing.T) {
	b := NewBuilder()

	pages := []string{
		"Paragraph one ends with a period.\n\n\n\nParagraph two follows after a large gap.",
	}
	secs := b.Build("spacing.pdf", pages)

	require.Len(t, secs, 1)
	assert.Equal(t, "Paragraph one ends with a period.\n\nParagraph two follows after a large gap.", secs[0].Text)
}

func TestBuilder_EmptyInput(t *testing.T) {
	b := NewBuilder()

	assert.Nil(t, b.Build("void.pdf", nil))
	assert.Nil(t, b.Build("void.pdf", []string{"", "  "}))
}
