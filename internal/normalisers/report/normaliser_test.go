package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finsight-labs/finsight-cli/internal/core/domain"
	"github.com/finsight-labs/finsight-cli/internal/core/ports/driven"
)

func normalise(t *testing.T, pages ...string) *driven.NormaliseResult {
	t.Helper()

	result, err := New().Normalise(context.Background(), pages)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func TestInterfaceCompliance(t *testing.T) {
	var _ driven.Normaliser = (*Normaliser)(nil)
}

func TestNormalise_Deterministic(t *testing.T) {
	pages := []string{
		"Quarterly Overview\n\nRevenue   grew strongly in the peri-\nod under review.",
		"Quarterly Overview\n\n42\n\nOperating margin improved.",
		"Quarterly Overview\n\nCash flow remained positive.",
	}

	first := normalise(t, pages...)
	second := normalise(t, pages...)

	assert.Equal(t, first.Text, second.Text)
	assert.Equal(t, first.Stats, second.Stats)
}

func TestNormalise_HyphenRepair(t *testing.T) {
	result := normalise(t, "The com-\npany reported strong growth.")

	assert.Contains(t, result.Text, "The company reported")
	assert.NotContains(t, result.Text, "com-")
}

func TestNormalise_HyphenRepairWithTrailingSpace(t *testing.T) {
	result := normalise(t, "The com- \n pany reported growth.")

	assert.Contains(t, result.Text, "company")
}

func TestNormalise_InvisibleCharacters(t *testing.T) {
	result := normalise(t, "Total\u00a0revenue was $60.9 billion\u200b and \u25cf margins held.")

	assert.Contains(t, result.Text, "Total revenue was $60.9 billion")
	assert.Contains(t, result.Text, "\u2022 margins")
	assert.NotContains(t, result.Text, "\u00a0")
	assert.NotContains(t, result.Text, "\u200b")
}

func TestNormalise_KeepsCurrencySymbols(t *testing.T) {
	result := normalise(t, "Revenue of ₹500 crore and €2.1 billion.")

	assert.Contains(t, result.Text, "₹500")
	assert.Contains(t, result.Text, "€2.1")
}

func TestNormalise_HeaderFooterRemoval(t *testing.T) {
	// The header recurs on 9 of 10 pages; a one-off line does not.
	pages := make([]string, 10)
	for i := range pages {
		body := fmt.Sprintf("Body paragraph for section %c with enough substance to keep.", 'A'+i)
		if i < 9 {
			pages[i] = "Annual Report 2024\n" + body
		} else {
			pages[i] = "A line appearing only once\n" + body
		}
	}

	result := normalise(t, pages...)

	assert.NotContains(t, result.Text, "Annual Report 2024")
	assert.Contains(t, result.Text, "A line appearing only once")
	assert.GreaterOrEqual(t, result.Stats.LinesRemoved, 9)
}

func TestNormalise_HeaderThresholdRetainsMinority(t *testing.T) {
	// Present on 2 of 5 pages: below the majority threshold, retained.
	pages := []string{
		"Risk Factors\nBody one has real content.",
		"Risk Factors\nBody two has real content.",
		"Body three has real content.",
		"Body four has real content.",
		"Body five has real content.",
	}

	result := normalise(t, pages...)
	assert.Contains(t, result.Text, "Risk Factors")
}

func TestNormalise_SinglePageNeverStripsHeaders(t *testing.T) {
	result := normalise(t, "Annual Report 2024\nThe only page of content.")

	assert.Contains(t, result.Text, "Annual Report 2024")
}

func TestNormalise_PageNumberLines(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"bare number", "42"},
		{"page prefix", "Page 42"},
		{"page of total", "Page 42 of 300"},
		{"dash framed", "- 42 -"},
		{"whitespace padded", "   7   "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result := normalise(t, "First paragraph of content.\n"+tc.line+"\nSecond paragraph of content.")

			assert.Equal(t, "First paragraph of content.\n\nSecond paragraph of content.", result.Text)
		})
	}
}

func TestNormalise_FiveDigitLineKept(t *testing.T) {
	// Five digits is data (e.g. a figure), not a page number.
	result := normalise(t, "Headcount summary.\n52000\nEnd of table.")

	assert.Contains(t, result.Text, "52000")
}

func TestNormalise_BlankLineCollapse(t *testing.T) {
	result := normalise(t, "First paragraph.\n\n\n\n\nSecond paragraph.")

	assert.Contains(t, result.Text, "First paragraph.\n\nSecond paragraph.")
	assert.NotContains(t, result.Text, "\n\n\n")
}

func TestNormalise_IntraLineWhitespace(t *testing.T) {
	result := normalise(t, "Revenue    grew\t\tby  twelve   percent.")

	assert.Equal(t, "Revenue grew by twelve percent.", result.Text)
}

func TestNormalise_TableRowNormalised(t *testing.T) {
	row := "2024   60.9   126   17   4.4   29.8   12   7"
	result := normalise(t, "Financial highlights follow.\n"+row)

	assert.Contains(t, result.Text, "2024 60.9 126 17 4.4 29.8 12 7")
}

func TestNormalise_ProseLineUntouchedByTableHeuristic(t *testing.T) {
	line := "The company delivered substantial shareholder returns during the year."
	result := normalise(t, line)

	assert.Equal(t, line, result.Text)
}

func TestNormalise_TrimsLinesAndDocument(t *testing.T) {
	result := normalise(t, "   Leading space line\nTrailing space line   \n\n   ")

	assert.Equal(t, "Leading space line\nTrailing space line", result.Text)
}

func TestNormalise_NoPageMarkersInOutput(t *testing.T) {
	result := normalise(t, "Page one content.", "Page two content.")

	assert.NotContains(t, result.Text, pageMarker)
}

func TestNormalise_EmptyInput(t *testing.T) {
	result := normalise(t)

	assert.Empty(t, result.Text)
	assert.Zero(t, result.Stats.OriginalChars)
	assert.Zero(t, result.Stats.CleanedChars)
}

func TestNormalise_Stats(t *testing.T) {
	result := normalise(t, "Some content here.\n\n\n\nMore content.")

	assert.Positive(t, result.Stats.OriginalChars)
	assert.Positive(t, result.Stats.CleanedChars)
	assert.LessOrEqual(t, result.Stats.CleanedChars, result.Stats.OriginalChars)
}

func TestWithHeaderThreshold(t *testing.T) {
	n := New(WithHeaderThreshold(0.9))
	assert.InDelta(t, 0.9, n.headerThreshold, 0.0001)

	// Out-of-range values are ignored.
	n = New(WithHeaderThreshold(1.5))
	assert.InDelta(t, domain.DefaultHeaderThreshold, n.headerThreshold, 0.0001)
}

func TestRunStage_ErrorRestoresInput(t *testing.T) {
	st := &state{text: "original"}
	failing := stage{
		name: "boom",
		apply: func(st *state) error {
			st.text = "mangled"
			return errors.New("malformed input")
		},
	}

	err := runStage(failing, st)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStageFailed)
	assert.Equal(t, "original", st.text)
}

func TestRunStage_PanicRestoresInput(t *testing.T) {
	st := &state{text: "original"}
	panicking := stage{
		name: "boom",
		apply: func(st *state) error {
			st.text = "mangled"
			panic("slice out of range")
		},
	}

	err := runStage(panicking, st)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrStageFailed)
	assert.Contains(t, err.Error(), "boom")
	assert.Equal(t, "original", st.text)
}

func TestNormalise_PathologicalInputSurvives(t *testing.T) {
	// Normalise never fails outright even for pathological input.
	result := normalise(t, strings.Repeat("\x00", 100))

	assert.NotNil(t, result)
	assert.Empty(t, result.Text)
	assert.Empty(t, result.Warnings)
}
