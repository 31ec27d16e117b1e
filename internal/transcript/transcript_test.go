package transcript

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleConcatenatesInSegmentOrder(t *testing.T) {
	t.Parallel()

	lists := [][]Span{
		{{Start: 0, End: 2, Text: "uno"}, {Start: 2, End: 4, Text: "dos"}},
		{{Start: 0, End: 1, Text: "tres"}},
		{},
		{{Start: 0.5, End: 3, Text: "cuatro"}},
	}

	tr := Assemble(lists)
	require.Len(t, tr.Spans, 4)
	require.Equal(t, "uno", tr.Spans[0].Text)
	require.Equal(t, "tres", tr.Spans[2].Text)
	require.Equal(t, "cuatro", tr.Spans[3].Text)
}

func TestAssembleSpanCountEqualsSumOfSegments(t *testing.T) {
	t.Parallel()

	lists := [][]Span{
		make([]Span, 3),
		make([]Span, 0),
		make([]Span, 5),
	}

	tr := Assemble(lists)
	require.Len(t, tr.Spans, 8)
}

func TestAssembleWithOffsetProducesNonDecreasingTimes(t *testing.T) {
	t.Parallel()

	lists := [][]Span{
		{{Start: 0, End: 10, Text: "a"}, {Start: 10, End: 29, Text: "b"}},
		{{Start: 0, End: 12, Text: "c"}},
		{{Start: 1, End: 8, Text: "d"}},
	}

	tr := Assemble(lists, OffsetBySegment(30))
	require.Len(t, tr.Spans, 4)
	require.Equal(t, 30.0, tr.Spans[2].Start)
	require.Equal(t, 61.0, tr.Spans[3].Start)

	previousEnd := 0.0
	for _, span := range tr.Spans {
		require.GreaterOrEqual(t, span.Start, previousEnd-1e-9)
		require.GreaterOrEqual(t, span.End, span.Start)
		previousEnd = span.Start
	}
}

func TestAssembleWithoutOffsetKeepsSegmentLocalTimes(t *testing.T) {
	t.Parallel()

	lists := [][]Span{
		{{Start: 0, End: 5, Text: "a"}},
		{{Start: 0, End: 5, Text: "b"}},
	}

	tr := Assemble(lists)
	require.Equal(t, 0.0, tr.Spans[1].Start)
}

func TestPlainTextJoinsSpansWithNewlines(t *testing.T) {
	t.Parallel()

	tr := Transcript{Spans: []Span{
		{Text: "first line"},
		{Text: "second line"},
		{Text: "third line"},
	}}
	require.Equal(t, "first line\nsecond line\nthird line", tr.PlainText())
}

func TestPlainTextEmptyTranscript(t *testing.T) {
	t.Parallel()

	require.Equal(t, "", Transcript{}.PlainText())
}
