package transcript

import "strings"

// Span is one transcribed utterance with start/end offsets in seconds.
type Span struct {
	Start float64
	End   float64
	Text  string
}

// Transcript is the ordered reassembly of all spans for one file.
type Transcript struct {
	Spans []Span
}

// PlainText joins the span texts with newline separators. The result is
// fully determined by span order.
func (t Transcript) PlainText() string {
	texts := make([]string, 0, len(t.Spans))
	for _, span := range t.Spans {
		texts = append(texts, span.Text)
	}
	return strings.Join(texts, "\n")
}

// Option configures Assemble.
type Option func(*assembleOptions)

type assembleOptions struct {
	segmentSeconds float64
}

// OffsetBySegment shifts each segment's spans by its index times
// segmentSeconds, placing them on the source file's global timeline. The
// splitter cuts fixed-length chunks, so only the final chunk is shorter and
// the cumulative offset of segment i is exactly i*segmentSeconds.
func OffsetBySegment(segmentSeconds float64) Option {
	return func(o *assembleOptions) {
		o.segmentSeconds = segmentSeconds
	}
}

// Assemble concatenates per-segment span lists, in the order given, into a
// single transcript. The caller must pass the lists in segment-index order;
// no reordering or deduplication happens here.
func Assemble(spanLists [][]Span, opts ...Option) Transcript {
	var options assembleOptions
	for _, opt := range opts {
		opt(&options)
	}

	total := 0
	for _, spans := range spanLists {
		total += len(spans)
	}

	assembled := make([]Span, 0, total)
	for i, spans := range spanLists {
		offset := 0.0
		if options.segmentSeconds > 0 {
			offset = float64(i) * options.segmentSeconds
		}
		for _, span := range spans {
			assembled = append(assembled, Span{
				Start: span.Start + offset,
				End:   span.End + offset,
				Text:  span.Text,
			})
		}
	}

	return Transcript{Spans: assembled}
}
