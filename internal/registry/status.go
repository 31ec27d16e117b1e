package registry

import (
	"fmt"
	"strconv"
	"strings"
)

// Phase identifies where a job is in the pipeline.
type Phase int

const (
	PhasePending Phase = iota
	PhaseProcessing
	PhaseFragmenting
	PhaseTranscribing
	PhaseGeneratingDocument
	PhaseFinished
	PhaseError
)

// Status is one point in a job's lifecycle. Percent is meaningful only for
// PhaseTranscribing, Message only for PhaseError.
type Status struct {
	Phase   Phase
	Percent int
	Message string
}

func Pending() Status             { return Status{Phase: PhasePending} }
func Processing() Status          { return Status{Phase: PhaseProcessing} }
func Fragmenting() Status         { return Status{Phase: PhaseFragmenting} }
func GeneratingDocument() Status  { return Status{Phase: PhaseGeneratingDocument} }
func Finished() Status            { return Status{Phase: PhaseFinished} }
func Failed(message string) Status {
	return Status{Phase: PhaseError, Message: strings.TrimSpace(message)}
}

// Transcribing reports segment progress. The percent is clamped to 0..100.
func Transcribing(percent int) Status {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	return Status{Phase: PhaseTranscribing, Percent: percent}
}

const (
	labelPending            = "Pending"
	labelProcessing         = "Processing..."
	labelFragmenting        = "Fragmenting..."
	labelTranscribing       = "Transcribing..."
	labelGeneratingDocument = "Generating document..."
	labelFinished           = "Finished"
	labelErrorPrefix        = "Error"
)

// String renders the persisted form, e.g. "Transcribing... (42%)".
func (s Status) String() string {
	switch s.Phase {
	case PhasePending:
		return labelPending
	case PhaseProcessing:
		return labelProcessing
	case PhaseFragmenting:
		return labelFragmenting
	case PhaseTranscribing:
		return fmt.Sprintf("%s (%d%%)", labelTranscribing, s.Percent)
	case PhaseGeneratingDocument:
		return labelGeneratingDocument
	case PhaseFinished:
		return labelFinished
	case PhaseError:
		if s.Message == "" {
			return labelErrorPrefix
		}
		return labelErrorPrefix + ": " + s.Message
	default:
		return labelPending
	}
}

// ParseStatus reads a persisted status string back into a Status. Unknown
// strings come back as an error status carrying the raw value, so a registry
// written by a newer version still loads.
func ParseStatus(raw string) Status {
	trimmed := strings.TrimSpace(raw)
	switch trimmed {
	case labelPending, "":
		return Pending()
	case labelProcessing:
		return Processing()
	case labelFragmenting:
		return Fragmenting()
	case labelGeneratingDocument:
		return GeneratingDocument()
	case labelFinished:
		return Finished()
	case labelErrorPrefix:
		return Failed("")
	}

	if strings.HasPrefix(trimmed, labelTranscribing) {
		rest := strings.TrimSpace(strings.TrimPrefix(trimmed, labelTranscribing))
		rest = strings.TrimSuffix(strings.TrimPrefix(rest, "("), ")")
		rest = strings.TrimSuffix(rest, "%")
		if percent, err := strconv.Atoi(rest); err == nil {
			return Transcribing(percent)
		}
		return Transcribing(0)
	}

	if strings.HasPrefix(trimmed, labelErrorPrefix+":") {
		return Failed(strings.TrimPrefix(trimmed, labelErrorPrefix+":"))
	}

	return Failed(trimmed)
}

// Terminal reports whether no further automatic transitions occur.
func (s Status) Terminal() bool {
	return s.Phase == PhaseFinished || s.Phase == PhaseError
}

// Rank defines the total ordering used to check progress monotonicity:
// Pending < Processing < Fragmenting < Transcribing(0..100) <
// GeneratingDocument < Finished, with Error above everything as the other
// terminal branch.
func (s Status) Rank() int {
	switch s.Phase {
	case PhasePending:
		return 0
	case PhaseProcessing:
		return 1
	case PhaseFragmenting:
		return 2
	case PhaseTranscribing:
		return 3 + s.Percent
	case PhaseGeneratingDocument:
		return 104
	case PhaseFinished:
		return 105
	case PhaseError:
		return 106
	default:
		return 0
	}
}
