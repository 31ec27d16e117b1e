package registry

import (
	"encoding/json"
	"fmt"
	"math"
)

// Elapsed is the wall-clock duration of a finished job in seconds. It
// persists as a JSON number, or as the "-" sentinel while unset, matching
// the registry document format.
type Elapsed struct {
	Seconds float64
	Valid   bool
}

// ElapsedSeconds rounds to two decimals, the precision the registry stores.
func ElapsedSeconds(seconds float64) Elapsed {
	return Elapsed{Seconds: math.Round(seconds*100) / 100, Valid: true}
}

func (e Elapsed) String() string {
	if !e.Valid {
		return "-"
	}
	return trimFloat(e.Seconds)
}

func (e Elapsed) MarshalJSON() ([]byte, error) {
	if !e.Valid {
		return json.Marshal("-")
	}
	return json.Marshal(e.Seconds)
}

func (e *Elapsed) UnmarshalJSON(data []byte) error {
	var asNumber float64
	if err := json.Unmarshal(data, &asNumber); err == nil {
		*e = Elapsed{Seconds: asNumber, Valid: true}
		return nil
	}

	// Anything non-numeric ("-" or a legacy string) means unset.
	*e = Elapsed{}
	return nil
}

func trimFloat(v float64) string {
	if v == math.Trunc(v) {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

// Job tracks one submitted file through the pipeline.
type Job struct {
	FileName     string
	Status       Status
	Elapsed      Elapsed
	DownloadLink string

	// extra holds fields written by other (possibly newer) registry
	// versions; they survive a load/save round-trip untouched.
	extra map[string]json.RawMessage
}

// jobDocument is the persisted shape of one registry entry.
const (
	fieldStatus       = "status"
	fieldTime         = "time"
	fieldDownloadLink = "download_link"
)

func (j Job) MarshalJSON() ([]byte, error) {
	doc := make(map[string]json.RawMessage, len(j.extra)+3)
	for key, value := range j.extra {
		doc[key] = value
	}

	status, err := json.Marshal(j.Status.String())
	if err != nil {
		return nil, err
	}
	elapsed, err := json.Marshal(j.Elapsed)
	if err != nil {
		return nil, err
	}
	link, err := json.Marshal(j.DownloadLink)
	if err != nil {
		return nil, err
	}

	doc[fieldStatus] = status
	doc[fieldTime] = elapsed
	doc[fieldDownloadLink] = link
	return json.Marshal(doc)
}

func (j *Job) UnmarshalJSON(data []byte) error {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}

	parsed := Job{}
	for key, value := range doc {
		switch key {
		case fieldStatus:
			var raw string
			if err := json.Unmarshal(value, &raw); err != nil {
				return fmt.Errorf("decode job status: %w", err)
			}
			parsed.Status = ParseStatus(raw)
		case fieldTime:
			if err := json.Unmarshal(value, &parsed.Elapsed); err != nil {
				return fmt.Errorf("decode job time: %w", err)
			}
		case fieldDownloadLink:
			if err := json.Unmarshal(value, &parsed.DownloadLink); err != nil {
				return fmt.Errorf("decode job download link: %w", err)
			}
		default:
			if parsed.extra == nil {
				parsed.extra = make(map[string]json.RawMessage)
			}
			parsed.extra[key] = value
		}
	}

	parsed.FileName = j.FileName
	*j = parsed
	return nil
}
