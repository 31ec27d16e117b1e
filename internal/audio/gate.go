package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

var ErrInvalidWAV = errors.New("invalid wav file")

// GateMetrics summarizes the signal level of one normalized segment.
type GateMetrics struct {
	RMSdBFS  float64
	PeakdBFS float64
	Samples  int64
}

// IsSilentSegment reports whether a segment carries no usable signal and can
// skip transcription. It only understands the 16-bit PCM WAV layout the
// normalization pass itself produces. The peak gate sits 6 dB above the RMS
// threshold so a short click does not count as speech.
func IsSilentSegment(path string, thresholdDBFS float64) (bool, GateMetrics, error) {
	metrics, err := analyzeSegment(path)
	if err != nil {
		return false, GateMetrics{}, err
	}

	if metrics.Samples == 0 {
		return true, metrics, nil
	}
	if math.IsInf(metrics.RMSdBFS, -1) && math.IsInf(metrics.PeakdBFS, -1) {
		return true, metrics, nil
	}

	return metrics.RMSdBFS <= thresholdDBFS && metrics.PeakdBFS <= thresholdDBFS+6, metrics, nil
}

func analyzeSegment(path string) (GateMetrics, error) {
	f, err := os.Open(path)
	if err != nil {
		return GateMetrics{}, fmt.Errorf("open segment: %w", err)
	}
	defer f.Close()

	data, err := pcm16Data(f)
	if err != nil {
		return GateMetrics{}, err
	}

	var peak, sumSquares float64
	samples := int64(len(data) / 2)
	for i := 0; i+2 <= len(data); i += 2 {
		value := float64(int16(binary.LittleEndian.Uint16(data[i:i+2]))) / 32768.0
		abs := math.Abs(value)
		if abs > peak {
			peak = abs
		}
		sumSquares += value * value
	}

	if samples == 0 {
		return GateMetrics{RMSdBFS: math.Inf(-1), PeakdBFS: math.Inf(-1)}, nil
	}

	rms := math.Sqrt(sumSquares / float64(samples))
	return GateMetrics{
		RMSdBFS:  amplitudeToDBFS(rms),
		PeakdBFS: amplitudeToDBFS(peak),
		Samples:  samples,
	}, nil
}

// pcm16Data walks the RIFF chunks and returns the raw bytes of the data
// chunk of a 16-bit PCM file.
func pcm16Data(f *os.File) ([]byte, error) {
	header := make([]byte, 12)
	if _, err := io.ReadFull(f, header); err != nil {
		return nil, fmt.Errorf("%w: short header", ErrInvalidWAV)
	}
	if string(header[:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		return nil, ErrInvalidWAV
	}

	var (
		data     []byte
		validFmt bool
	)
	for {
		chunkHeader := make([]byte, 8)
		if _, err := io.ReadFull(f, chunkHeader); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return nil, fmt.Errorf("read wav chunk header: %w", err)
		}

		chunkID := string(chunkHeader[:4])
		chunkSize := binary.LittleEndian.Uint32(chunkHeader[4:8])
		skip := int64(chunkSize)
		if chunkSize%2 != 0 {
			skip++
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < 16 {
				return nil, ErrInvalidWAV
			}
			buf := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, buf); err != nil {
				return nil, fmt.Errorf("read wav fmt chunk: %w", err)
			}
			format := binary.LittleEndian.Uint16(buf[0:2])
			bits := binary.LittleEndian.Uint16(buf[14:16])
			if format != 1 || bits != 16 {
				return nil, fmt.Errorf("%w: not 16-bit pcm", ErrInvalidWAV)
			}
			validFmt = true
			if chunkSize%2 != 0 {
				if _, err := f.Seek(1, io.SeekCurrent); err != nil {
					return nil, fmt.Errorf("seek wav fmt padding: %w", err)
				}
			}
		case "data":
			buf := make([]byte, chunkSize)
			if _, err := io.ReadFull(f, buf); err != nil {
				return nil, fmt.Errorf("read wav data chunk: %w", err)
			}
			data = buf
			if chunkSize%2 != 0 {
				if _, err := f.Seek(1, io.SeekCurrent); err != nil {
					return nil, fmt.Errorf("seek wav data padding: %w", err)
				}
			}
		default:
			if _, err := f.Seek(skip, io.SeekCurrent); err != nil {
				return nil, fmt.Errorf("seek wav chunk %s: %w", chunkID, err)
			}
		}
	}

	if !validFmt || data == nil {
		return nil, ErrInvalidWAV
	}
	return data, nil
}

func amplitudeToDBFS(amplitude float64) float64 {
	if amplitude <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(amplitude)
}
