// Package writer turns a detected capture region into a WAV file on disk,
// named and laid out per spec.md §4.5.
//
// Grounded on other_examples' algo-piano render command and
// rayboyd-audio-engine's Engine (both pairing github.com/go-audio/wav with
// github.com/go-audio/audio), which replace the teacher's hand-rolled
// OGG/Opus writer in server/recording.go and RIFF reader in
// client/testuser.go — the shape of those (a struct wrapping an *os.File
// with a Close that finalizes the container) carries over; the bespoke
// byte-pushing does not.
package writer

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"sampleforge/internal/config"
)

// ErrNamingConflict is returned when an existing file at the target path
// was written with an incompatible sample rate or channel count.
var ErrNamingConflict = errors.New("writer: naming conflict with existing incompatible file")

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteName renders a MIDI note number as "{letter}{octave}" with
// octave = floor(note/12) - 1, per spec.md §4.5.
func NoteName(note uint8) string {
	octave := int(note)/12 - 1
	return fmt.Sprintf("%s%d", noteNames[int(note)%12], octave)
}

// Record describes one file written to disk (spec.md §3).
type Record struct {
	Path     string
	Note     uint8
	Velocity uint8
	NoteName string
}

// FileName builds the "{prefix_?}{note_name}_{note}_vel{velocity:03}.wav"
// name spec.md §4.5 specifies. prefix may be empty.
func FileName(prefix string, note, velocity uint8) string {
	name := NoteName(note)
	if prefix != "" {
		name = prefix + "_" + name
	}
	return fmt.Sprintf("%s_%d_vel%03d.wav", name, note, velocity)
}

// Dir returns the output directory for a session: outputRoot joined with
// prefix, or the default instrument folder name if prefix is empty.
func Dir(outputRoot, prefix string) string {
	if prefix == "" {
		prefix = "Batcherbird Samples"
	}
	return filepath.Join(outputRoot, prefix)
}

// Write encodes frames (interleaved, sampleRateHz, channelCount) to a WAV
// file for the given key under dir, at the bit depth named by format. It
// refuses to overwrite an existing file whose sample rate or channel count
// differs from this write's, returning ErrNamingConflict.
func Write(dir, prefix string, note, velocity uint8, frames []float32, sampleRateHz, channelCount int, format config.Format) (Record, error) {
	bits, audioFormat, ok := format.BitDepth()
	if !ok {
		return Record{}, fmt.Errorf("writer: %q is not a WAV format", format)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Record{}, fmt.Errorf("writer: create output dir: %w", err)
	}

	path := filepath.Join(dir, FileName(prefix, note, velocity))
	if err := checkNamingConflict(path, sampleRateHz, channelCount); err != nil {
		return Record{}, err
	}

	file, err := os.Create(path)
	if err != nil {
		return Record{}, fmt.Errorf("writer: create %s: %w", path, err)
	}
	defer file.Close()

	encoder := wav.NewEncoder(file, sampleRateHz, bits, channelCount, audioFormat)

	buf := buildBuffer(frames, sampleRateHz, channelCount, bits)
	if err := encoder.Write(buf); err != nil {
		return Record{}, fmt.Errorf("writer: encode %s: %w", path, err)
	}
	if err := encoder.Close(); err != nil {
		return Record{}, fmt.Errorf("writer: finalize %s: %w", path, err)
	}

	return Record{Path: path, Note: note, Velocity: velocity, NoteName: NoteName(note)}, nil
}

// buildBuffer converts interleaved float32 samples in [-1,1] into the
// audio.Buffer shape go-audio/wav expects for the given bit depth: integer
// PCM buffers for 16/24-bit, a float buffer for 32-bit float.
func buildBuffer(frames []float32, sampleRateHz, channelCount, bits int) audio.Buffer {
	format := &audio.Format{SampleRate: sampleRateHz, NumChannels: channelCount}

	if bits == 32 {
		return &audio.Float32Buffer{
			Format:         format,
			Data:           frames,
			SourceBitDepth: 32,
		}
	}

	maxVal := float64(int(1)<<(bits-1) - 1)
	data := make([]int, len(frames))
	for i, s := range frames {
		v := float64(s) * maxVal
		if v > maxVal {
			v = maxVal
		}
		if v < -maxVal-1 {
			v = -maxVal - 1
		}
		data[i] = int(math.Round(v))
	}
	return &audio.IntBuffer{
		Format:         format,
		Data:           data,
		SourceBitDepth: bits,
	}
}

// checkNamingConflict rejects a write that would silently overwrite a
// file recorded at a different sample rate or channel count (spec.md
// §4.5). A same-format file at the same path is allowed to be replaced.
func checkNamingConflict(path string, sampleRateHz, channelCount int) error {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("writer: inspect existing %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return fmt.Errorf("%w: %s exists and is not a valid WAV file", ErrNamingConflict, path)
	}
	if int(dec.SampleRate) != sampleRateHz || int(dec.NumChans) != channelCount {
		return fmt.Errorf("%w: %s was written at %dHz/%dch, this session is %dHz/%dch",
			ErrNamingConflict, path, dec.SampleRate, dec.NumChans, sampleRateHz, channelCount)
	}
	return nil
}

// Verify decodes path and confirms it has a valid WAV header and that its
// full PCM data decodes without error. It does not compare sample rate,
// channel count, frame count or sample values against what was written, so
// it does not check bit-exact round-tripping.
func Verify(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("writer: verify open %s: %w", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return fmt.Errorf("writer: %s is not a valid WAV file", path)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("writer: decode %s: %w", path, err)
	}
	if buf.Format.SampleRate != int(dec.SampleRate) {
		return fmt.Errorf("writer: %s decoded sample rate mismatch", path)
	}
	return nil
}
