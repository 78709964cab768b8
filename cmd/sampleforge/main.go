// Command sampleforge drives the multisampling engine from the terminal:
// device listing, single-note and ranged capture, manifest generation, and
// an emergency MIDI panic.
//
// Subcommand dispatch mirrors server/main.go + server/cli.go's pattern:
// a switch on os.Args[1] selects a handler, each handler parses its own
// flag.FlagSet and returns a plain error to main, which is the single
// place that exits non-zero.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/gordonklaus/portaudio"

	"sampleforge/internal/config"
	"sampleforge/internal/detector"
	"sampleforge/internal/device"
	"sampleforge/internal/engine"
	"sampleforge/internal/manifest"
	"sampleforge/internal/mididispatch"
)

func main() {
	if err := portaudio.Initialize(); err != nil {
		log.Fatalf("[device] portaudio init: %v", err)
	}
	defer portaudio.Terminate()

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "devices":
		err = runDevices()
	case "sample-note":
		err = runSampleNote(os.Args[2:])
	case "sample-range":
		err = runSampleRange(os.Args[2:])
	case "manifest":
		err = runManifest(os.Args[2:])
	case "panic":
		err = runPanic(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "sampleforge: %v\n", err)
		var partial *errPartialSession
		if errors.As(err, &partial) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  sampleforge devices
  sampleforge sample-note <note> [--velocity v] [--duration ms] [--out dir]
                                  [--channel c] [--format wav16|wav24|wav32f]
                                  [--instrument name] [--midi-out name]
                                  [--audio-in name]
  sampleforge sample-range <lo>..<hi> [--velocities v1,v2,...] [--duration ms]
                                  [--out dir] [--format ...] [--preset name]
  sampleforge manifest <dir> [--format sfz|dspreset|all] [--instrument name]
                             [--creator name] [--description text]
  sampleforge panic [--channel c] [--midi-out name]`)
}

func runDevices() error {
	ins, err := device.ListAudioInputs()
	if err != nil {
		return err
	}
	fmt.Println("audio inputs:")
	for _, p := range ins {
		fmt.Printf("  [%d] %s\n", p.Index, p.Name)
	}

	outs, err := device.ListMIDIOutputs()
	if err != nil {
		return err
	}
	fmt.Println("midi outputs:")
	for _, p := range outs {
		fmt.Printf("  [%d] %s\n", p.Index, p.Name)
	}
	return nil
}

// sessionFlags holds the flags shared between sample-note and sample-range.
type sessionFlags struct {
	duration   int
	out        string
	channel    int
	format     string
	instrument string
	midiOut    string
	audioIn    string
}

func bindSessionFlags(fs *flag.FlagSet, sf *sessionFlags, defaultDuration int) {
	fs.IntVar(&sf.duration, "duration", defaultDuration, "note duration in milliseconds")
	fs.StringVar(&sf.out, "out", ".", "output root directory")
	fs.IntVar(&sf.channel, "channel", 0, "MIDI channel (0-15)")
	fs.StringVar(&sf.format, "format", "wav24", "audio format: wav16, wav24, or wav32f")
	fs.StringVar(&sf.instrument, "instrument", "", "instrument name (used as the output subfolder prefix)")
	fs.StringVar(&sf.midiOut, "midi-out", "", "MIDI output port name (default: first available)")
	fs.StringVar(&sf.audioIn, "audio-in", "", "audio input device name (default: system default)")
}

func runSampleNote(args []string) error {
	fs := flag.NewFlagSet("sample-note", flag.ExitOnError)
	velocity := fs.Int("velocity", 100, "MIDI velocity (0-127)")
	sf := &sessionFlags{}
	bindSessionFlags(fs, sf, 2000)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("sample-note requires a note number")
	}
	note, err := strconv.Atoi(fs.Arg(0))
	if err != nil || note < 0 || note > 127 {
		return fmt.Errorf("invalid note %q", fs.Arg(0))
	}

	sess, err := newSession(sf)
	if err != nil {
		return err
	}
	defer sess.close()

	ctx, cancel := signalContext()
	defer cancel()

	shot, err := sess.eng.RecordShot(ctx, engine.ShotKey{Note: uint8(note), Velocity: uint8(*velocity)})
	if err != nil {
		return err
	}
	rec, err := sess.writeShot(shot)
	if err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", rec.Path)
	return nil
}

func runSampleRange(args []string) error {
	fs := flag.NewFlagSet("sample-range", flag.ExitOnError)
	velocities := fs.String("velocities", "127", "comma-separated velocity list")
	preset := fs.String("preset", "default", "detector preset: default, vintage, percussive, sustained")
	sf := &sessionFlags{}
	bindSessionFlags(fs, sf, 2000)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("sample-range requires a <lo>..<hi> note range")
	}
	lo, hi, err := parseRange(fs.Arg(0))
	if err != nil {
		return err
	}
	vels, err := parseVelocities(*velocities)
	if err != nil {
		return err
	}
	presetCfg, ok := detector.Preset(*preset)
	if !ok {
		return fmt.Errorf("unknown detector preset %q", *preset)
	}

	notes := make([]uint8, 0, hi-lo+1)
	for n := lo; n <= hi; n++ {
		notes = append(notes, uint8(n))
	}

	sess, err := newSession(sf)
	if err != nil {
		return err
	}
	defer sess.close()
	sess.detectorPreset = presetCfg

	ctx, cancel := signalContext()
	defer cancel()

	results, events := sess.eng.RecordRange(ctx, notes, vels)
	go func() {
		for ev := range events {
			fmt.Printf("[%d/%d] note=%d vel=%d %s\n", ev.Index+1, ev.Total, ev.Note, ev.Velocity, ev.Phase)
		}
	}()

	var fatalErr error
	failedWrites := 0
	written := 0
	for r := range results {
		if r.Err != nil {
			// The engine aborted the whole matrix (MIDI send failure,
			// ErrAudioStalled); per spec.md §6 this is fatal, not partial.
			fatalErr = r.Err
			continue
		}
		if _, err := sess.writeShot(r.Shot); err != nil {
			fmt.Fprintf(os.Stderr, "sampleforge: %s: %v\n", r.Shot.Key, err)
			failedWrites++
			continue
		}
		written++
	}
	fmt.Printf("wrote %d sample(s)\n", written)

	if fatalErr != nil {
		return fatalErr
	}
	if failedWrites > 0 {
		return &errPartialSession{failed: failedWrites, written: written}
	}
	return nil
}

// errPartialSession reports that the engine completed its matrix but one or
// more shots failed to write to disk. main() maps this to exit code 2, per
// spec.md §6's "exit code ... 2 on partial (some shots failed)".
type errPartialSession struct {
	failed, written int
}

func (e *errPartialSession) Error() string {
	return fmt.Sprintf("%d of %d shot(s) failed to write", e.failed, e.failed+e.written)
}

func runManifest(args []string) error {
	fs := flag.NewFlagSet("manifest", flag.ExitOnError)
	format := fs.String("format", "sfz", "sfz, dspreset, or all")
	instrument := fs.String("instrument", "", "instrument name")
	creator := fs.String("creator", "", "creator name, embedded in the dspreset's <ui> block")
	description := fs.String("description", "", "description text, embedded in the dspreset's <ui> block")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("manifest requires a directory")
	}
	written, err := manifest.GenerateManifest(fs.Arg(0), config.Format(*format), *instrument, *creator, *description)
	if err != nil {
		return err
	}
	for _, p := range written {
		fmt.Printf("wrote %s\n", p)
	}
	return nil
}

func runPanic(args []string) error {
	fs := flag.NewFlagSet("panic", flag.ExitOnError)
	channel := fs.Int("channel", -1, "MIDI channel (0-15); all 16 channels when omitted")
	midiOut := fs.String("midi-out", "", "MIDI output port name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	out, err := device.OpenMIDIOutput(*midiOut, 0)
	if err != nil {
		return err
	}
	broadcast := *channel < 0
	ch := *channel
	if broadcast {
		ch = 0
	}
	disp, err := mididispatch.Open(out, ch)
	if err != nil {
		return err
	}
	defer disp.Close()
	return disp.Panic(broadcast)
}

func parseRange(s string) (lo, hi int, err error) {
	parts := strings.SplitN(s, "..", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid range %q, expected <lo>..<hi>", s)
	}
	lo, err1 := strconv.Atoi(parts[0])
	hi, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || lo < 0 || hi > 127 || lo > hi {
		return 0, 0, fmt.Errorf("invalid range %q", s)
	}
	return lo, hi, nil
}

func parseVelocities(s string) ([]uint8, error) {
	parts := strings.Split(s, ",")
	out := make([]uint8, 0, len(parts))
	for _, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || v < 0 || v > 127 {
			return nil, fmt.Errorf("invalid velocity %q", p)
		}
		out = append(out, uint8(v))
	}
	return out, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}
