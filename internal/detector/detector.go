// Package detector finds the sounding region within a captured shot's raw
// buffer: a downmix to mono, a sliding RMS scan against a threshold, and a
// confirmation-window hysteresis to reject single-frame noise spikes.
//
// Generalizes client/internal/vad.VAD's hangover counter (streaming,
// frame-at-a-time) and client/internal/noisegate.Gate's threshold+hold
// idiom into an offline whole-buffer scan that returns trim boundaries
// rather than gating samples in place.
package detector

import "math"

// Config controls the detection scan (spec.md §4.4).
type Config struct {
	ThresholdDB         float64 // -80..-10, or -inf for "always detect"
	WindowMs            int     // 2..50
	MinLengthMs         int
	PreTriggerMs        int
	PostTriggerMs       int
	ConfirmationWindows int // consecutive windows above threshold to confirm an edge
}

// Named presets with the exact values spec.md §4.4 mandates.
var (
	PresetDefault = Config{
		ThresholdDB: -40, WindowMs: 10, MinLengthMs: 100,
		PreTriggerMs: 20, PostTriggerMs: 100, ConfirmationWindows: 2,
	}
	PresetVintage = Config{
		ThresholdDB: -35, WindowMs: 15, MinLengthMs: 200,
		PreTriggerMs: 30, PostTriggerMs: 300, ConfirmationWindows: 3,
	}
	PresetPercussive = Config{
		ThresholdDB: -30, WindowMs: 5, MinLengthMs: 50,
		PreTriggerMs: 10, PostTriggerMs: 50, ConfirmationWindows: 2,
	}
	PresetSustained = Config{
		ThresholdDB: -50, WindowMs: 20, MinLengthMs: 300,
		PreTriggerMs: 50, PostTriggerMs: 500, ConfirmationWindows: 3,
	}
)

// Preset looks up a named preset ("default", "vintage", "percussive",
// "sustained"); ok is false for any other name.
func Preset(name string) (Config, bool) {
	switch name {
	case "default":
		return PresetDefault, true
	case "vintage":
		return PresetVintage, true
	case "percussive":
		return PresetPercussive, true
	case "sustained":
		return PresetSustained, true
	default:
		return Config{}, false
	}
}

// Result is the outcome of one detection scan (spec.md §3).
type Result struct {
	Success    bool
	StartFrame int
	EndFrame   int
	Reason     string
}

// Detect scans an interleaved buffer of channelCount channels at
// sampleRateHz and returns the trimmed region containing the sound,
// applying pre/post-trigger padding and the minimum-length fallback.
//
// Deterministic: identical inputs always yield identical output (spec.md
// §8). threshold_db = -inf is a special case that always succeeds over the
// entire buffer, per spec.md §8's boundary behavior.
func Detect(frames []float32, sampleRateHz, channelCount int, cfg Config) Result {
	totalFrames := 0
	if channelCount > 0 {
		totalFrames = len(frames) / channelCount
	}
	if totalFrames == 0 {
		return Result{Success: false, Reason: "empty buffer"}
	}

	if math.IsInf(cfg.ThresholdDB, -1) {
		return Result{Success: true, StartFrame: 0, EndFrame: totalFrames}
	}

	mono := downmix(frames, channelCount)

	windowFrames := framesForMs(cfg.WindowMs, sampleRateHz)
	if windowFrames < 1 {
		windowFrames = 1
	}
	hop := windowFrames / 2
	if hop < 1 {
		hop = 1
	}

	type window struct {
		start, end int
		aboveDB    bool
	}

	var windows []window
	for start := 0; start < totalFrames; start += hop {
		end := start + windowFrames
		if end > totalFrames {
			end = totalFrames
		}
		db := rmsDB(mono[start:end])
		windows = append(windows, window{start: start, end: end, aboveDB: db >= cfg.ThresholdDB})
		if end == totalFrames {
			break
		}
	}

	startIdx := -1
	run := 0
	for i, w := range windows {
		if w.aboveDB {
			run++
			if run >= cfg.ConfirmationWindows {
				startIdx = i - cfg.ConfirmationWindows + 1
				break
			}
		} else {
			run = 0
		}
	}
	if startIdx < 0 {
		return Result{Success: false, Reason: "no region exceeded threshold"}
	}

	endIdx := -1
	run = 0
	for i := len(windows) - 1; i >= startIdx; i-- {
		if windows[i].aboveDB {
			run++
			if run >= cfg.ConfirmationWindows {
				endIdx = i + cfg.ConfirmationWindows - 1
				if endIdx >= len(windows) {
					endIdx = len(windows) - 1
				}
				break
			}
		} else {
			run = 0
		}
	}
	if endIdx < 0 {
		endIdx = len(windows) - 1
	}

	startFrame := windows[startIdx].start
	endFrame := windows[endIdx].end

	preTrigger := framesForMs(cfg.PreTriggerMs, sampleRateHz)
	postTrigger := framesForMs(cfg.PostTriggerMs, sampleRateHz)
	startFrame -= preTrigger
	endFrame += postTrigger
	if startFrame < 0 {
		startFrame = 0
	}
	if endFrame > totalFrames {
		endFrame = totalFrames
	}

	minLength := framesForMs(cfg.MinLengthMs, sampleRateHz)
	if endFrame-startFrame < minLength {
		return Result{Success: false, Reason: "too short"}
	}

	return Result{Success: true, StartFrame: startFrame, EndFrame: endFrame}
}

func framesForMs(ms, sampleRateHz int) int {
	return ms * sampleRateHz / 1000
}

func downmix(frames []float32, channelCount int) []float32 {
	if channelCount <= 1 {
		return frames
	}
	totalFrames := len(frames) / channelCount
	mono := make([]float32, totalFrames)
	for i := 0; i < totalFrames; i++ {
		var sum float32
		for c := 0; c < channelCount; c++ {
			sum += frames[i*channelCount+c]
		}
		mono[i] = sum / float32(channelCount)
	}
	return mono
}

const floorDB = -120.0

func rmsDB(window []float32) float64 {
	if len(window) == 0 {
		return floorDB
	}
	var sumSq float64
	for _, s := range window {
		sumSq += float64(s) * float64(s)
	}
	rms := math.Sqrt(sumSq / float64(len(window)))
	if rms <= 0 {
		return floorDB
	}
	db := 20 * math.Log10(rms)
	if db < floorDB {
		return floorDB
	}
	return db
}
