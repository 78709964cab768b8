package engine

import "time"

// Capturer is the subset of *capture.Handle the engine depends on.
// Defining it here lets Engine be tested with a fake capture source,
// mirroring client/interfaces.go's Transporter test-seam pattern.
type Capturer interface {
	TakeWindow(startTime, endTime time.Time) (frames []float32, overran bool, err error)
	SampleRateHz() int
	ChannelCount() int
}

// MIDISender is the subset of *mididispatch.Dispatcher the engine depends
// on.
type MIDISender interface {
	NoteOn(note, velocity uint8) error
	NoteOff(note uint8) error
	Panic(broadcastAllChannels bool) error
}
