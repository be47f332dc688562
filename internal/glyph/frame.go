package glyph

import "sort"

// MaxBrightness is the highest per-channel brightness the hardware accepts.
const MaxBrightness = 4095

// Frame is an immutable snapshot of per-channel brightness values.
//
// Channels not explicitly set are off. Submitting a frame replaces the entire
// LED state; it never merges with the previous frame. Frames are transient:
// built, submitted, discarded.
type Frame struct {
	levels map[int]int
}

// Level returns the brightness of a channel (0 if unset).
func (f Frame) Level(channel int) int {
	return f.levels[channel]
}

// Channels returns the explicitly set channel indices in ascending order.
func (f Frame) Channels() []int {
	channels := make([]int, 0, len(f.levels))
	for ch := range f.levels {
		channels = append(channels, ch)
	}
	sort.Ints(channels)
	return channels
}

// IsDark reports whether no channel in the frame is lit.
func (f Frame) IsDark() bool {
	for _, level := range f.levels {
		if level > 0 {
			return false
		}
	}
	return true
}

// FrameBuilder accumulates (channel, brightness) pairs and produces a Frame.
//
// This is the minimal frame-building capability the animation engine depends
// on; the vendor frame representation stays behind the Binding.
type FrameBuilder struct {
	levels map[int]int
}

// NewFrameBuilder creates an empty builder.
func NewFrameBuilder() *FrameBuilder {
	return &FrameBuilder{levels: make(map[int]int)}
}

// SetChannel records a brightness for one channel, clamped to
// [0, MaxBrightness]. Negative channel indices are ignored.
func (b *FrameBuilder) SetChannel(channel, brightness int) *FrameBuilder {
	if channel < 0 {
		return b
	}
	if brightness < 0 {
		brightness = 0
	}
	if brightness > MaxBrightness {
		brightness = MaxBrightness
	}
	b.levels[channel] = brightness
	return b
}

// SetChannels records the same brightness for a group of channels.
func (b *FrameBuilder) SetChannels(channels []int, brightness int) *FrameBuilder {
	for _, ch := range channels {
		b.SetChannel(ch, brightness)
	}
	return b
}

// Build produces an immutable Frame from the accumulated values.
// The builder can be reused afterwards without affecting built frames.
func (b *FrameBuilder) Build() Frame {
	levels := make(map[int]int, len(b.levels))
	for ch, level := range b.levels {
		levels[ch] = level
	}
	return Frame{levels: levels}
}

// DarkFrame returns a frame with every listed channel explicitly set to zero.
// Used by cleanup paths that must force the hardware dark.
func DarkFrame(channels []int) Frame {
	builder := NewFrameBuilder()
	builder.SetChannels(channels, 0)
	return builder.Build()
}
