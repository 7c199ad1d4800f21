package model

import (
	"encoding/json"
	"fmt"
)

// Note defaults applied when the wire omits them.
const (
	DefaultVelocity    = 80
	DefaultProbability = 1.0
)

// Note value ranges.
const (
	MinVelocity    = 0
	MaxVelocity    = 127
	MinProbability = 0.0
	MaxProbability = 1.0
)

var (
	expectedVelocity    = fmt.Sprintf("an integer in [%d, %d]", MinVelocity, MaxVelocity)
	expectedProbability = fmt.Sprintf("a number in [%.1f, %.1f]", MinProbability, MaxProbability)
)

// Note is a single MIDI note event.
type Note struct {
	Pitch       string  `json:"pitch"`
	Start       string  `json:"start"`
	Duration    string  `json:"duration"`
	Velocity    int     `json:"velocity"`
	Probability float64 `json:"probability"`
}

// NewNote builds a validated note.
func NewNote(pitch, start, duration string, velocity int, probability float64) (Note, error) {
	n := Note{
		Pitch:       pitch,
		Start:       start,
		Duration:    duration,
		Velocity:    velocity,
		Probability: probability,
	}
	if err := n.Validate(); err != nil {
		return Note{}, err
	}
	return n, nil
}

// Validate checks every field of a locally built note.
func (n Note) Validate() error {
	return n.validate("")
}

func (n Note) validate(path string) error {
	if _, err := ParsePitch(n.Pitch); err != nil {
		return invalid(path, "pitch", n.Pitch, expectedPitch)
	}
	if _, err := ParsePosition(n.Start); err != nil {
		return invalid(path, "start", n.Start, expectedPosition)
	}
	if _, err := ParseLength(n.Duration); err != nil {
		return invalid(path, "duration", n.Duration, expectedLength)
	}
	if n.Velocity < MinVelocity || n.Velocity > MaxVelocity {
		return invalid(path, "velocity", n.Velocity, expectedVelocity)
	}
	if !(n.Probability >= MinProbability && n.Probability <= MaxProbability) {
		return invalid(path, "probability", n.Probability, expectedProbability)
	}
	return nil
}

// ValidateNotes validates notes in order and reports the first failure
// under "notes[i]".
func ValidateNotes(notes []Note) error {
	for i, n := range notes {
		if err := n.validate(indexPath("", "notes", i)); err != nil {
			return err
		}
	}
	return nil
}

// ParseNote decodes and validates a note received over the wire.
func ParseNote(data []byte) (Note, error) {
	return decodeNote(data, "")
}

// UnmarshalJSON decodes and validates a note.
func (n *Note) UnmarshalJSON(data []byte) error {
	decoded, err := decodeNote(data, "")
	if err != nil {
		return err
	}
	*n = decoded
	return nil
}

func decodeNote(data []byte, path string) (Note, error) {
	obj, err := decodeObject(data, path, "note")
	if err != nil {
		return Note{}, err
	}

	n := Note{
		Velocity:    DefaultVelocity,
		Probability: DefaultProbability,
	}
	if n.Pitch, err = obj.requiredString("pitch", expectedPitch); err != nil {
		return Note{}, err
	}
	if n.Start, err = obj.requiredString("start", expectedPosition); err != nil {
		return Note{}, err
	}
	if n.Duration, err = obj.requiredString("duration", expectedLength); err != nil {
		return Note{}, err
	}
	if _, ok := obj.lookup("velocity"); ok {
		if n.Velocity, err = obj.requiredInt("velocity", expectedVelocity); err != nil {
			return Note{}, err
		}
	}
	if _, ok := obj.lookup("probability"); ok {
		if n.Probability, err = obj.requiredFloat("probability", expectedProbability); err != nil {
			return Note{}, err
		}
	}

	if err := n.validate(path); err != nil {
		return Note{}, err
	}
	return n, nil
}

var _ json.Unmarshaler = (*Note)(nil)
