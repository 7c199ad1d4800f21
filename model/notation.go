package model

import (
	"fmt"
	"regexp"
	"strconv"
)

// Octave bounds accepted in pitch tokens.
const (
	MinOctave = 0
	MaxOctave = 9
)

const (
	expectedPitch    = `note name A-G, optional "#" or "b", octave 0-9 (e.g. "C3", "F#4", "Bb2")`
	expectedPosition = `"bar|beat" with bar and beat >= 1 (e.g. "1|1")`
	expectedLength   = `"bars:beats" with non-negative integers (e.g. "1:0")`
)

var (
	pitchPattern    = regexp.MustCompile(`^([A-G])(#|b)?([0-9])$`)
	positionPattern = regexp.MustCompile(`^([0-9]+)\|([0-9]+)$`)
	lengthPattern   = regexp.MustCompile(`^([0-9]+):([0-9]+)$`)
)

var semitones = map[byte]int{
	'C': 0,
	'D': 2,
	'E': 4,
	'F': 5,
	'G': 7,
	'A': 9,
	'B': 11,
}

// Pitch is a parsed pitch token such as "F#4".
type Pitch struct {
	Letter     byte
	Accidental string // "", "#" or "b"
	Octave     int
}

// ParsePitch parses a pitch token.
func ParsePitch(token string) (Pitch, error) {
	m := pitchPattern.FindStringSubmatch(token)
	if m == nil {
		return Pitch{}, invalid("", "pitch", token, expectedPitch)
	}
	octave, _ := strconv.Atoi(m[3])
	return Pitch{
		Letter:     m[1][0],
		Accidental: m[2],
		Octave:     octave,
	}, nil
}

// String returns the canonical token.
func (p Pitch) String() string {
	return fmt.Sprintf("%c%s%d", p.Letter, p.Accidental, p.Octave)
}

// MIDI returns the MIDI note number, with C3 = 60 as in Ableton Live.
func (p Pitch) MIDI() int {
	n := (p.Octave+2)*12 + semitones[p.Letter]
	switch p.Accidental {
	case "#":
		n++
	case "b":
		n--
	}
	return n
}

// Position is a parsed "bar|beat" start position. Both parts are 1-indexed.
type Position struct {
	Bar  int
	Beat int
}

// ParsePosition parses a "bar|beat" token.
func ParsePosition(token string) (Position, error) {
	m := positionPattern.FindStringSubmatch(token)
	if m == nil {
		return Position{}, invalid("", "position", token, expectedPosition)
	}
	bar, errBar := strconv.Atoi(m[1])
	beat, errBeat := strconv.Atoi(m[2])
	if errBar != nil || errBeat != nil || bar < 1 || beat < 1 {
		return Position{}, invalid("", "position", token, expectedPosition)
	}
	return Position{Bar: bar, Beat: beat}, nil
}

func (p Position) String() string {
	return fmt.Sprintf("%d|%d", p.Bar, p.Beat)
}

// Length is a parsed "bars:beats" duration.
type Length struct {
	Bars  int
	Beats int
}

// ParseLength parses a "bars:beats" token.
func ParseLength(token string) (Length, error) {
	m := lengthPattern.FindStringSubmatch(token)
	if m == nil {
		return Length{}, invalid("", "length", token, expectedLength)
	}
	bars, errBars := strconv.Atoi(m[1])
	beats, errBeats := strconv.Atoi(m[2])
	if errBars != nil || errBeats != nil {
		return Length{}, invalid("", "length", token, expectedLength)
	}
	return Length{Bars: bars, Beats: beats}, nil
}

func (l Length) String() string {
	return fmt.Sprintf("%d:%d", l.Bars, l.Beats)
}
