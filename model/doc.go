// Package model defines the musical entities exchanged with a Producer Pal
// tool server: Note, Clip, Track and ProjectInfo.
//
// Values are plain structs. Every constructor and decoder validates the
// complete value before returning it, so a decoded or constructed value is
// never partially valid. Marshaling a value with encoding/json produces the
// canonical wire shape, and decoding that shape yields an equal value.
// A nil and an empty collection are the same value: both marshal to [] and
// an empty array always decodes to nil.
//
// Ids and the optional track integers are limited to 32 bits, both when
// validating and when decoding.
//
// Notation:
//
//	pitch     A-G, optional "#" or "b", octave 0-9      "C3", "F#4", "Bb2"
//	start     "bar|beat", both 1-indexed               "1|1", "3|4"
//	duration  "bars:beats", both non-negative          "1:0", "0:2"
//	length    same grammar as duration
//
// Nested validation stops at the first invalid element and reports its
// location, e.g. "tracks[0].clips[1].notes[2].velocity".
package model
