package model

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"strings"
	"testing"
)

func mustNote(t *testing.T, pitch, start, duration string, velocity int, probability float64) Note {
	t.Helper()
	n, err := NewNote(pitch, start, duration, velocity, probability)
	if err != nil {
		t.Fatalf("NewNote(%q, %q, %q) error = %v", pitch, start, duration, err)
	}
	return n
}

func asValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %T (%v), want *ValidationError", err, err)
	}
	return verr
}

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func TestNewNoteRanges(t *testing.T) {
	tests := []struct {
		name        string
		velocity    int
		probability float64
		wantField   string
	}{
		{name: "velocity min", velocity: 0, probability: 1},
		{name: "velocity max", velocity: 127, probability: 1},
		{name: "probability min", velocity: 80, probability: 0},
		{name: "probability max", velocity: 80, probability: 1},
		{name: "velocity below", velocity: -1, probability: 1, wantField: "velocity"},
		{name: "velocity above", velocity: 128, probability: 1, wantField: "velocity"},
		{name: "probability below", velocity: 80, probability: -0.1, wantField: "probability"},
		{name: "probability above", velocity: 80, probability: 1.1, wantField: "probability"},
		{name: "probability NaN", velocity: 80, probability: math.NaN(), wantField: "probability"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewNote("C3", "1|1", "1:0", tt.velocity, tt.probability)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("NewNote() error = %v", err)
				}
				return
			}
			verr := asValidationError(t, err)
			if verr.Field != tt.wantField {
				t.Fatalf("Field = %q, want %q", verr.Field, tt.wantField)
			}
		})
	}
}

func TestNewNoteRejectsBadNotation(t *testing.T) {
	tests := []struct {
		pitch, start, duration string
		wantField              string
	}{
		{pitch: "H3", start: "1|1", duration: "1:0", wantField: "pitch"},
		{pitch: "C3", start: "0|1", duration: "1:0", wantField: "start"},
		{pitch: "C3", start: "1", duration: "1:0", wantField: "start"},
		{pitch: "C3", start: "1|1", duration: "1", wantField: "duration"},
		{pitch: "C3", start: "1|1", duration: "-1:0", wantField: "duration"},
	}
	for _, tt := range tests {
		_, err := NewNote(tt.pitch, tt.start, tt.duration, 80, 1)
		verr := asValidationError(t, err)
		if verr.Field != tt.wantField {
			t.Fatalf("NewNote(%q, %q, %q) field = %q, want %q", tt.pitch, tt.start, tt.duration, verr.Field, tt.wantField)
		}
	}
}

func TestParseNoteDefaults(t *testing.T) {
	n, err := ParseNote([]byte(`{"pitch":"E3","start":"2|1","duration":"0:2"}`))
	if err != nil {
		t.Fatalf("ParseNote() error = %v", err)
	}
	if n.Velocity != DefaultVelocity {
		t.Fatalf("Velocity = %d, want %d", n.Velocity, DefaultVelocity)
	}
	if n.Probability != DefaultProbability {
		t.Fatalf("Probability = %v, want %v", n.Probability, DefaultProbability)
	}
}

func TestParseNoteRejectsNonNumeric(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{name: "velocity string", body: `{"pitch":"C3","start":"1|1","duration":"1:0","velocity":"loud"}`, wantField: "velocity"},
		{name: "velocity quoted number", body: `{"pitch":"C3","start":"1|1","duration":"1:0","velocity":"80"}`, wantField: "velocity"},
		{name: "velocity fractional", body: `{"pitch":"C3","start":"1|1","duration":"1:0","velocity":80.5}`, wantField: "velocity"},
		{name: "velocity out of range", body: `{"pitch":"C3","start":"1|1","duration":"1:0","velocity":200}`, wantField: "velocity"},
		{name: "probability bool", body: `{"pitch":"C3","start":"1|1","duration":"1:0","probability":true}`, wantField: "probability"},
		{name: "probability out of range", body: `{"pitch":"C3","start":"1|1","duration":"1:0","probability":1.5}`, wantField: "probability"},
		{name: "pitch number", body: `{"pitch":60,"start":"1|1","duration":"1:0"}`, wantField: "pitch"},
		{name: "start missing", body: `{"pitch":"C3","duration":"1:0"}`, wantField: "start"},
		{name: "not an object", body: `["C3"]`, wantField: "note"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNote([]byte(tt.body))
			verr := asValidationError(t, err)
			if verr.Field != tt.wantField {
				t.Fatalf("Field = %q, want %q (err = %v)", verr.Field, tt.wantField, err)
			}
		})
	}
}

func TestParseNoteAcceptsIntegralFloatVelocity(t *testing.T) {
	n, err := ParseNote([]byte(`{"pitch":"C3","start":"1|1","duration":"1:0","velocity":96.0}`))
	if err != nil {
		t.Fatalf("ParseNote() error = %v", err)
	}
	if n.Velocity != 96 {
		t.Fatalf("Velocity = %d, want 96", n.Velocity)
	}
}

func TestParseClipReportsFailingNoteIndex(t *testing.T) {
	body := `{"id":1,"name":"Chords","length":"4:0","notes":[
		{"pitch":"C3","start":"1|1","duration":"1:0"},
		{"pitch":"E3","start":"1|1","duration":"1:0","velocity":128},
		{"pitch":"X9","start":"1|1","duration":"1:0"}
	]}`

	_, err := ParseClip([]byte(body))
	verr := asValidationError(t, err)
	if verr.Path != "notes[1]" || verr.Field != "velocity" {
		t.Fatalf("error location = %q, want notes[1].velocity", verr.Location())
	}
	if !strings.Contains(err.Error(), "notes[1].velocity") {
		t.Fatalf("Error() = %q, want it to name notes[1].velocity", err.Error())
	}
}

func TestParseClipMissingRequiredField(t *testing.T) {
	_, err := ParseClip([]byte(`{"id":1,"name":"Empty","notes":[]}`))
	verr := asValidationError(t, err)
	if verr.Field != "length" || verr.Value != nil {
		t.Fatalf("error = %+v, want missing length", verr)
	}

	_, err = ParseClip([]byte(`{"id":1,"name":"Empty","length":"1:0"}`))
	verr = asValidationError(t, err)
	if verr.Field != "notes" {
		t.Fatalf("Field = %q, want notes", verr.Field)
	}
}

func TestParseClipEmptyIsValid(t *testing.T) {
	c, err := ParseClip([]byte(`{"id":"7","name":"Empty","notes":[],"length":"2:0"}`))
	if err != nil {
		t.Fatalf("ParseClip() error = %v", err)
	}
	if c.ID != 7 {
		t.Fatalf("ID = %d, want 7", c.ID)
	}
	if len(c.Notes) != 0 {
		t.Fatalf("len(Notes) = %d, want 0", len(c.Notes))
	}
}

func TestParseTrackRejectsDuplicateClipIDs(t *testing.T) {
	body := `{"id":0,"name":"Bass","clips":[
		{"id":3,"name":"a","notes":[],"length":"1:0"},
		{"id":3,"name":"b","notes":[],"length":"1:0"}
	]}`
	_, err := ParseTrack([]byte(body))
	verr := asValidationError(t, err)
	if verr.Location() != "clips[1].id" {
		t.Fatalf("Location() = %q, want clips[1].id", verr.Location())
	}
}

func TestParseTrackWithoutClips(t *testing.T) {
	tr, err := ParseTrack([]byte(`{"id":2,"name":"Audio 1","type":"audio","trackIndex":2}`))
	if err != nil {
		t.Fatalf("ParseTrack() error = %v", err)
	}
	if tr.Clips != nil {
		t.Fatalf("Clips = %v, want nil", tr.Clips)
	}
	if tr.Type == nil || *tr.Type != "audio" {
		t.Fatalf("Type = %v, want audio", tr.Type)
	}
	if tr.TrackIndex == nil || *tr.TrackIndex != 2 {
		t.Fatalf("TrackIndex = %v, want 2", tr.TrackIndex)
	}
}

func TestParseProjectNestedPath(t *testing.T) {
	body := `{"tempo":120,"tracks":[{"id":0,"name":"Keys","clips":[{"id":0,"name":"c","length":"1:0","notes":[
		{"pitch":"C3","start":"1|1","duration":"1:0"},
		{"pitch":"E3","start":"1|1","duration":"1:0"},
		{"pitch":"G","start":"1|1","duration":"1:0"}
	]}]}]}`

	_, err := ParseProject([]byte(body))
	verr := asValidationError(t, err)
	if got, want := verr.Location(), "tracks[0].clips[0].notes[2].pitch"; got != want {
		t.Fatalf("Location() = %q, want %q", got, want)
	}
}

func TestParseProjectRejectsTempo(t *testing.T) {
	for _, body := range []string{
		`{"tempo":0,"tracks":[]}`,
		`{"tempo":-90,"tracks":[]}`,
		`{"tempo":"fast","tracks":[]}`,
		`{"tracks":[]}`,
	} {
		_, err := ParseProject([]byte(body))
		verr := asValidationError(t, err)
		if verr.Field != "tempo" {
			t.Fatalf("ParseProject(%s) field = %q, want tempo", body, verr.Field)
		}
	}
}

func TestParseProjectChordScenario(t *testing.T) {
	body := `{
		"tempo": 120.0,
		"tracks": [{
			"id": 0,
			"name": "Piano",
			"clips": [{
				"id": 0,
				"name": "C major",
				"length": "1:0",
				"notes": [
					{"pitch": "C3", "start": "1|1", "duration": "1:0", "velocity": 80},
					{"pitch": "E3", "start": "1|1", "duration": "1:0", "velocity": 80},
					{"pitch": "G3", "start": "1|1", "duration": "1:0", "velocity": 80}
				]
			}]
		}]
	}`

	p, err := ParseProject([]byte(body))
	if err != nil {
		t.Fatalf("ParseProject() error = %v", err)
	}
	if p.Tempo != 120.0 {
		t.Fatalf("Tempo = %v, want 120", p.Tempo)
	}
	if len(p.Tracks) != 1 || len(p.Tracks[0].Clips) != 1 {
		t.Fatalf("unexpected structure: %+v", p)
	}
	notes := p.Tracks[0].Clips[0].Notes
	want := []string{"C3", "E3", "G3"}
	if len(notes) != len(want) {
		t.Fatalf("len(notes) = %d, want %d", len(notes), len(want))
	}
	for i, n := range notes {
		if n.Pitch != want[i] || n.Start != "1|1" || n.Duration != "1:0" || n.Velocity != 80 || n.Probability != 1 {
			t.Fatalf("notes[%d] = %+v, want %s@1|1 dur 1:0 vel 80", i, n, want[i])
		}
	}
}

func TestRoundTrip(t *testing.T) {
	clip := Clip{
		ID:   4,
		Name: "Arp",
		Notes: []Note{
			mustNote(t, "G3", "1|3", "0:1", 64, 0.5),
			mustNote(t, "C3", "1|1", "0:1", 127, 1),
			mustNote(t, "Bb2", "2|4", "1:2", 0, 0),
		},
		Length: "2:0",
	}
	track := Track{
		ID:                   1,
		Name:                 "Lead",
		Clips:                []Clip{clip, {ID: 5, Name: "Silence", Length: "1:0"}},
		Type:                 strPtr("midi"),
		TrackIndex:           intPtr(1),
		SessionClipCount:     intPtr(2),
		ArrangementClipCount: intPtr(0),
	}
	project := ProjectInfo{
		Tempo:  98.5,
		Tracks: []Track{track, {ID: 2, Name: "Empty"}},
	}

	t.Run("note", func(t *testing.T) {
		for _, n := range clip.Notes {
			data, err := json.Marshal(n)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			got, err := ParseNote(data)
			if err != nil {
				t.Fatalf("ParseNote(%s) error = %v", data, err)
			}
			if got != n {
				t.Fatalf("round trip = %+v, want %+v", got, n)
			}
		}
	})

	t.Run("clip", func(t *testing.T) {
		data, err := json.Marshal(clip)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		got, err := ParseClip(data)
		if err != nil {
			t.Fatalf("ParseClip() error = %v", err)
		}
		if !reflect.DeepEqual(got, clip) {
			t.Fatalf("round trip = %+v, want %+v", got, clip)
		}
	})

	t.Run("track", func(t *testing.T) {
		data, err := json.Marshal(track)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		got, err := ParseTrack(data)
		if err != nil {
			t.Fatalf("ParseTrack() error = %v", err)
		}
		if !reflect.DeepEqual(got, track) {
			t.Fatalf("round trip = %+v, want %+v", got, track)
		}
	})

	t.Run("project", func(t *testing.T) {
		data, err := json.Marshal(project)
		if err != nil {
			t.Fatalf("Marshal() error = %v", err)
		}
		var got ProjectInfo
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal() error = %v", err)
		}
		if !reflect.DeepEqual(got, project) {
			t.Fatalf("round trip = %+v, want %+v", got, project)
		}
	})
}

func TestMarshalEmitsEmptyArrays(t *testing.T) {
	data, err := json.Marshal(Clip{ID: 1, Name: "x", Length: "1:0"})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), `"notes":[]`) {
		t.Fatalf("Marshal() = %s, want notes as []", data)
	}

	data, err = json.Marshal(ProjectInfo{Tempo: 120})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"tempo":120,"tracks":[]}` {
		t.Fatalf("Marshal() = %s", data)
	}
}

func TestRoundTripEmptyCollections(t *testing.T) {
	project := ProjectInfo{
		Tempo: 120,
		Tracks: []Track{{
			ID:    0,
			Name:  "Keys",
			Clips: []Clip{{ID: 1, Name: "Blank", Notes: []Note{}, Length: "1:0"}},
		}, {
			ID:    1,
			Name:  "Pad",
			Clips: []Clip{},
		}},
	}
	want := ProjectInfo{
		Tempo: 120,
		Tracks: []Track{
			{ID: 0, Name: "Keys", Clips: []Clip{{ID: 1, Name: "Blank", Length: "1:0"}}},
			{ID: 1, Name: "Pad"},
		},
	}

	data, err := json.Marshal(project)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := ParseProject(data)
	if err != nil {
		t.Fatalf("ParseProject() error = %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("ParseProject() = %+v, want %+v", got, want)
	}
	again, err := json.Marshal(got)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(again) != string(data) {
		t.Fatalf("re-marshal = %s, want %s", again, data)
	}

	empty, err := ParseProject([]byte(`{"tempo":120,"tracks":[]}`))
	if err != nil {
		t.Fatalf("ParseProject() error = %v", err)
	}
	if empty.Tracks != nil {
		t.Fatalf("Tracks = %#v, want nil", empty.Tracks)
	}
}

func TestValidateEnforcesWireIntRange(t *testing.T) {
	tooBig := int64(math.MaxInt32) + 1
	outside := int(tooBig)

	tests := []struct {
		name     string
		validate func() error
		want     string
	}{
		{
			name:     "clip id",
			validate: Clip{ID: outside, Name: "x", Length: "1:0"}.Validate,
			want:     "id",
		},
		{
			name:     "track id",
			validate: Track{ID: outside, Name: "x"}.Validate,
			want:     "id",
		},
		{
			name:     "track index",
			validate: Track{ID: 1, Name: "x", TrackIndex: intPtr(outside)}.Validate,
			want:     "trackIndex",
		},
		{
			name:     "session clip count",
			validate: Track{ID: 1, Name: "x", SessionClipCount: intPtr(-outside - 1)}.Validate,
			want:     "sessionClipCount",
		},
		{
			name:     "nested project track",
			validate: ProjectInfo{Tempo: 120, Tracks: []Track{{ID: outside, Name: "x"}}}.Validate,
			want:     "tracks[0].id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verr := asValidationError(t, tt.validate())
			if verr.Location() != tt.want {
				t.Fatalf("Location() = %q, want %q", verr.Location(), tt.want)
			}
		})
	}

	edge := Track{ID: math.MaxInt32, Name: "edge", TrackIndex: intPtr(math.MinInt32)}
	if err := edge.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	data, err := json.Marshal(edge)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	got, err := ParseTrack(data)
	if err != nil {
		t.Fatalf("ParseTrack(%s) error = %v", data, err)
	}
	if !reflect.DeepEqual(got, edge) {
		t.Fatalf("round trip = %+v, want %+v", got, edge)
	}

	if _, err := ParseClip([]byte(`{"id":"2147483648","name":"x","notes":[],"length":"1:0"}`)); err == nil {
		t.Fatal("ParseClip() accepted a string id outside 32 bits")
	}
}

func TestValidateNotes(t *testing.T) {
	notes := []Note{
		mustNote(t, "C3", "1|1", "1:0", 80, 1),
		{Pitch: "C3", Start: "1|1", Duration: "1:0", Velocity: 200, Probability: 1},
	}
	verr := asValidationError(t, ValidateNotes(notes))
	if verr.Location() != "notes[1].velocity" {
		t.Fatalf("Location() = %q, want notes[1].velocity", verr.Location())
	}
	if err := ValidateNotes(nil); err != nil {
		t.Fatalf("ValidateNotes(nil) error = %v", err)
	}
}
