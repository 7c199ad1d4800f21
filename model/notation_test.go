package model

import (
	"errors"
	"testing"
)

func TestParsePitch(t *testing.T) {
	tests := []struct {
		token   string
		wantErr bool
		midi    int
	}{
		{token: "C3", midi: 60},
		{token: "F#4", midi: 78},
		{token: "Bb2", midi: 58},
		{token: "A0", midi: 33},
		{token: "G9", midi: 139},
		{token: "H3", wantErr: true},
		{token: "C", wantErr: true},
		{token: "C##3", wantErr: true},
		{token: "Cb#3", wantErr: true},
		{token: "C10", wantErr: true},
		{token: "C-1", wantErr: true},
		{token: "c3", wantErr: true},
		{token: "C 3", wantErr: true},
		{token: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			p, err := ParsePitch(tt.token)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParsePitch(%q) = %+v, want error", tt.token, p)
				}
				var verr *ValidationError
				if !errors.As(err, &verr) || verr.Field != "pitch" {
					t.Fatalf("ParsePitch(%q) error = %v, want pitch ValidationError", tt.token, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePitch(%q) error = %v", tt.token, err)
			}
			if got := p.String(); got != tt.token {
				t.Fatalf("String() = %q, want %q", got, tt.token)
			}
			if got := p.MIDI(); got != tt.midi {
				t.Fatalf("MIDI() = %d, want %d", got, tt.midi)
			}
		})
	}
}

func TestParsePosition(t *testing.T) {
	valid := map[string]Position{
		"1|1":  {Bar: 1, Beat: 1},
		"12|4": {Bar: 12, Beat: 4},
		"3|2":  {Bar: 3, Beat: 2},
	}
	for token, want := range valid {
		got, err := ParsePosition(token)
		if err != nil {
			t.Fatalf("ParsePosition(%q) error = %v", token, err)
		}
		if got != want {
			t.Fatalf("ParsePosition(%q) = %+v, want %+v", token, got, want)
		}
	}

	invalidTokens := []string{"1", "0|1", "1|0", "-1|1", "1.5|1", "1|1|1", "a|1", "1:1", "", "|"}
	for _, token := range invalidTokens {
		if got, err := ParsePosition(token); err == nil {
			t.Fatalf("ParsePosition(%q) = %+v, want error", token, got)
		}
	}
}

func TestParseLength(t *testing.T) {
	valid := map[string]Length{
		"1:0": {Bars: 1},
		"0:0": {},
		"4:3": {Bars: 4, Beats: 3},
	}
	for token, want := range valid {
		got, err := ParseLength(token)
		if err != nil {
			t.Fatalf("ParseLength(%q) error = %v", token, err)
		}
		if got != want {
			t.Fatalf("ParseLength(%q) = %+v, want %+v", token, got, want)
		}
		if got.String() != token {
			t.Fatalf("String() = %q, want %q", got.String(), token)
		}
	}

	invalidTokens := []string{"1", "-1:0", "1.5:0", "1:0:0", ":", "1:", "1|0", "one:0"}
	for _, token := range invalidTokens {
		if got, err := ParseLength(token); err == nil {
			t.Fatalf("ParseLength(%q) = %+v, want error", token, got)
		}
	}
}
