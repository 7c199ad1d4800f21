package model

import "encoding/json"

// Track is a channel owning zero or more clips.
type Track struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Clips []Clip `json:"clips"`

	// Optional details reported by the server.
	Type                 *string `json:"type,omitempty"` // "midi" or "audio"
	TrackIndex           *int    `json:"trackIndex,omitempty"`
	SessionClipCount     *int    `json:"sessionClipCount,omitempty"`
	ArrangementClipCount *int    `json:"arrangementClipCount,omitempty"`
}

// Validate checks the track's clips and that clip ids are unique within it.
func (t Track) Validate() error {
	return t.validate("")
}

func (t Track) validate(path string) error {
	if err := checkInt(path, "id", &t.ID, expectedID); err != nil {
		return err
	}
	if err := checkInt(path, "trackIndex", t.TrackIndex, expectedInt); err != nil {
		return err
	}
	if err := checkInt(path, "sessionClipCount", t.SessionClipCount, expectedInt); err != nil {
		return err
	}
	if err := checkInt(path, "arrangementClipCount", t.ArrangementClipCount, expectedInt); err != nil {
		return err
	}
	seen := make(map[int]struct{}, len(t.Clips))
	for i, c := range t.Clips {
		clipPath := indexPath(path, "clips", i)
		if err := c.validate(clipPath); err != nil {
			return err
		}
		if _, dup := seen[c.ID]; dup {
			return invalid(clipPath, "id", c.ID, "a clip id unique within its track")
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// ParseTrack decodes and validates a track received over the wire.
func ParseTrack(data []byte) (Track, error) {
	return decodeTrack(data, "")
}

// MarshalJSON always emits clips as an array.
func (t Track) MarshalJSON() ([]byte, error) {
	type wire Track
	w := wire(t)
	if w.Clips == nil {
		w.Clips = []Clip{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates a track.
func (t *Track) UnmarshalJSON(data []byte) error {
	decoded, err := decodeTrack(data, "")
	if err != nil {
		return err
	}
	*t = decoded
	return nil
}

func decodeTrack(data []byte, path string) (Track, error) {
	obj, err := decodeObject(data, path, "track")
	if err != nil {
		return Track{}, err
	}

	var t Track
	if t.ID, err = obj.requiredID("id"); err != nil {
		return Track{}, err
	}
	if t.Name, err = obj.requiredString("name", "a string"); err != nil {
		return Track{}, err
	}
	if t.Type, err = obj.optionalString("type", "a string"); err != nil {
		return Track{}, err
	}
	if t.TrackIndex, err = obj.optionalInt("trackIndex", expectedInt); err != nil {
		return Track{}, err
	}
	if t.SessionClipCount, err = obj.optionalInt("sessionClipCount", expectedInt); err != nil {
		return Track{}, err
	}
	if t.ArrangementClipCount, err = obj.optionalInt("arrangementClipCount", expectedInt); err != nil {
		return Track{}, err
	}

	items, err := obj.array("clips", false)
	if err != nil {
		return Track{}, err
	}
	if len(items) > 0 {
		t.Clips = make([]Clip, 0, len(items))
	}
	for i, raw := range items {
		c, err := decodeClip(raw, indexPath(path, "clips", i))
		if err != nil {
			return Track{}, err
		}
		t.Clips = append(t.Clips, c)
	}

	if err := t.validate(path); err != nil {
		return Track{}, err
	}
	return t, nil
}

var (
	_ json.Marshaler   = Track{}
	_ json.Unmarshaler = (*Track)(nil)
)
