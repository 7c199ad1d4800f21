package model

import "encoding/json"

// Clip is an ordered container of notes. Notes are kept in playback order.
type Clip struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Notes  []Note `json:"notes"`
	Length string `json:"length"`
}

// Validate checks the clip and each of its notes, stopping at the first
// invalid note.
func (c Clip) Validate() error {
	return c.validate("")
}

func (c Clip) validate(path string) error {
	if err := checkInt(path, "id", &c.ID, expectedID); err != nil {
		return err
	}
	if _, err := ParseLength(c.Length); err != nil {
		return invalid(path, "length", c.Length, expectedLength)
	}
	for i, n := range c.Notes {
		if err := n.validate(indexPath(path, "notes", i)); err != nil {
			return err
		}
	}
	return nil
}

// ParseClip decodes and validates a clip received over the wire.
func ParseClip(data []byte) (Clip, error) {
	return decodeClip(data, "")
}

// MarshalJSON always emits notes as an array.
func (c Clip) MarshalJSON() ([]byte, error) {
	type wire Clip
	w := wire(c)
	if w.Notes == nil {
		w.Notes = []Note{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates a clip.
func (c *Clip) UnmarshalJSON(data []byte) error {
	decoded, err := decodeClip(data, "")
	if err != nil {
		return err
	}
	*c = decoded
	return nil
}

func decodeClip(data []byte, path string) (Clip, error) {
	obj, err := decodeObject(data, path, "clip")
	if err != nil {
		return Clip{}, err
	}

	var c Clip
	if c.ID, err = obj.requiredID("id"); err != nil {
		return Clip{}, err
	}
	if c.Name, err = obj.requiredString("name", "a string"); err != nil {
		return Clip{}, err
	}
	if c.Length, err = obj.requiredString("length", expectedLength); err != nil {
		return Clip{}, err
	}
	if _, err := ParseLength(c.Length); err != nil {
		return Clip{}, invalid(path, "length", c.Length, expectedLength)
	}

	items, err := obj.array("notes", true)
	if err != nil {
		return Clip{}, err
	}
	if len(items) > 0 {
		c.Notes = make([]Note, 0, len(items))
	}
	for i, raw := range items {
		n, err := decodeNote(raw, indexPath(path, "notes", i))
		if err != nil {
			return Clip{}, err
		}
		c.Notes = append(c.Notes, n)
	}
	return c, nil
}

var (
	_ json.Marshaler   = Clip{}
	_ json.Unmarshaler = (*Clip)(nil)
)
