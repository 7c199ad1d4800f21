package model

import "encoding/json"

// ProjectInfo is the root aggregate of a Live Set: its tempo and tracks.
type ProjectInfo struct {
	Tempo  float64 `json:"tempo"`
	Tracks []Track `json:"tracks"`
}

const expectedTempo = "a positive number of beats per minute"

// Validate checks the tempo, every track, and that track ids are unique.
func (p ProjectInfo) Validate() error {
	return p.validate("")
}

func (p ProjectInfo) validate(path string) error {
	if !(p.Tempo > 0) {
		return invalid(path, "tempo", p.Tempo, expectedTempo)
	}
	seen := make(map[int]struct{}, len(p.Tracks))
	for i, t := range p.Tracks {
		trackPath := indexPath(path, "tracks", i)
		if err := t.validate(trackPath); err != nil {
			return err
		}
		if _, dup := seen[t.ID]; dup {
			return invalid(trackPath, "id", t.ID, "a track id unique within the project")
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// Track returns the track with the given id.
func (p ProjectInfo) Track(id int) (Track, bool) {
	for _, t := range p.Tracks {
		if t.ID == id {
			return t, true
		}
	}
	return Track{}, false
}

// ParseProject decodes and validates project info received over the wire.
func ParseProject(data []byte) (ProjectInfo, error) {
	return decodeProject(data, "")
}

// MarshalJSON always emits tracks as an array.
func (p ProjectInfo) MarshalJSON() ([]byte, error) {
	type wire ProjectInfo
	w := wire(p)
	if w.Tracks == nil {
		w.Tracks = []Track{}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes and validates project info.
func (p *ProjectInfo) UnmarshalJSON(data []byte) error {
	decoded, err := decodeProject(data, "")
	if err != nil {
		return err
	}
	*p = decoded
	return nil
}

func decodeProject(data []byte, path string) (ProjectInfo, error) {
	obj, err := decodeObject(data, path, "project")
	if err != nil {
		return ProjectInfo{}, err
	}

	var p ProjectInfo
	if p.Tempo, err = obj.requiredFloat("tempo", expectedTempo); err != nil {
		return ProjectInfo{}, err
	}
	if !(p.Tempo > 0) {
		return ProjectInfo{}, invalid(path, "tempo", p.Tempo, expectedTempo)
	}

	items, err := obj.array("tracks", true)
	if err != nil {
		return ProjectInfo{}, err
	}
	if len(items) > 0 {
		p.Tracks = make([]Track, 0, len(items))
	}
	for i, raw := range items {
		t, err := decodeTrack(raw, indexPath(path, "tracks", i))
		if err != nil {
			return ProjectInfo{}, err
		}
		p.Tracks = append(p.Tracks, t)
	}

	if err := p.validate(path); err != nil {
		return ProjectInfo{}, err
	}
	return p, nil
}

var (
	_ json.Marshaler   = ProjectInfo{}
	_ json.Unmarshaler = (*ProjectInfo)(nil)
)
