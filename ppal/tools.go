package ppal

import (
	"context"
	"encoding/json"

	"github.com/petal-labs/ppal/model"
)

// Producer Pal tool names.
const (
	ToolReadLiveSet = "ppal-read-live-set"
	ToolReadTrack   = "ppal-read-track"
	ToolReadClip    = "ppal-read-clip"
	ToolCreateClip  = "ppal-create-clip"
)

// GetProjectInfo reads the tempo and tracks of the open Live set.
func (c *Client) GetProjectInfo(ctx context.Context) (model.ProjectInfo, error) {
	var info model.ProjectInfo
	err := c.invoke(ctx, ToolReadLiveSet, nil, func(payload json.RawMessage) error {
		var err error
		info, err = model.ParseProject(payload)
		return err
	})
	if err != nil {
		return model.ProjectInfo{}, err
	}
	return info, nil
}

// GetTrack reads one track and its clips.
func (c *Client) GetTrack(ctx context.Context, trackID int) (model.Track, error) {
	var track model.Track
	args := map[string]any{"trackId": trackID}
	err := c.invoke(ctx, ToolReadTrack, args, func(payload json.RawMessage) error {
		var err error
		track, err = model.ParseTrack(payload)
		return err
	})
	if err != nil {
		return model.Track{}, err
	}
	return track, nil
}

// GetClip reads one clip and its notes.
func (c *Client) GetClip(ctx context.Context, trackID, clipID int) (model.Clip, error) {
	var clip model.Clip
	args := map[string]any{"trackId": trackID, "clipId": clipID}
	err := c.invoke(ctx, ToolReadClip, args, func(payload json.RawMessage) error {
		var err error
		clip, err = model.ParseClip(payload)
		return err
	})
	if err != nil {
		return model.Clip{}, err
	}
	return clip, nil
}

// CreateMIDIClip creates a clip holding notes on a track and returns the
// clip as the server stored it. Notes are validated first; an invalid note
// fails with KindValidation and nothing is sent.
func (c *Client) CreateMIDIClip(ctx context.Context, trackID int, notes []model.Note) (model.Clip, error) {
	if err := model.ValidateNotes(notes); err != nil {
		return model.Clip{}, newError(KindValidation, ToolCreateClip, err, "%s", trimModelPrefix(err.Error()))
	}
	if notes == nil {
		notes = []model.Note{}
	}

	var clip model.Clip
	args := map[string]any{"trackId": trackID, "notes": notes}
	err := c.invoke(ctx, ToolCreateClip, args, func(payload json.RawMessage) error {
		var err error
		clip, err = model.ParseClip(payload)
		return err
	})
	if err != nil {
		return model.Clip{}, err
	}
	return clip, nil
}
