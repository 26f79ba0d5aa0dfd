// Package voice picks a synthesis voice for a speaking user: the user's
// stored preference when it is still available, otherwise a fallback chosen
// once per dispatch.
package voice

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"

	"golang.org/x/sync/singleflight"

	"github.com/kanade-bot/kanade/internal/store"
	"github.com/kanade-bot/kanade/pkg/voicevox"
)

// ErrNoVoicesAvailable is returned when the engine reports zero presets and
// zero styles. The message that triggered resolution is dropped.
var ErrNoVoicesAvailable = errors.New("voice: no presets or styles available")

// PresetLister is the slice of the speech engine the resolver needs.
type PresetLister interface {
	ListPresets(ctx context.Context) ([]voicevox.Preset, error)
	ListStyles(ctx context.Context) ([]voicevox.Style, error)
}

// Selection identifies the voice to synthesize with. Exactly one of the two
// fields is set.
type Selection struct {
	PresetID *int64
	StyleID  *int64
}

// Resolver resolves a (guild, user) pair to a Selection. Concurrent
// dispatches share one preset fetch through a singleflight group.
type Resolver struct {
	speech PresetLister
	prefs  store.VoicePrefs

	group singleflight.Group
}

func NewResolver(speech PresetLister, prefs store.VoicePrefs) *Resolver {
	return &Resolver{speech: speech, prefs: prefs}
}

// Resolve picks a voice for the user. Order: stored preference if it still
// exists among the engine's presets, then a random available preset, then
// the first raw style. The random pick happens once per call so a retry of
// the same message cannot switch voices mid-dispatch.
func (r *Resolver) Resolve(ctx context.Context, guildID, userID string) (Selection, error) {
	presets, err := r.listPresets(ctx)
	if err != nil {
		return Selection{}, fmt.Errorf("voice: list presets: %w", err)
	}

	if preferred, ok, err := r.prefs.PreferredPreset(ctx, guildID, userID); err != nil {
		return Selection{}, fmt.Errorf("voice: load preference: %w", err)
	} else if ok {
		for _, p := range presets {
			if p.ID == preferred {
				return Selection{PresetID: &preferred}, nil
			}
		}
		// Stored preset no longer exists; fall through to a fallback
		// voice instead of erroring.
	}

	if len(presets) > 0 {
		id := presets[rand.IntN(len(presets))].ID
		return Selection{PresetID: &id}, nil
	}

	styles, err := r.speech.ListStyles(ctx)
	if err != nil {
		return Selection{}, fmt.Errorf("voice: list styles: %w", err)
	}
	if len(styles) == 0 {
		return Selection{}, ErrNoVoicesAvailable
	}
	id := styles[0].ID
	return Selection{StyleID: &id}, nil
}

func (r *Resolver) listPresets(ctx context.Context) ([]voicevox.Preset, error) {
	v, err, _ := r.group.Do("presets", func() (any, error) {
		return r.speech.ListPresets(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.([]voicevox.Preset), nil
}
