package voicevox

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/kanade-bot/kanade/pkg/audio"
)

// DefaultSpeedScale is the playback speed applied to every utterance when no
// override is configured. Chat read-aloud at 1.0 feels sluggish, so the bot
// defaults to a slightly faster cadence.
const DefaultSpeedScale = 1.3

// Engine composes a [Client] with the query/synthesis flow and produces
// Discord-ready PCM from plain text. It is safe for concurrent use.
type Engine struct {
	client     *Client
	speedScale float64
}

// NewEngine creates an Engine. speedScale overrides the speed stored in the
// query for every utterance; pass 0 to use [DefaultSpeedScale].
func NewEngine(client *Client, speedScale float64) *Engine {
	if speedScale == 0 {
		speedScale = DefaultSpeedScale
	}
	return &Engine{client: client, speedScale: speedScale}
}

// Client returns the underlying engine client.
func (e *Engine) Client() *Client { return e.client }

// ListPresets returns the presets currently registered in the engine.
func (e *Engine) ListPresets(ctx context.Context) ([]Preset, error) {
	return e.client.Presets(ctx)
}

// ListStyles returns all raw styles currently available in the engine.
func (e *Engine) ListStyles(ctx context.Context) ([]Style, error) {
	return e.client.Styles(ctx)
}

// SpeakPreset synthesises text with the given preset and returns 48 kHz
// stereo PCM. The preset must exist in the engine's current preset list;
// its style is used for the synthesis call itself.
func (e *Engine) SpeakPreset(ctx context.Context, text string, presetID int64) ([]byte, error) {
	presets, err := e.client.Presets(ctx)
	if err != nil {
		return nil, err
	}
	var preset *Preset
	for i := range presets {
		if presets[i].ID == presetID {
			preset = &presets[i]
			break
		}
	}
	if preset == nil {
		return nil, fmt.Errorf("voicevox: preset %d is not available", presetID)
	}

	query, err := e.client.AudioQueryFromPreset(ctx, text, presetID)
	if err != nil {
		return nil, err
	}
	return e.synthesize(ctx, preset.StyleID, query)
}

// SpeakStyle synthesises text with a raw style and returns 48 kHz stereo PCM.
func (e *Engine) SpeakStyle(ctx context.Context, text string, styleID int64) ([]byte, error) {
	query, err := e.client.AudioQuery(ctx, text, styleID)
	if err != nil {
		return nil, err
	}
	return e.synthesize(ctx, styleID, query)
}

// WarmUp initialises every style referenced by a preset so that the first
// real utterance does not pay the engine's model-load latency.
func (e *Engine) WarmUp(ctx context.Context) error {
	presets, err := e.client.Presets(ctx)
	if err != nil {
		return err
	}
	for _, p := range presets {
		if err := e.client.InitializeSpeaker(ctx, p.StyleID); err != nil {
			return fmt.Errorf("voicevox: warm up style %d: %w", p.StyleID, err)
		}
	}
	return nil
}

func (e *Engine) synthesize(ctx context.Context, styleID int64, query string) ([]byte, error) {
	query, err := overrideSpeedScale(query, e.speedScale)
	if err != nil {
		return nil, err
	}

	encoded, err := e.client.Synthesis(ctx, styleID, query)
	if err != nil {
		return nil, err
	}

	pcm, err := audio.DecodeWAV(encoded)
	if err != nil {
		return nil, fmt.Errorf("voicevox: decode synthesis output: %w", err)
	}
	return pcm.ToDiscordFormat(), nil
}

// overrideSpeedScale rewrites the speedScale field of a synthesis query.
// The query is an opaque engine document; everything except the overridden
// field passes through untouched.
func overrideSpeedScale(query string, scale float64) (string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(query), &doc); err != nil {
		return "", fmt.Errorf("voicevox: parse synthesis query: %w", err)
	}
	scaled, err := json.Marshal(scale)
	if err != nil {
		return "", fmt.Errorf("voicevox: encode speed scale: %w", err)
	}
	doc["speedScale"] = scaled

	out, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("voicevox: re-encode synthesis query: %w", err)
	}
	return string(out), nil
}
