// Package voicevox provides an HTTP client for the VOICEVOX engine REST API
// (https://voicevox.hiroshiba.jp/), the speech synthesis backend for kanade.
//
// The engine exposes a two-step synthesis flow: a query endpoint
// (/audio_query or /audio_query_from_preset) produces a JSON synthesis
// request, and /synthesis renders it to a WAV file. [Client] mirrors those
// endpoints one-to-one; [Engine] in speech.go composes them into a single
// text-to-PCM call.
//
// Typical usage:
//
//	c := voicevox.New("http://localhost:50021",
//	    voicevox.WithTimeout(15*time.Second),
//	)
//	presets, err := c.Presets(ctx)
package voicevox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// EncodedAudio is a synthesised utterance as returned by the engine,
// currently always a complete RIFF/WAVE file.
type EncodedAudio []byte

// Preset is a named bundle of synthesis parameters registered in the engine.
type Preset struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	SpeakerUUID     string  `json:"speaker_uuid"`
	StyleID         int64   `json:"style_id"`
	SpeedScale      float64 `json:"speedScale"`
	PitchScale      float64 `json:"pitchScale"`
	IntonationScale float64 `json:"intonationScale"`
	VolumeScale     float64 `json:"volumeScale"`
}

// Speaker is a voice character; each carries one or more styles.
type Speaker struct {
	Name        string  `json:"name"`
	SpeakerUUID string  `json:"speaker_uuid"`
	Styles      []Style `json:"styles"`
}

// Style is a raw voice identity within a speaker.
type Style struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Option is a functional option for configuring a [Client].
type Option func(*Client)

// WithTimeout sets the per-request HTTP timeout. Defaults to 30 s;
// non-positive values are ignored so a zero config never disables the
// timeout entirely.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client entirely. Useful in
// tests and when custom transport settings are needed.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Client is a thin wrapper around the VOICEVOX engine REST API.
// It is safe for concurrent use.
type Client struct {
	apiBase    string
	httpClient *http.Client
}

// New creates a Client that targets the engine at apiBase
// (e.g. "http://localhost:50021").
func New(apiBase string, opts ...Option) *Client {
	c := &Client{
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Presets retrieves all synthesis presets registered in the engine via
// GET /presets.
func (c *Client) Presets(ctx context.Context) ([]Preset, error) {
	var presets []Preset
	if err := c.getJSON(ctx, "/presets", nil, &presets); err != nil {
		return nil, err
	}
	return presets, nil
}

// Speakers retrieves all voice characters and their styles via GET /speakers.
func (c *Client) Speakers(ctx context.Context) ([]Speaker, error) {
	var speakers []Speaker
	if err := c.getJSON(ctx, "/speakers", nil, &speakers); err != nil {
		return nil, err
	}
	return speakers, nil
}

// Styles flattens the engine's speaker catalogue into a single style list.
func (c *Client) Styles(ctx context.Context) ([]Style, error) {
	speakers, err := c.Speakers(ctx)
	if err != nil {
		return nil, err
	}
	var styles []Style
	for _, sp := range speakers {
		styles = append(styles, sp.Styles...)
	}
	return styles, nil
}

// AudioQuery builds a synthesis query for text with the given style via
// POST /audio_query. The returned string is the raw query JSON, passed
// unmodified (or with fields overridden) to [Client.Synthesis].
func (c *Client) AudioQuery(ctx context.Context, text string, styleID int64) (string, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("speaker", strconv.FormatInt(styleID, 10))
	return c.postText(ctx, "/audio_query", params)
}

// AudioQueryFromPreset builds a synthesis query for text using a preset's
// stored parameters via POST /audio_query_from_preset.
func (c *Client) AudioQueryFromPreset(ctx context.Context, text string, presetID int64) (string, error) {
	params := url.Values{}
	params.Set("text", text)
	params.Set("preset_id", strconv.FormatInt(presetID, 10))
	return c.postText(ctx, "/audio_query_from_preset", params)
}

// Synthesis renders a query (as produced by [Client.AudioQuery]) into WAV
// audio with the given style via POST /synthesis.
func (c *Client) Synthesis(ctx context.Context, styleID int64, query string) (EncodedAudio, error) {
	params := url.Values{}
	params.Set("speaker", strconv.FormatInt(styleID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/synthesis?"+params.Encode(), strings.NewReader(query))
	if err != nil {
		return nil, fmt.Errorf("voicevox: create synthesis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/wav")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("voicevox: POST /synthesis: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("voicevox: POST /synthesis returned status %d", resp.StatusCode)
	}

	wav, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("voicevox: read synthesis response: %w", err)
	}
	return EncodedAudio(wav), nil
}

// InitializeSpeaker warms up the engine for a style via POST
// /initialize_speaker. The first synthesis for an uninitialised style can
// take several seconds; calling this at startup hides that latency.
func (c *Client) InitializeSpeaker(ctx context.Context, styleID int64) error {
	params := url.Values{}
	params.Set("speaker", strconv.FormatInt(styleID, 10))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+"/initialize_speaker?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("voicevox: create initialize_speaker request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("voicevox: POST /initialize_speaker: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("voicevox: POST /initialize_speaker returned status %d", resp.StatusCode)
	}
	return nil
}

// Version reports the engine version via GET /version. Used as a readiness
// probe.
func (c *Client) Version(ctx context.Context) (string, error) {
	var v string
	if err := c.getJSON(ctx, "/version", nil, &v); err != nil {
		return "", err
	}
	return v, nil
}

// getJSON performs a GET request and decodes the JSON response into out.
func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	u := c.apiBase + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("voicevox: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("voicevox: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("voicevox: GET %s returned status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("voicevox: decode %s response: %w", path, err)
	}
	return nil
}

// postText performs a POST request with query parameters and returns the
// response body as a string. The query endpoints return the synthesis query
// JSON as text.
func (c *Client) postText(ctx context.Context, path string, params url.Values) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("voicevox: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("voicevox: POST %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("voicevox: POST %s returned status %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("voicevox: read %s response: %w", path, err)
	}
	if len(body) == 0 {
		return "", errors.New("voicevox: empty query response")
	}
	return string(body), nil
}
