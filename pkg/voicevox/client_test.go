package voicevox

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestWithTimeout_ZeroKeepsDefault(t *testing.T) {
	t.Parallel()

	c := New("http://localhost:50021", WithTimeout(0))
	if c.httpClient.Timeout != defaultTimeout {
		t.Errorf("Timeout = %v, want %v", c.httpClient.Timeout, defaultTimeout)
	}

	c = New("http://localhost:50021", WithTimeout(10*time.Second))
	if c.httpClient.Timeout != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", c.httpClient.Timeout)
	}
}

func TestClient_Presets(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/presets" {
			t.Errorf("path = %q, want /presets", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Preset{
			{ID: 1, Name: "ずんだもん", StyleID: 3, SpeedScale: 1.0},
			{ID: 2, Name: "四国めたん", StyleID: 2, SpeedScale: 1.1},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	presets, err := c.Presets(context.Background())
	if err != nil {
		t.Fatalf("Presets() error: %v", err)
	}
	if len(presets) != 2 {
		t.Fatalf("len(presets) = %d, want 2", len(presets))
	}
	if presets[0].ID != 1 || presets[0].StyleID != 3 {
		t.Errorf("presets[0] = %+v, want ID 1 StyleID 3", presets[0])
	}
}

func TestClient_Styles_Flattens(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]Speaker{
			{Name: "a", Styles: []Style{{ID: 0, Name: "ノーマル"}, {ID: 1, Name: "あまあま"}}},
			{Name: "b", Styles: []Style{{ID: 8, Name: "ノーマル"}}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	styles, err := c.Styles(context.Background())
	if err != nil {
		t.Fatalf("Styles() error: %v", err)
	}
	if len(styles) != 3 {
		t.Fatalf("len(styles) = %d, want 3", len(styles))
	}
	if styles[2].ID != 8 {
		t.Errorf("styles[2].ID = %d, want 8", styles[2].ID)
	}
}

func TestClient_AudioQuery_SendsParams(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if got := r.URL.Query().Get("text"); got != "こんにちは" {
			t.Errorf("text param = %q, want こんにちは", got)
		}
		if got := r.URL.Query().Get("speaker"); got != "3" {
			t.Errorf("speaker param = %q, want 3", got)
		}
		w.Write([]byte(`{"speedScale":1.0}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	query, err := c.AudioQuery(context.Background(), "こんにちは", 3)
	if err != nil {
		t.Fatalf("AudioQuery() error: %v", err)
	}
	if query != `{"speedScale":1.0}` {
		t.Errorf("query = %q", query)
	}
}

func TestClient_Synthesis_ErrorStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(srv.URL)
	if _, err := c.Synthesis(context.Background(), 3, "{}"); err == nil {
		t.Error("Synthesis() expected error on 422 response, got nil")
	}
}

func TestClient_Version(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`"0.22.0"`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	v, err := c.Version(context.Background())
	if err != nil {
		t.Fatalf("Version() error: %v", err)
	}
	if v != "0.22.0" {
		t.Errorf("Version() = %q, want 0.22.0", v)
	}
}
