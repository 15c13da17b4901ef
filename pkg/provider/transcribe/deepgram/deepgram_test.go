package deepgram

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/voxnote/voxnote/pkg/provider/transcribe"
)

// ---- URL / query-param tests ----

func TestBuildURL_Defaults(t *testing.T) {
	p, err := New("test-key")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL()
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatalf("parse URL: %v", err)
	}
	q := u.Query()

	assertEqual(t, "model", "nova-2", q.Get("model"))
	assertEqual(t, "diarize", "true", q.Get("diarize"))
	assertEqual(t, "punctuate", "true", q.Get("punctuate"))
	assertEqual(t, "paragraphs", "true", q.Get("paragraphs"))
}

func TestBuildURL_CustomModel(t *testing.T) {
	p, err := New("key", WithModel("base"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rawURL, err := p.buildURL()
	if err != nil {
		t.Fatalf("buildURL: %v", err)
	}

	u, _ := url.Parse(rawURL)
	assertEqual(t, "model", "base", u.Query().Get("model"))
}

func TestNew_EmptyAPIKey(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("New with empty apiKey: expected error, got nil")
	}
}

// ---- response parsing tests ----

const fullResponse = `{
	"results": {
		"channels": [{
			"alternatives": [{
				"paragraphs": {
					"transcript": "Speaker 0: Hello there.\n\nSpeaker 1: Hi."
				}
			}]
		}]
	}
}`

func TestParseResponse_FullPath(t *testing.T) {
	text, err := parseResponse([]byte(fullResponse))
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	assertEqual(t, "transcript", "Speaker 0: Hello there.\n\nSpeaker 1: Hi.", text)
}

func TestParseResponse_MissingSegments(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"no results", `{}`},
		{"no channels", `{"results": {"channels": []}}`},
		{"no alternatives", `{"results": {"channels": [{"alternatives": []}]}}`},
		{"no paragraphs", `{"results": {"channels": [{"alternatives": [{}]}]}}`},
		{"empty transcript", `{"results": {"channels": [{"alternatives": [{"paragraphs": {"transcript": ""}}]}]}}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			text, err := parseResponse([]byte(tc.body))
			if !errors.Is(err, transcribe.ErrNoTranscript) {
				t.Fatalf("expected ErrNoTranscript, got %v (text %q)", err, text)
			}
			if text != "" {
				t.Fatalf("expected empty text alongside error, got %q", text)
			}
		})
	}
}

func TestParseResponse_InvalidJSON(t *testing.T) {
	if _, err := parseResponse([]byte(`{not json`)); err == nil {
		t.Fatal("expected decode error, got nil")
	}
}

// ---- end-to-end against a local server ----

func TestTranscribe_RoundTrip(t *testing.T) {
	var gotAuth, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotContentType = r.Header.Get("Content-Type")
		w.Write([]byte(fullResponse))
	}))
	defer srv.Close()

	p, err := New("dg-key", WithBaseURL(srv.URL))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	audioPath := writeTempAudio(t)
	res, err := p.Transcribe(context.Background(), audioPath)
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	assertEqual(t, "auth header", "Token dg-key", gotAuth)
	assertEqual(t, "content type", "audio/ogg", gotContentType)
	assertEqual(t, "transcript", "Speaker 0: Hello there.\n\nSpeaker 1: Hi.", res.Text)
}

func TestTranscribe_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"err_msg": "bad credentials"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, _ := New("bad-key", WithBaseURL(srv.URL))
	if _, err := p.Transcribe(context.Background(), writeTempAudio(t)); err == nil {
		t.Fatal("expected error on 401, got nil")
	}
}

func TestTranscribe_MissingFile(t *testing.T) {
	p, _ := New("key")
	if _, err := p.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.oga")); err == nil {
		t.Fatal("expected error for missing audio file, got nil")
	}
}

// ---- helpers ----

func writeTempAudio(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "note.oga")
	if err := os.WriteFile(path, []byte("OggS fake audio"), 0o644); err != nil {
		t.Fatalf("write temp audio: %v", err)
	}
	return path
}

func assertEqual(t *testing.T, label, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s: want %q, got %q", label, want, got)
	}
}
