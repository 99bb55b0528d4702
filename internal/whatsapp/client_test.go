package whatsapp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendText(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"messages":[{"id":"wamid.test123"}]}`)
	}))
	defer srv.Close()

	c := New("tok", "555000", WithBaseURL(srv.URL))
	id, err := c.SendText(context.Background(), "919999999999", "Namaste!")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "wamid.test123" {
		t.Fatalf("expected message id, got %q", id)
	}
	if gotPath != "/555000/messages" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer tok" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody["messaging_product"] != "whatsapp" || gotBody["type"] != "text" {
		t.Fatalf("unexpected payload: %v", gotBody)
	}
	text, _ := gotBody["text"].(map[string]any)
	if text["body"] != "Namaste!" {
		t.Fatalf("unexpected text body: %v", gotBody)
	}
}

func TestSendTextTokenExpired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := New("stale", "555000", WithBaseURL(srv.URL))
	_, err := c.SendText(context.Background(), "919999999999", "hi")
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestSendTemplate(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(raw, &gotBody)
		io.WriteString(w, `{"messages":[{"id":"wamid.tmpl"}]}`)
	}))
	defer srv.Close()

	c := New("tok", "555000", WithBaseURL(srv.URL))
	if _, err := c.SendTemplate(context.Background(), "919999999999", "hello_world", "en_US"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tmpl, _ := gotBody["template"].(map[string]any)
	if tmpl["name"] != "hello_world" {
		t.Fatalf("unexpected template payload: %v", gotBody)
	}
}

func TestValidateToken(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/555000" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()

	c := New("tok", "555000", WithBaseURL(srv.URL))
	if err := c.ValidateToken(context.Background()); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}

	status = http.StatusUnauthorized
	if err := c.ValidateToken(context.Background()); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestValidateTokenMissingCredentials(t *testing.T) {
	c := New("", "")
	if err := c.ValidateToken(context.Background()); err == nil {
		t.Fatal("expected error for missing credentials")
	}
}

func TestMediaRoundTrip(t *testing.T) {
	var mediaSrv *httptest.Server
	mediaSrv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/media-id-1":
			io.WriteString(w, `{"url":"`+mediaSrv.URL+`/binary/media-id-1"}`)
		case "/binary/media-id-1":
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte{0xff, 0xd8, 0xff})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer mediaSrv.Close()

	c := New("tok", "555000", WithBaseURL(mediaSrv.URL))
	url, err := c.MediaURL(context.Background(), "media-id-1")
	if err != nil {
		t.Fatalf("media url: %v", err)
	}

	data, mime, err := c.DownloadMedia(context.Background(), url)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if mime != "image/jpeg" || len(data) != 3 {
		t.Fatalf("unexpected media: mime=%q len=%d", mime, len(data))
	}
}
