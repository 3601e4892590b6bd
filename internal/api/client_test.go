package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/example/toonretouch/internal/snapshot"
)

func TestEraseSendsSnapshots(t *testing.T) {
	var got EraseRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/erase" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		json.NewEncoder(w).Encode(EraseResponse{ResultImage: snapshot.DataURIPrefix + "UkVTVUxU"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL + "/api/")
	res, err := c.Erase(context.Background(), "t1", snapshot.Snapshot(snapshot.DataURIPrefix+"TUFTSw=="), "U1JD")
	if err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if res != "UkVTVUxU" {
		t.Fatalf("result %q", res)
	}
	if got.TranslateID != "t1" || got.MaskImage != "TUFTSw==" || got.SourceImage != "U1JD" {
		t.Fatalf("request %+v", got)
	}
}

func TestEraseOmitsMissingSource(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&raw)
		json.NewEncoder(w).Encode(EraseResponse{ResultImage: "eA=="})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL).Erase(context.Background(), "t1", "bQ==", ""); err != nil {
		t.Fatalf("Erase: %v", err)
	}
	if _, ok := raw["sourceImage"]; ok {
		t.Fatalf("sourceImage sent: %v", raw)
	}
}

func TestGetTranslate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/translate/abc" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(`{"translateId":"abc","status":"completed","resultUrl":"http://x/y.png","originalUrl":null,"createdAt":"2024-01-01T00:00:00Z","completedAt":null,"errorMessage":null}`))
	}))
	defer srv.Close()

	tr, err := NewClient(srv.URL).GetTranslate(context.Background(), "abc")
	if err != nil {
		t.Fatalf("GetTranslate: %v", err)
	}
	if !tr.Completed() || tr.ImageURL() != "http://x/y.png" {
		t.Fatalf("unexpected translate %+v", tr)
	}
	var nilT *Translate
	if nilT.Completed() || nilT.ImageURL() != "" {
		t.Fatal("nil translate must be safe")
	}
}

func TestMessageMapping(t *testing.T) {
	structured := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail":{"code":"INVALID_MASK","message":"mask is invalid"}}`))
	}))
	defer structured.Close()
	plain := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"detail":"not found"}`))
	}))
	defer plain.Close()
	shapeless := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"detail":{"code":"X"}}`))
	}))
	defer shapeless.Close()
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer slow.Close()
	down := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	downURL := down.URL
	down.Close()

	cases := []struct {
		name   string
		client *Client
		want   string
	}{
		{"structured", NewClient(structured.URL), "mask is invalid"},
		{"string detail", NewClient(plain.URL), "not found"},
		{"detail without message", NewClient(shapeless.URL), MessageUnknown},
		{"timeout", NewClient(slow.URL, WithTimeout(50*time.Millisecond)), MessageTimeout},
		{"unreachable", NewClient(downURL), MessageUnreachable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.client.Erase(context.Background(), "t", "bQ==", "")
			if err == nil {
				t.Fatal("expected error")
			}
			if got := Message(err); got != tc.want {
				t.Fatalf("Message = %q, want %q (err %v)", got, tc.want, err)
			}
		})
	}
}

func TestMessageFallbacks(t *testing.T) {
	if Message(nil) != "" {
		t.Fatal("nil error should map to empty message")
	}
	if got := Message(errors.New("weird")); got != MessageUnknown {
		t.Fatalf("plain error mapped to %q", got)
	}
	ctxErr := &TransportError{Op: "POST /erase", Err: context.DeadlineExceeded}
	if got := Message(ctxErr); got != MessageTimeout {
		t.Fatalf("deadline mapped to %q", got)
	}
	var apiErr *Error
	if !errors.As(parseError(400, []byte("<html>")), &apiErr) || apiErr.Message != "" {
		t.Fatal("non JSON body must produce an empty message")
	}
}
