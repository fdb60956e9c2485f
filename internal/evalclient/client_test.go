package evalclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// captureServer records the last request body and headers, replying 200 "ok".
func captureServer(t *testing.T) (*httptest.Server, *http.Header, *[]byte) {
	t.Helper()
	var hdr http.Header
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr = r.Header.Clone()
		body, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, "ok")
	}))
	t.Cleanup(srv.Close)
	return srv, &hdr, &body
}

func TestExecMinimalBody(t *testing.T) {
	srv, hdr, body := captureServer(t)
	c := New(srv.URL, "secret")

	out, err := c.Exec(context.Background(), Request{Code: "print(1)"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out != "ok" {
		t.Errorf("response = %q, want %q", out, "ok")
	}

	var payload map[string]any
	if err := json.Unmarshal(*body, &payload); err != nil {
		t.Fatalf("unmarshaling body: %v", err)
	}
	if len(payload) != 1 {
		t.Errorf("body has keys %v, want only code", payload)
	}
	if payload["code"] != "print(1)" {
		t.Errorf("code = %v, want print(1)", payload["code"])
	}
	if got := hdr.Get("Content-Type"); got != "application/json" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := hdr.Get("Authorization"); got != "Bearer secret" {
		t.Errorf("Authorization = %q", got)
	}
}

func TestExecTokenPassedVerbatim(t *testing.T) {
	srv, hdr, _ := captureServer(t)

	// Tokens with spaces and specials must not be escaped or re-encoded.
	token := "se cret/tok=en+%21"
	c := New(srv.URL, token)
	if _, err := c.Exec(context.Background(), Request{Code: "1"}); err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if got := hdr.Get("Authorization"); got != "Bearer "+token {
		t.Errorf("Authorization = %q, want %q", got, "Bearer "+token)
	}
}

func TestExecOptionalFields(t *testing.T) {
	srv, _, body := captureServer(t)
	c := New(srv.URL, "secret")

	_, err := c.Exec(context.Background(), Request{
		Code:            "print(open('data.txt').read())",
		Files:           map[string]string{"data.txt": "42\n"},
		Strace:          true,
		InterpreterMode: true,
	})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(*body, &payload); err != nil {
		t.Fatalf("unmarshaling body: %v", err)
	}
	files, ok := payload["files"].(map[string]any)
	if !ok || files["data.txt"] != "42\n" {
		t.Errorf("files = %v", payload["files"])
	}
	if payload["strace"] != true {
		t.Errorf("strace = %v, want true", payload["strace"])
	}
	if payload["interpreter_mode"] != true {
		t.Errorf("interpreter_mode = %v, want true", payload["interpreter_mode"])
	}
}

func TestExecOmitsUnsetOptionals(t *testing.T) {
	srv, _, body := captureServer(t)
	c := New(srv.URL, "secret")

	_, err := c.Exec(context.Background(), Request{Code: "1+1", Files: nil})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(*body, &payload); err != nil {
		t.Fatalf("unmarshaling body: %v", err)
	}
	for _, key := range []string{"files", "strace", "interpreter_mode"} {
		if _, present := payload[key]; present {
			t.Errorf("key %q should be absent when unset, body: %s", key, *body)
		}
	}
}

func TestExecEchoesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.Copy(w, r.Body)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	out, err := c.Exec(context.Background(), Request{Code: "1+1"})
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if out != `{"code":"1+1"}` {
		t.Errorf("echoed body = %q", out)
	}
}

func TestExecStatusAgnostic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, "Traceback (most recent call last): ...")
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	out, err := c.Exec(context.Background(), Request{Code: "boom()"})
	if err != nil {
		t.Fatalf("Exec should not error on HTTP 500: %v", err)
	}
	if !strings.HasPrefix(out, "Traceback") {
		t.Errorf("output = %q, want the error body verbatim", out)
	}
}

func TestExecTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := New(srv.URL, "secret")
	if _, err := c.Exec(context.Background(), Request{Code: "1"}); err == nil {
		t.Fatal("expected a transport error against a closed server")
	}
}

func TestExecConcurrent(t *testing.T) {
	// Each response carries the code it was asked to run; concurrent callers
	// must each get their own answer back.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req Request
		json.NewDecoder(r.Body).Decode(&req)
		fmt.Fprintf(w, "ran:%s", req.Code)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			code := fmt.Sprintf("print(%d)", n)
			out, err := c.Exec(context.Background(), Request{Code: code})
			if err != nil {
				t.Errorf("Exec(%d): %v", n, err)
				return
			}
			if out != "ran:"+code {
				t.Errorf("Exec(%d) = %q, want %q", n, out, "ran:"+code)
			}
		}(i)
	}
	wg.Wait()
}
