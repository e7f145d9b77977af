package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

type ipv4Server struct {
	URL string
	srv *http.Server
	ln  net.Listener
}

func newIPv4Server(t *testing.T, handler http.Handler) *ipv4Server {
	t.Helper()
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		if errors.Is(err, syscall.EACCES) || errors.Is(err, syscall.EPERM) {
			t.Skipf("skipping test: cannot open local listener (%v)", err)
		}
		t.Fatalf("listen tcp4: %v", err)
	}
	srv := &http.Server{Handler: handler}
	s := &ipv4Server{
		URL: "http://" + ln.Addr().String(),
		srv: srv,
		ln:  ln,
	}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(fmt.Sprintf("test server serve: %v", err))
		}
	}()
	return s
}

func (s *ipv4Server) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.srv.Shutdown(ctx)
}

func TestOllamaGenerateSuccess(t *testing.T) {
	var captured ollamaChatRequest
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/chat" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&captured)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message":           map[string]any{"role": "assistant", "content": "hello from ollama"},
			"done":              true,
			"prompt_eval_count": 12,
			"eval_count":        5,
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, 1, 0, 0)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	resp, err := c.Generate(ctx, GenerateRequest{
		Model:     "mistral:latest",
		Messages:  []Message{{Role: "system", Content: "be brief"}, {Role: "user", Content: "hi"}},
		MaxTokens: 16,
		Format:    "json",
	})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "hello from ollama" {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if resp.Usage.TotalTokens != 17 {
		t.Fatalf("usage = %+v", resp.Usage)
	}
	if resp.RequestID == "" {
		t.Fatalf("expected simulated request id")
	}
	if captured.Stream || captured.Format != "json" || len(captured.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", captured)
	}
	if captured.Options["num_predict"] != float64(16) {
		t.Fatalf("num_predict not forwarded: %+v", captured.Options)
	}
}

func TestOllamaGenerateModelNotFound(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "model \"mistral:latest\" not found, try pulling it first"})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, 2*time.Second, 3, time.Millisecond, time.Millisecond)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "mistral:latest", Messages: []Message{{Role: "user", Content: "hi"}}})
	var nf *ModelNotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected ModelNotFoundError, got %v", err)
	}
}

func TestOllamaGenerateRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(map[string]any{"error": "loading model"})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"message": map[string]any{"role": "assistant", "content": "ok"},
		})
	}))
	defer srv.Close()

	c := NewOllamaClient(srv.URL, 2*time.Second, 2, time.Millisecond, 5*time.Millisecond)
	resp, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("Generate error: %v", err)
	}
	if resp.Text() != "ok" || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("expected success on second attempt, calls=%d", calls)
	}
}

func TestOllamaGenerateBadRequestNotRetried(t *testing.T) {
	var calls int32
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]any{"error": "bad request"})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL, 2*time.Second, 3, time.Millisecond, time.Millisecond)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	var br *BadRequestError
	if !errors.As(err, &br) {
		t.Fatalf("expected BadRequestError, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("bad request should not be retried, calls=%d", calls)
	}
}

func TestOllamaGenerateValidation(t *testing.T) {
	c := NewOllamaClient("http://localhost:11434", 2*time.Second, 1, 0, 0)
	_, err := c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{}})
	if err == nil || err.Error() != "messages cannot be empty" {
		t.Fatalf("expected 'messages cannot be empty' error, got: %v", err)
	}
	_, err = c.Generate(context.Background(), GenerateRequest{Messages: []Message{{Role: "user", Content: "hi"}}})
	if err == nil || err.Error() != "model cannot be empty" {
		t.Fatalf("expected 'model cannot be empty' error, got: %v", err)
	}
}

func TestOllamaUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test: cannot open local listener (%v)", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	c := NewOllamaClient("http://"+addr, time.Second, 1, 0, 0)
	_, err = c.Generate(context.Background(), GenerateRequest{Model: "m", Messages: []Message{{Role: "user", Content: "hi"}}})
	var ue *UnreachableError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnreachableError, got %v", err)
	}
}

func TestOllamaListModels(t *testing.T) {
	srv := newIPv4Server(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"models": []map[string]any{{"name": "mistral:latest"}, {"name": "llama3:8b"}},
		})
	}))
	defer srv.Close()
	c := NewOllamaClient(srv.URL+"/", time.Second, 1, 0, 0)
	names, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(names) != 2 || names[0] != "mistral:latest" {
		t.Fatalf("names = %v", names)
	}
}

func TestGetRuntimeRegistered(t *testing.T) {
	for _, name := range []string{ProviderOllama, ProviderLocal} {
		rt, ok := GetRuntime(name, RuntimeConfig{Host: "http://127.0.0.1:1"})
		if !ok || rt == nil {
			t.Fatalf("runtime %q not registered", name)
		}
	}
	if _, ok := GetRuntime("openrouter", RuntimeConfig{}); ok {
		t.Fatalf("unexpected runtime registered")
	}
}
