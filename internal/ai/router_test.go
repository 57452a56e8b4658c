package ai_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/p-n-ai/vocatrack/internal/ai"
)

func hi() ai.CompletionRequest {
	return ai.CompletionRequest{Messages: []ai.Message{{Role: ai.RoleUser, Content: "hi"}}}
}

func TestRouter_SingleProvider(t *testing.T) {
	router := ai.NewRouter(0)
	mock := ai.NewMockProvider("Hello!")
	router.Register("openai", mock)

	resp, err := router.Complete(context.Background(), hi())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Hello!" {
		t.Errorf("Content = %q, want %q", resp.Content, "Hello!")
	}
	if mock.LastRequest() == nil || mock.LastRequest().Messages[0].Content != "hi" {
		t.Errorf("LastRequest() = %+v", mock.LastRequest())
	}
}

func TestRouter_Fallback(t *testing.T) {
	router := ai.NewRouter(0)

	failing := &ai.MockProvider{Err: errors.New("rate limited")}
	fallback := ai.NewMockProvider("Fallback response")

	router.Register("openai", failing)
	router.Register("ollama", fallback)

	resp, err := router.Complete(context.Background(), hi())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Fallback response" {
		t.Errorf("Content = %q, want %q", resp.Content, "Fallback response")
	}
	if failing.Calls() != 1 {
		t.Errorf("failing provider calls = %d, want 1 (no retries)", failing.Calls())
	}
}

func TestRouter_TimeoutMovesToNextProvider(t *testing.T) {
	router := ai.NewRouter(20 * time.Millisecond)

	slow := &ai.MockProvider{Response: "late", Delay: time.Second}
	router.Register("slow", slow)
	router.Register("fast", ai.NewMockProvider("fast"))

	resp, err := router.Complete(context.Background(), hi())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "fast" {
		t.Errorf("Content = %q, want fast", resp.Content)
	}
}

func TestRouter_AllProvidersFail(t *testing.T) {
	router := ai.NewRouter(0)

	first := errors.New("fail 1")
	router.Register("openai", &ai.MockProvider{Err: first})
	router.Register("ollama", &ai.MockProvider{Err: errors.New("fail 2")})

	_, err := router.Complete(context.Background(), hi())
	if err == nil {
		t.Fatal("Complete() should return error when all providers fail")
	}
	if !errors.Is(err, first) {
		t.Errorf("error = %v, want it to wrap each provider failure", err)
	}
}

func TestRouter_NoProviders(t *testing.T) {
	router := ai.NewRouter(0)

	if _, err := router.Complete(context.Background(), hi()); !errors.Is(err, ai.ErrNoProvider) {
		t.Fatalf("Complete() error = %v, want ErrNoProvider", err)
	}
	if err := router.HealthCheck(context.Background()); !errors.Is(err, ai.ErrNoProvider) {
		t.Errorf("HealthCheck() error = %v, want ErrNoProvider", err)
	}
}

func TestRouter_HasProvider(t *testing.T) {
	router := ai.NewRouter(0)
	if router.HasProvider() {
		t.Error("HasProvider() should be false with no providers")
	}

	router.Register("mock", ai.NewMockProvider("ok"))
	if !router.HasProvider() {
		t.Error("HasProvider() should be true after Register")
	}
}

func TestRouter_FallbackOrder(t *testing.T) {
	router := ai.NewRouter(0)

	router.Register("first", ai.NewMockProvider("first"))
	router.Register("second", ai.NewMockProvider("second"))
	// Re-registering keeps the original position.
	router.Register("first", ai.NewMockProvider("first again"))

	resp, err := router.Complete(context.Background(), hi())
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "first again" {
		t.Errorf("Content = %q, want %q", resp.Content, "first again")
	}
}

func TestRouter_HealthCheck(t *testing.T) {
	router := ai.NewRouter(0)
	router.Register("down", &ai.MockProvider{Err: errors.New("down")})
	if err := router.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() should fail when every provider is down")
	}

	router.Register("up", ai.NewMockProvider("ok"))
	if err := router.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil with one healthy provider", err)
	}
}
