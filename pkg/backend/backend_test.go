package backend

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/GxAditya/LinguaSpark-sub001/pkg/models"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		status int
		want   ErrorClass
	}{
		{401, ClassAuthentication},
		{403, ClassAuthentication},
		{402, ClassInsufficientBalance},
		{429, ClassRateLimit},
		{400, ClassValidation},
		{422, ClassValidation},
		{500, ClassServiceUnavailable},
		{503, ClassServiceUnavailable},
		{418, ClassUnknown},
	}
	for _, c := range cases {
		if got := Classify(c.status); got != c.want {
			t.Errorf("Classify(%d) = %s, want %s", c.status, got, c.want)
		}
	}
}

// scriptedBackend fails with the scripted errors in order, then succeeds.
type scriptedBackend struct {
	errs  []error
	calls int
}

func (s *scriptedBackend) Generate(_ context.Context, model string, req *models.GenerationRequest) (*models.RawContent, error) {
	s.calls++
	if s.calls <= len(s.errs) {
		return nil, s.errs[s.calls-1]
	}
	return Placeholder(model, req), nil
}

func noSleep(context.Context, time.Duration) error { return nil }

func textReq() *models.GenerationRequest {
	return &models.GenerationRequest{
		UserID:      "u1",
		ContentType: models.ContentText,
		Prompt:      "conjugate ser",
	}
}

func TestRetrierRecoveryAfterTransientFailure(t *testing.T) {
	sb := &scriptedBackend{errs: []error{
		&ProviderError{Class: ClassRateLimit, StatusCode: 429, Message: "slow down"},
		&ProviderError{Class: ClassServiceUnavailable, StatusCode: 503, Message: "overloaded"},
	}}
	r := NewRetrier(sb, 3, time.Millisecond, nil)
	r.sleep = noSleep

	raw, fallback, err := r.Do(context.Background(), "swift-mini", textReq())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if fallback {
		t.Fatal("content marked as fallback after successful retry")
	}
	if sb.calls != 3 {
		t.Fatalf("backend called %d times, want 3", sb.calls)
	}
	if raw.Model != "swift-mini" {
		t.Fatalf("model %q, want swift-mini", raw.Model)
	}
}

func TestRetrierDoesNotRetryAuthentication(t *testing.T) {
	sb := &scriptedBackend{errs: []error{
		&ProviderError{Class: ClassAuthentication, StatusCode: 401, Message: "bad key"},
	}}
	r := NewRetrier(sb, 3, time.Millisecond, Placeholder)
	r.sleep = noSleep

	_, _, err := r.Do(context.Background(), "swift-mini", textReq())
	if err == nil {
		t.Fatal("expected authentication error to surface")
	}
	var pe *ProviderError
	if !errors.As(err, &pe) || pe.Class != ClassAuthentication {
		t.Fatalf("got %v, want authentication provider error", err)
	}
	if sb.calls != 1 {
		t.Fatalf("backend called %d times, want 1", sb.calls)
	}
}

func TestRetrierFallbackAfterExhaustion(t *testing.T) {
	always := &scriptedBackend{errs: []error{
		&ProviderError{Class: ClassServiceUnavailable, StatusCode: 503, Message: "down"},
		&ProviderError{Class: ClassServiceUnavailable, StatusCode: 503, Message: "down"},
		&ProviderError{Class: ClassServiceUnavailable, StatusCode: 503, Message: "down"},
	}}
	r := NewRetrier(always, 2, time.Millisecond, Placeholder)
	r.sleep = noSleep

	raw, fallback, err := r.Do(context.Background(), "swift-mini", textReq())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if !fallback {
		t.Fatal("expected fallback content after exhausted retries")
	}
	if len(raw.Data) == 0 {
		t.Fatal("fallback produced empty content")
	}
	if always.calls != 3 {
		t.Fatalf("backend called %d times, want 3", always.calls)
	}
}

func TestRetrierNoFallbackForValidation(t *testing.T) {
	sb := &scriptedBackend{errs: []error{
		&ProviderError{Class: ClassValidation, StatusCode: 422, Message: "prompt too long"},
	}}
	r := NewRetrier(sb, 2, time.Millisecond, Placeholder)
	r.sleep = noSleep

	_, _, err := r.Do(context.Background(), "swift-mini", textReq())
	if err == nil {
		t.Fatal("validation error should not be masked by fallback")
	}
}

func TestHTTPBackendRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/generate" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":"hola mundo","tokens":12}`))
	}))
	defer srv.Close()

	b := NewHTTP(srv.URL, "sk-test", 5*time.Second)
	raw, err := b.Generate(context.Background(), "swift-standard", textReq())
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(raw.Data) != "hola mundo" {
		t.Fatalf("data %q", raw.Data)
	}
	if raw.Tokens != 12 {
		t.Fatalf("tokens %d, want 12", raw.Tokens)
	}
	if raw.Model != "swift-standard" {
		t.Fatalf("model %q", raw.Model)
	}
}

func TestHTTPBackendClassifiesProviderErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":"rate limited"}`))
	}))
	defer srv.Close()

	b := NewHTTP(srv.URL, "", 5*time.Second)
	_, err := b.Generate(context.Background(), "swift-mini", textReq())

	var pe *ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("got %v, want ProviderError", err)
	}
	if pe.Class != ClassRateLimit {
		t.Fatalf("class %s, want %s", pe.Class, ClassRateLimit)
	}
	if pe.Message != "rate limited" {
		t.Fatalf("message %q", pe.Message)
	}
}

func TestPlaceholderDeterministic(t *testing.T) {
	a := Placeholder("swift-mini", textReq())
	b := Placeholder("swift-mini", textReq())
	if string(a.Data) != string(b.Data) {
		t.Fatal("placeholder content not deterministic")
	}

	img := Placeholder("canvas-draft", &models.GenerationRequest{
		ContentType: models.ContentImage,
		Prompt:      "a red fox",
		Options:     models.GenerationOptions{Width: 256, Height: 256},
	})
	if len(img.Data) == 0 {
		t.Fatal("empty image placeholder")
	}
}
