package llm

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type fakeSettings struct {
	preferred string
	apiKey    string
	err       error
}

func (f *fakeSettings) PreferredModel() (string, error) { return f.preferred, f.err }
func (f *fakeSettings) APIKey() (string, error)         { return f.apiKey, f.err }

func testCandidates() []string {
	return []string{"model-a", "model-b", "model-c"}
}

func TestGenerate_FirstCandidateWins(t *testing.T) {
	mock := NewMockBackend(MockResult{Text: "hello"})
	inv := NewInvoker(mock, Options{Candidates: testCandidates(), DefaultKey: "key"})

	text, err := inv.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "hello" {
		t.Errorf("expected %q, got %q", "hello", text)
	}
	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}
	if mock.Calls[0].Model != "model-a" {
		t.Errorf("expected model-a, got %q", mock.Calls[0].Model)
	}
}

func TestGenerate_FallsBackOnErrorAndEmpty(t *testing.T) {
	// First candidate errors, second returns whitespace only, third succeeds.
	mock := NewMockBackend(
		MockResult{Err: errors.New("quota exceeded")},
		MockResult{Text: "  \n"},
		MockResult{Text: "third time lucky"},
	)
	inv := NewInvoker(mock, Options{Candidates: testCandidates(), DefaultKey: "key"})

	text, err := inv.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "third time lucky" {
		t.Errorf("unexpected text: %q", text)
	}
	if got := mock.Models(); !reflect.DeepEqual(got, testCandidates()) {
		t.Errorf("expected all candidates tried in order, got %v", got)
	}
}

func TestGenerate_AllCandidatesExhausted(t *testing.T) {
	mock := NewMockBackend(
		MockResult{Err: errors.New("server error")},
		MockResult{Err: errors.New("rate limited")},
		MockResult{Err: errors.New("permission denied")},
	)
	inv := NewInvoker(mock, Options{Candidates: testCandidates(), DefaultKey: "key"})

	_, err := inv.Generate(context.Background(), Request{Prompt: "p"})
	if err == nil {
		t.Fatal("expected error")
	}
	var allFailed *AllModelsFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllModelsFailedError, got %T: %v", err, err)
	}
	if allFailed.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", allFailed.Attempts)
	}
	// The last underlying error's message is embedded for diagnostics.
	if want := "permission denied"; !strings.Contains(err.Error(), want) {
		t.Errorf("expected error message to embed %q, got %q", want, err.Error())
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected exactly 3 calls, got %d", mock.CallCount())
	}
}

func TestGenerate_EmptyResponsesExhausted(t *testing.T) {
	mock := NewMockBackend(
		MockResult{Text: ""},
		MockResult{Text: ""},
		MockResult{Text: ""},
	)
	inv := NewInvoker(mock, Options{Candidates: testCandidates(), DefaultKey: "key"})

	_, err := inv.Generate(context.Background(), Request{Prompt: "p"})
	var allFailed *AllModelsFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected AllModelsFailedError, got %T: %v", err, err)
	}
	var empty *EmptyResponseError
	if !errors.As(allFailed.Last, &empty) {
		t.Fatalf("expected last error to be EmptyResponseError, got %T", allFailed.Last)
	}
	if empty.Model != "model-c" {
		t.Errorf("expected last empty model to be model-c, got %q", empty.Model)
	}
}

func TestGenerate_MissingCredentialNoCalls(t *testing.T) {
	mock := NewMockBackend(MockResult{Text: "should never be returned"})
	inv := NewInvoker(mock, Options{Candidates: testCandidates()})

	_, err := inv.Generate(context.Background(), Request{Prompt: "p"})
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if mock.CallCount() != 0 {
		t.Errorf("expected zero outbound calls, got %d", mock.CallCount())
	}
}

func TestGenerate_CredentialPrecedence(t *testing.T) {
	tests := []struct {
		name       string
		requestKey string
		defaultKey string
		wantKey    string
	}{
		{"request key wins", "session-key", "default-key", "session-key"},
		{"default key used when request empty", "", "default-key", "default-key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockBackend(MockResult{Text: "ok"})
			inv := NewInvoker(mock, Options{Candidates: testCandidates(), DefaultKey: tt.defaultKey})

			_, err := inv.Generate(context.Background(), Request{Prompt: "p", APIKey: tt.requestKey})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := mock.Calls[0].APIKey; got != tt.wantKey {
				t.Errorf("expected key %q, got %q", tt.wantKey, got)
			}
		})
	}
}

func TestCandidateOrder_PreferencePromoted(t *testing.T) {
	tests := []struct {
		name      string
		preferred string
		want      []string
	}{
		{"no preference", "", []string{"model-a", "model-b", "model-c"}},
		{"preference already first", "model-a", []string{"model-a", "model-b", "model-c"}},
		{"middle promoted", "model-b", []string{"model-b", "model-a", "model-c"}},
		{"last promoted", "model-c", []string{"model-c", "model-a", "model-b"}},
		{"unknown preference ignored", "model-x", []string{"model-a", "model-b", "model-c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv := NewInvoker(NewMockBackend(), Options{
				Candidates: testCandidates(),
				Settings:   &fakeSettings{preferred: tt.preferred},
			})
			if got := inv.candidateOrder(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("candidateOrder() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGenerate_PreferredModelTriedFirst(t *testing.T) {
	mock := NewMockBackend(MockResult{Text: "ok"})
	inv := NewInvoker(mock, Options{
		Candidates: testCandidates(),
		DefaultKey: "key",
		Settings:   &fakeSettings{preferred: "model-c"},
	})

	_, err := inv.Generate(context.Background(), Request{Prompt: "p"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mock.Calls[0].Model != "model-c" {
		t.Errorf("expected preferred model-c first, got %q", mock.Calls[0].Model)
	}
}

func TestNewInvoker_DefaultCandidates(t *testing.T) {
	inv := NewInvoker(NewMockBackend(), Options{})
	if got := inv.Candidates(); !reflect.DeepEqual(got, DefaultCandidates) {
		t.Errorf("expected default candidates %v, got %v", DefaultCandidates, got)
	}
}
