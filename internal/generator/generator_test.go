package generator

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/hoaithanhsp/english-assistant-pro/internal/generator/prompts"
	"github.com/hoaithanhsp/english-assistant-pro/internal/llm"
	"github.com/hoaithanhsp/english-assistant-pro/internal/model"
)

func newTestGenerator(backend *llm.MockBackend) *Generator {
	inv := llm.NewInvoker(backend, llm.Options{
		Candidates: []string{"test-model"},
		DefaultKey: "test-key",
	})
	return New(inv, prompts.StandardRules())
}

func TestGenerate_HappyPath(t *testing.T) {
	backend := llm.NewMockBackend(
		llm.MockResult{Text: "PLAN_X"},
		llm.MockResult{Text: "```json\n" + `{"examTitle":"Test","duration":"45m","content":[],"answers":[]}` + "\n```"},
	)
	gen := newTestGenerator(backend)

	var phases []Phase
	obs := ObserverFunc(func(p Phase) { phases = append(phases, p) })

	data, err := gen.Generate(context.Background(), model.ExamConfig{
		Level:      model.LevelHighSchool,
		GradeLevel: "Grade 12",
		ExamType:   "45-minute test",
	}, "", obs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if data.ExamTitle != "Test" || data.Duration != "45m" {
		t.Errorf("unexpected exam data: %+v", data)
	}
	if len(data.Content) != 0 || len(data.Answers) != 0 {
		t.Errorf("expected empty content and answers, got %+v", data)
	}

	if len(phases) != 2 || phases[0] != PhaseAnalyzing || phases[1] != PhaseSynthesizing {
		t.Errorf("expected [Analyzing Synthesizing], got %v", phases)
	}

	if backend.CallCount() != 2 {
		t.Fatalf("expected 2 model calls, got %d", backend.CallCount())
	}
	// The stage-1 plan is embedded verbatim in the stage-2 prompt.
	if !strings.Contains(backend.Calls[1].Req.Prompt, "PLAN_X") {
		t.Error("stage-2 prompt should embed the plan")
	}
	if backend.Calls[0].Req.JSONMode {
		t.Error("stage-1 request should not ask for JSON")
	}
	if !backend.Calls[1].Req.JSONMode {
		t.Error("stage-2 request should ask for JSON")
	}
}

func TestGenerate_TruncatesOversizedInputs(t *testing.T) {
	backend := llm.NewMockBackend(
		llm.MockResult{Text: "plan"},
		llm.MockResult{Text: `{"examTitle":"T","duration":"","content":[],"answers":[]}`},
	)
	gen := newTestGenerator(backend)

	reference := strings.Repeat("r", MaxReferenceChars+500)
	matrix := strings.Repeat("m", MaxMatrixChars+500)
	spec := strings.Repeat("s", MaxSpecificationChars+500)

	_, err := gen.Generate(context.Background(), model.ExamConfig{
		Level:                model.LevelMiddleSchool,
		ReferenceContent:     reference,
		MatrixContent:        matrix,
		SpecificationContent: spec,
	}, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	prompt := backend.Calls[0].Req.Prompt
	if !strings.Contains(prompt, strings.Repeat("r", MaxReferenceChars)) {
		t.Error("prompt should contain exactly the first 15000 reference characters")
	}
	if strings.Contains(prompt, strings.Repeat("r", MaxReferenceChars+1)) {
		t.Error("reference text should be cut at 15000 characters")
	}
	if strings.Contains(prompt, strings.Repeat("m", MaxMatrixChars+1)) {
		t.Error("matrix text should be cut at 5000 characters")
	}
	if strings.Contains(prompt, strings.Repeat("s", MaxSpecificationChars+1)) {
		t.Error("specification text should be cut at 5000 characters")
	}
}

func TestGenerate_Stage1ErrorPropagatesUnchanged(t *testing.T) {
	backend := llm.NewMockBackend(
		llm.MockResult{Err: errors.New("boom")},
	)
	gen := newTestGenerator(backend)

	var phases []Phase
	obs := ObserverFunc(func(p Phase) { phases = append(phases, p) })

	_, err := gen.Generate(context.Background(), model.ExamConfig{Level: model.LevelPrimary}, "", obs)
	if err == nil {
		t.Fatal("expected error")
	}
	var allFailed *llm.AllModelsFailedError
	if !errors.As(err, &allFailed) {
		t.Fatalf("expected invoker error to propagate unchanged, got %T: %v", err, err)
	}
	if len(phases) != 1 || phases[0] != PhaseAnalyzing {
		t.Errorf("expected only the analyzing phase, got %v", phases)
	}
	if backend.CallCount() != 1 {
		t.Errorf("stage 2 must not run after a stage-1 failure, got %d calls", backend.CallCount())
	}
}

func TestGenerate_TruncatedStage2Output(t *testing.T) {
	backend := llm.NewMockBackend(
		llm.MockResult{Text: "plan"},
		llm.MockResult{Text: `{"examTitle":"Test"`},
	)
	gen := newTestGenerator(backend)

	_, err := gen.Generate(context.Background(), model.ExamConfig{Level: model.LevelHighSchool}, "", nil)
	if !errors.Is(err, ErrResponseTooLarge) {
		t.Fatalf("expected ErrResponseTooLarge, got %v", err)
	}
}

func TestGenerate_MissingCredential(t *testing.T) {
	backend := llm.NewMockBackend()
	inv := llm.NewInvoker(backend, llm.Options{Candidates: []string{"m"}})
	gen := New(inv, prompts.StandardRules())

	_, err := gen.Generate(context.Background(), model.ExamConfig{Level: model.LevelPrimary}, "", nil)
	if !errors.Is(err, llm.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if backend.CallCount() != 0 {
		t.Errorf("expected zero outbound calls, got %d", backend.CallCount())
	}
}

func TestGenerate_SessionKeyForwarded(t *testing.T) {
	backend := llm.NewMockBackend(
		llm.MockResult{Text: "plan"},
		llm.MockResult{Text: `{"examTitle":"T","duration":"","content":[],"answers":[]}`},
	)
	gen := newTestGenerator(backend)

	_, err := gen.Generate(context.Background(), model.ExamConfig{Level: model.LevelPrimary}, "session-key", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, call := range backend.Calls {
		if call.APIKey != "session-key" {
			t.Errorf("call %d: expected session key to take precedence, got %q", i, call.APIKey)
		}
	}
}

func TestGenerate_RulesEmbeddedInBothStages(t *testing.T) {
	backend := llm.NewMockBackend(
		llm.MockResult{Text: "plan"},
		llm.MockResult{Text: `{"examTitle":"T","duration":"","content":[],"answers":[]}`},
	)
	gen := newTestGenerator(backend)

	_, err := gen.Generate(context.Background(), model.ExamConfig{Level: model.LevelHighSchool}, "", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := prompts.StandardRules().For(model.LevelHighSchool)
	for i, call := range backend.Calls {
		if !strings.Contains(call.Req.Prompt, want) {
			t.Errorf("stage %d prompt should embed the difficulty rules", i+1)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"shorter than max", "abc", 5, "abc"},
		{"exactly max", "abcde", 5, "abcde"},
		{"cut at max", "abcdef", 5, "abcde"},
		{"multibyte runes", "ăâêôơư", 3, "ăâê"},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.max); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}
