// Package generator drives the two-stage exam generation pipeline:
// structural analysis producing an opaque plan, then full content synthesis
// parsed into the strict ExamData shape.
package generator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/hoaithanhsp/english-assistant-pro/internal/generator/prompts"
	"github.com/hoaithanhsp/english-assistant-pro/internal/llm"
	"github.com/hoaithanhsp/english-assistant-pro/internal/model"
)

// Input size caps, in characters. Oversized inputs are cut hard at these
// bounds before being embedded in the stage-1 prompt.
const (
	MaxReferenceChars     = 15000
	MaxMatrixChars        = 5000
	MaxSpecificationChars = 5000
)

// Phase identifies a pipeline stage boundary reported to the observer.
type Phase int

const (
	// PhaseAnalyzing is reported before the stage-1 (plan) invocation.
	PhaseAnalyzing Phase = iota
	// PhaseSynthesizing is reported before the stage-2 (content) invocation.
	PhaseSynthesizing
)

// Observer receives fire-and-forget progress notifications at stage
// boundaries. Implementations must not be relied on for control flow.
type Observer interface {
	Progress(phase Phase)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(Phase)

func (f ObserverFunc) Progress(phase Phase) { f(phase) }

// TextGenerator is the slice of the model invoker the pipeline needs.
type TextGenerator interface {
	Generate(ctx context.Context, req llm.Request) (string, error)
}

// Generator runs the exam generation pipeline.
type Generator struct {
	invoker TextGenerator
	rules   prompts.RuleTable
}

// New creates a Generator using the given invoker and difficulty-rule table.
func New(invoker TextGenerator, rules prompts.RuleTable) *Generator {
	return &Generator{invoker: invoker, rules: rules}
}

// Generate runs both stages and returns the parsed exam. apiKey is the
// optional request-scoped credential forwarded to the invoker. obs may be
// nil. Stage-1 failures propagate unchanged; a stage-2 parse failure is
// replaced by ErrResponseTooLarge. On any error no partial ExamData is
// returned.
func (g *Generator) Generate(ctx context.Context, cfg model.ExamConfig, apiKey string, obs Observer) (*model.ExamData, error) {
	rules := g.rules.For(cfg.Level)

	plan, err := g.analyze(ctx, cfg, rules, apiKey, obs)
	if err != nil {
		return nil, err
	}

	return g.synthesize(ctx, cfg, rules, plan, apiKey, obs)
}

// analyze runs stage 1 and returns the opaque generation plan.
func (g *Generator) analyze(ctx context.Context, cfg model.ExamConfig, rules, apiKey string, obs Observer) (string, error) {
	notify(obs, PhaseAnalyzing)

	prompt, err := prompts.BuildAnalysisPrompt(prompts.AnalysisData{
		Rules:         rules,
		Level:         string(cfg.Level),
		GradeLevel:    cfg.GradeLevel,
		ExamType:      cfg.ExamType,
		Structure:     cfg.StructureContent,
		Matrix:        truncate(cfg.MatrixContent, MaxMatrixChars),
		Specification: truncate(cfg.SpecificationContent, MaxSpecificationChars),
		Reference:     truncate(cfg.ReferenceContent, MaxReferenceChars),
	})
	if err != nil {
		return "", fmt.Errorf("build analysis prompt: %w", err)
	}

	return g.invoker.Generate(ctx, llm.Request{Prompt: prompt, APIKey: apiKey})
}

// synthesize runs stage 2 and parses the response into ExamData.
func (g *Generator) synthesize(ctx context.Context, cfg model.ExamConfig, rules, plan, apiKey string, obs Observer) (*model.ExamData, error) {
	notify(obs, PhaseSynthesizing)

	prompt, err := prompts.BuildSynthesisPrompt(prompts.SynthesisData{
		Plan:       plan,
		Rules:      rules,
		Level:      string(cfg.Level),
		GradeLevel: cfg.GradeLevel,
		ExamType:   cfg.ExamType,
	})
	if err != nil {
		return nil, fmt.Errorf("build synthesis prompt: %w", err)
	}

	raw, err := g.invoker.Generate(ctx, llm.Request{Prompt: prompt, APIKey: apiKey, JSONMode: true})
	if err != nil {
		return nil, err
	}

	data, err := ParseExamResponse(raw)
	if err != nil {
		return nil, err
	}

	warnDanglingAnswers(data)
	return data, nil
}

func notify(obs Observer, phase Phase) {
	if obs != nil {
		obs.Progress(phase)
	}
}

// truncate cuts s to at most max characters. The cut is a hard
// character-count bound, not word or paragraph aware.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// warnDanglingAnswers logs answer-key entries whose questionId matches no
// question. The model may produce mismatches; the data is returned as-is.
func warnDanglingAnswers(data *model.ExamData) {
	ids := make(map[string]bool)
	for _, id := range data.QuestionIDs() {
		ids[id] = true
	}
	for _, a := range data.Answers {
		if !ids[a.QuestionID] {
			slog.Warn("answer entry references unknown question", "questionId", a.QuestionID)
		}
	}
}
