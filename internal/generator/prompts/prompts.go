// Package prompts builds the two stage prompts of the exam generation
// pipeline from embedded templates and a pluggable difficulty-rule table.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"sync"
	"text/template"
)

//go:embed templates/*.txt
var templateFS embed.FS

// DefaultStructure is embedded in the stage-1 prompt when the user supplies
// no target structure of their own.
const DefaultStructure = `1. Phonetics: 2 multiple-choice questions (pronunciation, word stress).
2. Vocabulary and Grammar: 10 multiple-choice questions.
3. Reading comprehension: 1 passage with 5 multiple-choice questions.
4. Cloze test: 1 passage with 5 gaps.
5. Writing: 5 sentence-transformation questions.`

var (
	loadOnce  sync.Once
	loadErr   error
	templates map[string]*template.Template
)

func load() error {
	loadOnce.Do(func() {
		templates = make(map[string]*template.Template)
		for _, name := range []string{"stage1", "stage2"} {
			content, err := templateFS.ReadFile("templates/" + name + ".txt")
			if err != nil {
				loadErr = fmt.Errorf("read prompt template %s: %w", name, err)
				return
			}
			tmpl, err := template.New(name).Parse(string(content))
			if err != nil {
				loadErr = fmt.Errorf("parse prompt template %s: %w", name, err)
				return
			}
			templates[name] = tmpl
		}
	})
	return loadErr
}

// AnalysisData holds template data for the stage-1 (structural analysis)
// prompt. The free-text fields are expected to be pre-truncated by the
// caller.
type AnalysisData struct {
	Rules            string
	Level            string
	GradeLevel       string
	ExamType         string
	Structure        string
	DefaultStructure string
	Matrix           string
	Specification    string
	Reference        string
}

// SynthesisData holds template data for the stage-2 (full content
// synthesis) prompt. Plan is the opaque stage-1 output, embedded verbatim.
type SynthesisData struct {
	Plan       string
	Rules      string
	Level      string
	GradeLevel string
	ExamType   string
}

// BuildAnalysisPrompt renders the stage-1 prompt.
func BuildAnalysisPrompt(data AnalysisData) (string, error) {
	if data.DefaultStructure == "" {
		data.DefaultStructure = DefaultStructure
	}
	return render("stage1", data)
}

// BuildSynthesisPrompt renders the stage-2 prompt.
func BuildSynthesisPrompt(data SynthesisData) (string, error) {
	return render("stage2", data)
}

func render(name string, data any) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if err := templates[name].Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", name, err)
	}
	return buf.String(), nil
}
