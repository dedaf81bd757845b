package model

// Level represents a school-level difficulty tier. The tier selects which
// difficulty-rule text is injected into the generation prompts.
type Level string

const (
	LevelPrimary      Level = "Primary"
	LevelMiddleSchool Level = "Middle School"
	LevelHighSchool   Level = "High School"
)

// ExamConfig holds the parameters for one exam generation request.
// It is consumed once and never mutated by the pipeline.
type ExamConfig struct {
	// Level is the difficulty tier. Unknown values are allowed; the rule
	// table decides what to fall back to.
	Level Level `json:"level"`

	// GradeLevel identifies the specific grade (e.g. "Grade 10", "Lớp 10").
	// Used for prompt context only.
	GradeLevel string `json:"gradeLevel"`

	// ExamType describes the exam variant and time allotment
	// (e.g. "45-minute test", "End-of-term exam, 60 minutes").
	ExamType string `json:"examType"`

	// Optional free-text blocks pasted or uploaded by the user.
	// Each is independently size-capped before being embedded in a prompt.
	StructureContent     string `json:"structureContent"`
	MatrixContent        string `json:"matrixContent"`
	SpecificationContent string `json:"specificationContent"`
	ReferenceContent     string `json:"referenceContent"`
}

// ExamData is the strict output shape of the generation pipeline. It is
// built entirely from the parsed model response and never mutated after
// construction. Optional fields may be absent; only the top-level envelope
// (examTitle, content, answers) is guaranteed present.
type ExamData struct {
	ExamTitle string        `json:"examTitle"`
	Duration  string        `json:"duration"`
	Content   []Section     `json:"content"`
	Answers   []AnswerEntry `json:"answers"`
}

// Section is one ordered part of the exam body.
type Section struct {
	// Section is the section title (e.g. "Part II: Reading Comprehension").
	Section string `json:"section"`

	// Text is an optional shared passage for the section's questions.
	// Embedded newlines represent paragraph breaks.
	Text string `json:"text,omitempty"`

	Questions []Question `json:"questions"`
}

// Question is a single exam question.
type Question struct {
	// ID is a string label such as "Question 1". Answer entries reference
	// it by value equality.
	ID     string  `json:"id"`
	Text   string  `json:"text"`
	Points float64 `json:"points,omitempty"`

	// Parts holds optional sub-items (e.g. multiple-choice options or
	// lettered sub-questions).
	Parts []QuestionPart `json:"parts,omitempty"`
}

// QuestionPart is one sub-item of a question.
type QuestionPart struct {
	Label   string `json:"label,omitempty"`
	Content string `json:"content,omitempty"`
}

// AnswerEntry is one answer-key row. QuestionID matches a Question.ID by
// plain string equality; the match is not structurally enforced because the
// generating model may produce mismatches.
type AnswerEntry struct {
	QuestionID   string `json:"questionId"`
	Answer       string `json:"answer"`
	PointsDetail string `json:"pointsDetail,omitempty"`
}

// QuestionIDs returns the IDs of all questions across all sections, in order.
func (d *ExamData) QuestionIDs() []string {
	var ids []string
	for _, s := range d.Content {
		for _, q := range s.Questions {
			ids = append(ids, q.ID)
		}
	}
	return ids
}
