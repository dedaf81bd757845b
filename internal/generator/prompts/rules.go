package prompts

import (
	"fmt"

	"github.com/hoaithanhsp/english-assistant-pro/internal/model"
)

// RuleProfile selects which difficulty-rule table is injected into the
// generation prompts. Two profiles ship: the full three-tier table and a
// high-school-focused variant with a generic fallback for other levels.
type RuleProfile string

const (
	// ProfileStandard is the default three-tier rule table.
	ProfileStandard RuleProfile = "standard"
	// ProfileHighSchool carries a detailed high-school knowledge block and
	// a generic instruction for every other level.
	ProfileHighSchool RuleProfile = "highschool"
)

// RuleTable maps a difficulty tier to the natural-language constraint text
// embedded verbatim into both stage prompts.
type RuleTable struct {
	rules    map[model.Level]string
	fallback string
}

// For returns the rule text for the given level, or the table's fallback
// when the level has no entry.
func (t RuleTable) For(level model.Level) string {
	if r, ok := t.rules[level]; ok {
		return r
	}
	return t.fallback
}

// TableForProfile returns the rule table for a profile name.
func TableForProfile(p RuleProfile) (RuleTable, error) {
	switch p {
	case ProfileStandard:
		return StandardRules(), nil
	case ProfileHighSchool:
		return HighSchoolRules(), nil
	default:
		return RuleTable{}, fmt.Errorf("unknown rule profile: %q", p)
	}
}

const primaryRules = `DIFFICULTY CONSTRAINTS (Primary, CEFR Pre-A1 to A1):
- Vocabulary: only the ~500 most common English words; concrete, everyday topics (family, school, animals, colors).
- Grammar: simple present and present continuous only; no passive voice, no perfect tenses.
- Reading passages: 40-80 words each.
- Sentences: average 8 words or fewer; one clause per sentence.
- Questions must be answerable directly from the passage or picture description, no inference chains.`

const middleSchoolRules = `DIFFICULTY CONSTRAINTS (Middle School / THCS, CEFR A2 to B1):
- Vocabulary: roughly the 1200 most common English words plus curriculum topic words (environment, hobbies, travel).
- Grammar: present, past and future tenses, present perfect, comparatives, basic passive voice, first conditional.
- Reading passages: 80-150 words each.
- Sentences: average 12 words or fewer; at most two clauses per sentence.
- Include a mix of literal and simple inferential questions.`

const highSchoolRules = `DIFFICULTY CONSTRAINTS (High School / THPT, CEFR B1 to B2):
- Vocabulary: roughly 2500 words including academic and abstract vocabulary, collocations and common phrasal verbs.
- Grammar: full tense system, all conditionals, reported speech, relative clauses, passive constructions, inversion for emphasis.
- Reading passages: 150-250 words each.
- Sentences: average 18 words or fewer; complex sentences allowed.
- Include inference, vocabulary-in-context and author-purpose questions alongside literal ones.`

// StandardRules returns the three-tier rule table. Unknown levels fall back
// to the Middle School rules.
func StandardRules() RuleTable {
	return RuleTable{
		rules: map[model.Level]string{
			model.LevelPrimary:      primaryRules,
			model.LevelMiddleSchool: middleSchoolRules,
			model.LevelHighSchool:   highSchoolRules,
		},
		fallback: middleSchoolRules,
	}
}

const highSchoolKnowledgeBlock = `HIGH SCHOOL EXAM KNOWLEDGE REQUIREMENTS (THPT, CEFR B1 to B2):
- Phonetics: pronunciation of -ed/-s endings, vowel contrasts, word stress in 2-3 syllable words.
- Lexis: collocations, phrasal verbs, word formation (prefixes/suffixes), synonyms and antonyms in context.
- Grammar: full tense system, conditionals types 0-3 and mixed, reported speech, relative clauses (including reduced forms), passives, inversion, subjunctive after "suggest/recommend".
- Reading: one 150-250 word passage per reading section with literal, inference and vocabulary-in-context items; one cloze passage with 5-10 gaps.
- Writing: sentence transformation and error identification items matching the national exam format.
- Keep every item within the scope of the national upper-secondary English curriculum.`

const genericLevelRules = `Generate content appropriate to the stated school level and grade, with vocabulary, grammar scope and passage length matched to the national English curriculum for that level.`

// HighSchoolRules returns the high-school-focused variant: a detailed
// knowledge block for High School and a generic instruction otherwise.
func HighSchoolRules() RuleTable {
	return RuleTable{
		rules: map[model.Level]string{
			model.LevelHighSchool: highSchoolKnowledgeBlock,
		},
		fallback: genericLevelRules,
	}
}
