package aiquiz

import "strings"

type Level string

const (
	LevelBeginner     Level = "beginner"
	LevelIntermediate Level = "intermediate"
	LevelExpert       Level = "expert"
)

const (
	DefaultLanguage     = "General Programming"
	DefaultTopic        = "General Knowledge"
	DefaultNumQuestions = 5
	MaxQuestions        = 10
	OptionsPerQuestion  = 4
)

// ExplanationFallback is shown when no explanation could be generated.
const ExplanationFallback = "Unable to generate explanation at this moment."

var levelAliases = map[string]Level{
	"beginner":     LevelBeginner,
	"easy":         LevelBeginner,
	"basic":        LevelBeginner,
	"intermediate": LevelIntermediate,
	"medium":       LevelIntermediate,
	"expert":       LevelExpert,
	"advanced":     LevelExpert,
	"hard":         LevelExpert,
}

// ParseLevel is the strict form used for user input. Blank means intermediate.
func ParseLevel(s string) (Level, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return LevelIntermediate, true
	}
	l, ok := levelAliases[s]
	return l, ok
}

// NormalizeLevel maps anything unknown to intermediate.
func NormalizeLevel(s string) Level {
	if l, ok := ParseLevel(s); ok {
		return l
	}
	return LevelIntermediate
}

// Title returns the level as it reads in a prompt ("Expert").
func (l Level) Title() string {
	if l == "" {
		return ""
	}
	return strings.ToUpper(string(l[:1])) + string(l[1:])
}

type QuizRequest struct {
	Language     string `json:"language"`
	Topic        string `json:"topic"`
	Level        Level  `json:"level"`
	NumQuestions int    `json:"num_questions"`
	IncludeCode  bool   `json:"include_code"`
}

// GeneratedQuestion is a validated question ready to be persisted.
type GeneratedQuestion struct {
	Text         string   `json:"text"`
	CodeSnippet  string   `json:"code_snippet,omitempty"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
	Explanation  string   `json:"explanation"`
}

func (q GeneratedQuestion) CorrectAnswer() string {
	return q.Options[q.CorrectIndex]
}

type Intent struct {
	Language string `json:"language"`
	Topic    string `json:"topic"`
	Level    Level  `json:"level"`
	Count    int    `json:"count"`
}

func DefaultIntent() Intent {
	return Intent{
		Language: DefaultLanguage,
		Topic:    DefaultTopic,
		Level:    LevelIntermediate,
		Count:    DefaultNumQuestions,
	}
}

type ExplanationRequest struct {
	QuestionText  string
	UserAnswer    string
	CorrectAnswer string
}

type QuizPreview struct {
	Model     string              `json:"model"`
	Questions []GeneratedQuestion `json:"questions"`
}

type IntentRequest struct {
	Message string `json:"message"`
}
