package aiquiz

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

var errInvalidQuiz = errors.New("invalid quiz response")

type rawQuestion struct {
	Text          string   `json:"text"`
	CodeSnippet   *string  `json:"code_snippet"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   *string  `json:"explanation"`
}

type rawQuiz struct {
	Questions []rawQuestion `json:"questions"`
}

type rawIntent struct {
	Language string `json:"language"`
	Topic    string `json:"topic"`
	Level    string `json:"level"`
	Count    any    `json:"count"`
}

type rawExplanation struct {
	Explanation string `json:"explanation"`
}

// stripCodeFences removes a surrounding ```json ... ``` block if present,
// including the single-line form ```json {...}```.
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexAny(s, "\n{["); i >= 0 && isFenceTag(s[:i]) {
		s = s[i:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// isFenceTag reports whether s is empty or a bare info string like "json".
func isFenceTag(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' && r != '_' && r != '+' {
			return false
		}
	}
	return true
}

// parseQuiz decodes, validates and normalizes a model reply. Any invalid
// question rejects the whole reply. At most limit questions are returned.
func parseQuiz(raw string, limit int) ([]GeneratedQuestion, error) {
	body := stripCodeFences(raw)

	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", errInvalidQuiz, err)
	}
	if arr, ok := doc.([]any); ok {
		doc = map[string]any{"questions": arr}
	}
	if err := validateQuizDocument(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidQuiz, err)
	}

	normalized, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidQuiz, err)
	}
	var quiz rawQuiz
	if err := json.Unmarshal(normalized, &quiz); err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidQuiz, err)
	}

	out := make([]GeneratedQuestion, 0, len(quiz.Questions))
	for i, rq := range quiz.Questions {
		q, err := normalizeQuestion(rq)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", errInvalidQuiz, i+1, err)
		}
		out = append(out, q)
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func normalizeQuestion(rq rawQuestion) (GeneratedQuestion, error) {
	text := strings.TrimSpace(rq.Text)
	if text == "" {
		return GeneratedQuestion{}, errors.New("blank question text")
	}
	if len(rq.Options) != OptionsPerQuestion {
		return GeneratedQuestion{}, fmt.Errorf("expected %d options, got %d", OptionsPerQuestion, len(rq.Options))
	}

	options := make([]string, len(rq.Options))
	seen := make(map[string]struct{}, len(rq.Options))
	for i, o := range rq.Options {
		o = strings.TrimSpace(o)
		if o == "" {
			return GeneratedQuestion{}, fmt.Errorf("option %d is blank", i+1)
		}
		if _, dup := seen[o]; dup {
			return GeneratedQuestion{}, fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = struct{}{}
		options[i] = o
	}

	correct, err := correctIndex(options, rq.CorrectAnswer)
	if err != nil {
		return GeneratedQuestion{}, err
	}

	q := GeneratedQuestion{
		Text:         text,
		Options:      options,
		CorrectIndex: correct,
	}
	if rq.CodeSnippet != nil {
		q.CodeSnippet = strings.TrimSpace(*rq.CodeSnippet)
	}
	if rq.Explanation != nil {
		q.Explanation = strings.TrimSpace(*rq.Explanation)
	}
	return q, nil
}

// correctIndex finds the option repeated by answer. A bare letter A-D
// (optionally followed by ")" or ".") selects by position.
func correctIndex(options []string, answer string) (int, error) {
	answer = strings.TrimSpace(answer)
	for i, o := range options {
		if o == answer {
			return i, nil
		}
	}

	letter := strings.TrimRight(strings.ToUpper(answer), ").")
	if len(letter) == 1 && letter[0] >= 'A' && int(letter[0]-'A') < len(options) {
		return int(letter[0] - 'A'), nil
	}
	return 0, fmt.Errorf("correct answer %q matches no option", answer)
}

// parseIntent fills every missing or invalid field from DefaultIntent.
func parseIntent(raw string) (Intent, error) {
	intent := DefaultIntent()

	var ri rawIntent
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &ri); err != nil {
		return intent, fmt.Errorf("decode intent: %w", err)
	}

	if v := strings.TrimSpace(ri.Language); v != "" {
		intent.Language = v
	}
	if v := strings.TrimSpace(ri.Topic); v != "" {
		intent.Topic = v
	}
	intent.Level = NormalizeLevel(ri.Level)
	// A count below 1 means the model could not infer one.
	if n, ok := parseCount(ri.Count); ok && n >= 1 {
		intent.Count = clampCount(n)
	}
	return intent, nil
}

func parseCount(v any) (int, bool) {
	switch c := v.(type) {
	case float64:
		return int(c), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(c))
		return n, err == nil
	default:
		return 0, false
	}
}

// looksLikeTaggedJSON catches a leftover fence tag such as "json {...}".
func looksLikeTaggedJSON(body string) bool {
	lower := strings.ToLower(body)
	if !strings.HasPrefix(lower, "json") {
		return false
	}
	rest := strings.TrimSpace(lower[len("json"):])
	return strings.HasPrefix(rest, "{") || strings.HasPrefix(rest, "[")
}

func clampCount(n int) int {
	if n < 1 {
		return 1
	}
	if n > MaxQuestions {
		return MaxQuestions
	}
	return n
}

// parseExplanation accepts {"explanation": "..."} or, failing that, plain text.
func parseExplanation(raw string) (string, error) {
	body := stripCodeFences(raw)
	if body == "" {
		return "", errors.New("empty explanation")
	}

	var re rawExplanation
	if err := json.Unmarshal([]byte(body), &re); err == nil {
		if text := strings.TrimSpace(re.Explanation); text != "" {
			return text, nil
		}
		return "", errors.New("explanation field is blank")
	}
	if strings.HasPrefix(body, "{") || strings.Contains(body, "```") || looksLikeTaggedJSON(body) {
		return "", errors.New("malformed explanation JSON")
	}
	return body, nil
}
