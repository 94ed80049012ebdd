package aiquiz

import (
	"encoding/json"
	"fmt"
)

func quizJSON(n int) string {
	type q struct {
		Text          string   `json:"text"`
		CodeSnippet   *string  `json:"code_snippet"`
		Options       []string `json:"options"`
		CorrectAnswer string   `json:"correct_answer"`
		Explanation   string   `json:"explanation"`
	}
	qs := make([]q, n)
	for i := range qs {
		qs[i] = q{
			Text:          fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"alpha", "beta", "gamma", "delta"},
			CorrectAnswer: "beta",
			Explanation:   "beta is right",
		}
	}
	b, _ := json.Marshal(map[string]any{"questions": qs})
	return string(b)
}
