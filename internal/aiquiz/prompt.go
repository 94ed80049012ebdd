package aiquiz

import (
	"fmt"
	"strings"
)

const jsonOnlyRule = "Respond with raw JSON only. Do not add any text before or after the JSON and do not wrap it in code fences."

const intentTemplate = `Analyze the user's request: %q

Extract the following parameters to generate a coding quiz:
1. Language (e.g., Python, JavaScript, SQL). If implied, infer it. Defaults to %q.
2. Topic (e.g., Decorators, React Hooks). If general, use %q.
3. Difficulty (Beginner, Intermediate, Expert). Default to Intermediate.
4. Count (number of questions). Default to %d. Max %d.

Output ONLY valid JSON in this format:
{
  "language": "Python",
  "topic": "Decorators",
  "level": "Expert",
  "count": 5
}

%s`

const quizTemplate = `You are an expert technical interviewer.
Generate a multiple-choice quiz for a %s-level programmer in %s.
The specific topic is: %s.

Constraints:
1. Generate exactly %d questions.
2. %s
3. Provide exactly %d distinct options for each question.
4. Exactly one option is correct. "correct_answer" must repeat the text of the correct option exactly.
5. Provide a brief explanation of the correct answer.
6. Options must have similar length and structure so the correct one is not obvious.

Output format (strict JSON):
{
  "questions": [
    {
      "text": "The question text here (do not include the code here)",
      "code_snippet": %s,
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correct_answer": "Option A",
      "explanation": "Why this is correct."
    }
  ]
}

%s`

const explanationTemplate = `A user answered a coding quiz question incorrectly.
Question: %q
User's wrong answer: %q
Correct answer: %q

Task: explain in 1 or 2 sentences why the user's answer is wrong and why the correct answer is right.
Address the user directly ("You selected..."). Be encouraging but technically precise.

Output format (strict JSON):
{"explanation": "..."}

%s`

func BuildIntentPrompt(message string) string {
	return fmt.Sprintf(intentTemplate,
		strings.TrimSpace(message), DefaultLanguage, DefaultTopic,
		DefaultNumQuestions, MaxQuestions, jsonOnlyRule)
}

func BuildQuizPrompt(req QuizRequest) string {
	codeRule := "Questions should be conceptual. Do NOT include code snippets; set \"code_snippet\" to null."
	snippetExample := "null"
	if req.IncludeCode {
		codeRule = "Each question MUST include a relevant code snippet in \"code_snippet\" that the user must analyze to answer."
		snippetExample = `"def example():\n    return 'code here'"`
	}

	level := req.Level
	if level == "" {
		level = LevelIntermediate
	}

	return fmt.Sprintf(quizTemplate,
		level.Title(), req.Language, req.Topic,
		req.NumQuestions, codeRule, OptionsPerQuestion,
		snippetExample, jsonOnlyRule)
}

func BuildExplanationPrompt(req ExplanationRequest) string {
	return fmt.Sprintf(explanationTemplate,
		req.QuestionText, req.UserAnswer, req.CorrectAnswer, jsonOnlyRule)
}
