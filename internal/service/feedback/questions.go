package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"futurefind-speech-service/internal/observability/logging"
	"futurefind-speech-service/internal/observability/metrics"
)

// QuestionCount is how many questions a prompt asks for.
const QuestionCount = 5

// QuestionRequest describes the job the interview is for.
type QuestionRequest struct {
	Position    string `json:"position"`
	Description string `json:"description"`
	// Experience is the required years of experience; 0 means a fresher.
	Experience int    `json:"experience"`
	TechStack  string `json:"techStack"`
}

// Fresher reports whether the questions target an entry-level candidate.
func (r QuestionRequest) Fresher() bool {
	return r.Experience == 0
}

// Question is one generated question with the answer Evaluate compares
// against.
type Question struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionGenerator produces interview questions with a generative model.
type QuestionGenerator struct {
	gen     Generator
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewQuestionGenerator(gen Generator) *QuestionGenerator {
	return &QuestionGenerator{
		gen:     gen,
		metrics: metrics.DefaultMetrics,
		logger:  logging.WithComponent("questions"),
	}
}

// Generate asks the model for questions matching req.
func (q *QuestionGenerator) Generate(ctx context.Context, req QuestionRequest) ([]Question, error) {
	start := time.Now()

	text, err := q.gen.Generate(ctx, BuildQuestionPrompt(req))
	if err != nil {
		q.metrics.RecordQuestions("error", time.Since(start).Seconds())
		return nil, fmt.Errorf("failed to generate questions: %w", err)
	}

	questions, err := ParseQuestions(text)
	if err != nil {
		q.metrics.RecordQuestions("error", time.Since(start).Seconds())
		q.logger.Warn().Err(err).Str("response", text).Msg("Unparseable model response")
		return nil, err
	}

	q.metrics.RecordQuestions("ok", time.Since(start).Seconds())
	q.logger.Debug().
		Str("position", req.Position).
		Int("experience", req.Experience).
		Int("questions", len(questions)).
		Msg("Questions generated")
	return questions, nil
}

// BuildQuestionPrompt renders the question generation prompt. A fresher
// gets fundamentals only.
func BuildQuestionPrompt(req QuestionRequest) string {
	var guidance string
	if req.Fresher() {
		guidance = fmt.Sprintf(`IMPORTANT: This is for a FRESHER / ENTRY-LEVEL candidate with 0 years of experience.

The questions MUST be:
- Basic and fundamental concepts only
- Simple theoretical questions about core concepts
- Entry-level questions that a fresh graduate would know
- Questions about basic syntax, definitions, and fundamental principles
- NO advanced topics, design patterns, or complex scenarios
- NO questions about production experience or real-world complex implementations
- Focus on foundational knowledge and understanding of basics

Examples of appropriate fresher questions:
- "What is %s?"
- "Explain the basic difference between X and Y"
- "What are the fundamental features of [technology]?"
- "How do you declare/define [basic concept]?"
- "What is the purpose of [basic feature]?"`, primaryTech(req.TechStack))
	} else {
		guidance = fmt.Sprintf("The questions should assess skills in %s development and best practices, problem-solving, and experience handling complex requirements appropriate for %d years of experience.",
			req.TechStack, req.Experience)
	}

	return fmt.Sprintf(`As an experienced prompt engineer, generate a JSON array containing %d technical interview questions along with detailed answers based on the following job information. Each object in the array should have the fields "question" and "answer", formatted as follows:

[
  { "question": "<Question text>", "answer": "<Answer text>" },
  ...
]

Job Information:
- Job Position: %s
- Job Description: %s
- Years of Experience Required: %d
- Tech Stacks: %s

%s

Please format the output strictly as an array of JSON objects without any additional labels, code blocks, or explanations. Return only the JSON array with questions and answers.`,
		QuestionCount, req.Position, req.Description, req.Experience, req.TechStack, guidance)
}

// primaryTech is the first entry of a comma-separated stack.
func primaryTech(stack string) string {
	first, _, _ := strings.Cut(stack, ",")
	return strings.TrimSpace(first)
}

var arrayRe = regexp.MustCompile(`\[[\s\S]*\]`)

// ParseQuestions extracts the question array from model output. Entries
// without a question are dropped; an array with none left is an error.
func ParseQuestions(text string) ([]Question, error) {
	m := arrayRe.FindString(stripFences(text))
	if m == "" {
		return nil, fmt.Errorf("%w: no JSON array", ErrInvalidResponse)
	}

	var raw []Question
	if err := json.Unmarshal([]byte(m), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}

	questions := make([]Question, 0, len(raw))
	for _, q := range raw {
		q.Question = strings.TrimSpace(q.Question)
		q.Answer = strings.TrimSpace(q.Answer)
		if q.Question == "" {
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions", ErrInvalidResponse)
	}
	return questions, nil
}
