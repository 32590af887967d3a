// Package feedback rates a candidate's answer against the expected answer
// with a generative model.
package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"futurefind-speech-service/internal/observability/logging"
	"futurefind-speech-service/internal/observability/metrics"
)

const (
	// DefaultMinAnswerLength is the shortest answer, in characters, worth
	// evaluating.
	DefaultMinAnswerLength = 30
	// DefaultRating replaces a missing or out-of-range rating.
	DefaultRating = 5

	minRating = 1
	maxRating = 10
)

var (
	ErrAnswerTooShort  = errors.New("answer too short")
	ErrInvalidResponse = errors.New("invalid model response")
)

// Generator produces a text completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Request is one answer to evaluate.
type Request struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expectedAnswer"`
	Answer         string `json:"answer"`
}

// Result is the model's verdict.
type Result struct {
	Rating   int    `json:"rating"`
	Feedback string `json:"feedback"`
}

// Evaluator turns answers into ratings. It is safe for concurrent use if
// its Generator is.
type Evaluator struct {
	gen       Generator
	minLength int
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewEvaluator returns an evaluator that rejects answers shorter than
// minLength characters. A non-positive minLength uses the default.
func NewEvaluator(gen Generator, minLength int) *Evaluator {
	if minLength <= 0 {
		minLength = DefaultMinAnswerLength
	}
	return &Evaluator{
		gen:       gen,
		minLength: minLength,
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithComponent("feedback"),
	}
}

// MinAnswerLength is the shortest accepted answer in characters.
func (e *Evaluator) MinAnswerLength() int {
	return e.minLength
}

// Evaluate rates req.Answer. Answers shorter than the minimum are rejected
// with ErrAnswerTooShort before the model is called.
func (e *Evaluator) Evaluate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	if n := utf8.RuneCountInString(strings.TrimSpace(req.Answer)); n < e.minLength {
		e.metrics.RecordFeedback("rejected", time.Since(start).Seconds())
		return Result{}, fmt.Errorf("%w: %d < %d characters", ErrAnswerTooShort, n, e.minLength)
	}

	text, err := e.gen.Generate(ctx, BuildPrompt(req))
	if err != nil {
		e.metrics.RecordFeedback("error", time.Since(start).Seconds())
		return Result{}, fmt.Errorf("failed to generate feedback: %w", err)
	}

	res, err := ParseResponse(text)
	if err != nil {
		e.metrics.RecordFeedback("error", time.Since(start).Seconds())
		e.logger.Warn().Err(err).Str("response", text).Msg("Unparseable model response")
		return Result{}, err
	}

	e.metrics.RecordFeedback("ok", time.Since(start).Seconds())
	return res, nil
}

// BuildPrompt renders the interviewer prompt for req.
func BuildPrompt(req Request) string {
	return fmt.Sprintf(`You are an expert technical interviewer evaluating candidate responses.

Question: %q

Correct/Expected Answer: %q

Candidate's Answer: %q

Compare the candidate's answer to the expected answer and provide:
1. A rating from 1 to 10 (where 1 is completely wrong and 10 is perfect)
2. Constructive feedback for improvement

IMPORTANT: Return ONLY a valid JSON object in this EXACT format, with no additional text, explanations, or markdown:
{
  "ratings": <number between 1-10>,
  "feedback": "<detailed constructive feedback string>"
}

Do not include any text before or after the JSON object. Do not use markdown code blocks or backticks.`,
		req.Question, req.ExpectedAnswer, req.Answer)
}

var (
	fenceRe    = regexp.MustCompile("```(?:json)?\\s*")
	objectRe   = regexp.MustCompile(`\{[\s\S]*\}`)
	feedbackRe = regexp.MustCompile(`"feedback"\s*:\s*"([\s\S]*?)"\s*([,}])`)
)

type rawResult struct {
	Ratings  any    `json:"ratings"`
	Feedback string `json:"feedback"`
}

// ParseResponse extracts a Result from model output. It tolerates markdown
// fences, text around the JSON object and raw control characters inside
// the feedback string.
func ParseResponse(text string) (Result, error) {
	clean := stripFences(text)
	if m := objectRe.FindString(clean); m != "" {
		clean = m
	}

	var raw rawResult
	if err := json.Unmarshal([]byte(clean), &raw); err != nil {
		if err2 := json.Unmarshal([]byte(repairFeedback(clean)), &raw); err2 != nil {
			return Result{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	}

	feedback := strings.TrimSpace(raw.Feedback)
	if feedback == "" {
		return Result{}, fmt.Errorf("%w: empty feedback", ErrInvalidResponse)
	}
	return Result{Rating: rating(raw.Ratings), Feedback: feedback}, nil
}

func stripFences(text string) string {
	return fenceRe.ReplaceAllString(strings.TrimSpace(text), "")
}

// rating accepts only numbers in [1, 10]; fractions are rounded.
func rating(v any) int {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) || f < minRating || f > maxRating {
		return DefaultRating
	}
	return int(math.Round(f))
}

// repairFeedback escapes raw control characters and stray quotes inside
// the feedback string value.
func repairFeedback(s string) string {
	loc := feedbackRe.FindStringSubmatchIndex(s)
	if loc == nil {
		return s
	}
	content := s[loc[2]:loc[3]]
	return s[:loc[2]] + escapeString(content) + s[loc[3]:]
}

func escapeString(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			// Keep escapes the model already wrote.
			b.WriteByte(c)
			i++
			b.WriteByte(s[i])
		case c == '"':
			b.WriteString(`\"`)
		case c == '\n':
			b.WriteString(`\n`)
		case c == '\r':
			b.WriteString(`\r`)
		case c == '\t':
			b.WriteString(`\t`)
		case c < 0x20:
			fmt.Fprintf(&b, `\u%04x`, c)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
