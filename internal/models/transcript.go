// Package models defines the data structures for transcript events.
package models

// Event types published for a capture session.
const (
	EventTranscriptPartial = "interview.transcript.partial"
	EventTranscriptFinal   = "interview.transcript.final"
	EventAnswerFeedback    = "interview.answer.feedback"
)

// TranscriptPartial is an interim hypothesis. It is published raw.
type TranscriptPartial struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	SegmentID string `json:"segmentId"`
	Timestamp int64  `json:"timestamp"`
	Text      string `json:"text"`
}

// TranscriptFinal is one completed segment after post-processing.
type TranscriptFinal struct {
	EventType     string  `json:"eventType"`
	SessionID     string  `json:"sessionId"`
	SegmentID     string  `json:"segmentId"`
	Timestamp     int64   `json:"timestamp"`
	RawText       string  `json:"rawText"`
	Text          string  `json:"text"`
	Confidence    float64 `json:"confidence,omitempty"`
	AudioOffsetMs int64   `json:"audioOffsetMs,omitempty"`
	Enhanced      bool    `json:"enhanced"`
}

// AnswerFeedback is the evaluation of a recorded answer.
type AnswerFeedback struct {
	EventType string `json:"eventType"`
	SessionID string `json:"sessionId"`
	Timestamp int64  `json:"timestamp"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Rating    int    `json:"rating"`
	Feedback  string `json:"feedback"`
}
