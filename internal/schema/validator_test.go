package schema

import (
	"errors"
	"testing"
)

func TestValidate(t *testing.T) {
	v := MustNew()

	tests := []struct {
		name    string
		schema  string
		doc     string
		wantErr bool
	}{
		{"process ok", ProcessRequest, `{"text": "the api"}`, false},
		{"process empty text ok", ProcessRequest, `{"text": ""}`, false},
		{"process missing text", ProcessRequest, `{}`, true},
		{"process text not string", ProcessRequest, `{"text": 5}`, true},
		{"results ok", ResultsRequest, `{"results": [{"transcript": "hi", "isFinal": true, "confidence": 0.9}]}`, false},
		{"results empty list ok", ResultsRequest, `{"results": []}`, false},
		{"results missing transcript", ResultsRequest, `{"results": [{"isFinal": true}]}`, true},
		{"results confidence out of range", ResultsRequest, `{"results": [{"transcript": "hi", "confidence": 2}]}`, true},
		{"evaluate ok", EvaluateRequest, `{"question": "What is REST?", "expectedAnswer": "An architectural style"}`, false},
		{"evaluate empty question", EvaluateRequest, `{"question": ""}`, true},
		{"questions ok", QuestionsRequest, `{"position": "Backend Engineer", "experience": 0, "techStack": "Go, SQL"}`, false},
		{"questions missing experience", QuestionsRequest, `{"position": "Backend Engineer", "techStack": "Go"}`, true},
		{"questions fractional experience", QuestionsRequest, `{"position": "Backend Engineer", "experience": 1.5, "techStack": "Go"}`, true},
		{"questions negative experience", QuestionsRequest, `{"position": "Backend Engineer", "experience": -1, "techStack": "Go"}`, true},
		{"questions empty stack", QuestionsRequest, `{"position": "Backend Engineer", "experience": 2, "techStack": ""}`, true},
		{"audio negative offset", AudioFrame, `{"audioOffsetMs": -1}`, true},
		{"audio ok", AudioFrame, `{"sessionId": "s", "audio": "AAA=", "audioOffsetMs": 20}`, false},
		{"not json", ProcessRequest, `{`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.schema, []byte(tt.doc))
			if tt.wantErr && !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidate_UnknownSchema(t *testing.T) {
	err := MustNew().Validate("nope", []byte(`{}`))
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("expected unknown schema error, got %v", err)
	}
}

func TestValidateValue(t *testing.T) {
	v := MustNew()

	type frame struct {
		SessionID     string `json:"sessionId"`
		AudioOffsetMs int64  `json:"audioOffsetMs"`
	}
	if err := v.ValidateValue(AudioFrame, frame{SessionID: "s", AudioOffsetMs: 5}); err != nil {
		t.Errorf("expected valid frame, got %v", err)
	}
	if err := v.ValidateValue(AudioFrame, frame{AudioOffsetMs: -5}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for negative offset, got %v", err)
	}
}
