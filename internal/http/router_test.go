package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"futurefind-speech-service/internal/app"
	"futurefind-speech-service/internal/config"
	"futurefind-speech-service/internal/service/capture"
	"futurefind-speech-service/internal/service/feedback"
)

type fakeGenerator struct {
	response string
}

func (f fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return f.response, nil
}

type testServer struct {
	*httptest.Server
	app *app.Application
	hub *Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := config.FromEnv()
	cfg.STT.Provider = "mock"
	cfg.Kafka.Enabled = false
	cfg.Feedback.GeminiAPIKey = ""
	cfg.Corrections.TermsFile = ""

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(nil)
	go hub.Run(ctx)

	a, err := app.New(ctx, cfg, hub.Broadcast)
	if err != nil {
		t.Fatalf("app.New failed: %v", err)
	}
	a.Start()

	srv := httptest.NewServer(NewRouter(a, hub))
	t.Cleanup(func() {
		srv.Close()
		a.Shutdown()
		cancel()
	})
	return &testServer{Server: srv, app: a, hub: hub}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return resp, buf.Bytes()
}

func (ts *testServer) createSession(t *testing.T) string {
	t.Helper()
	resp, body := ts.do(t, http.MethodPost, "/v1/sessions", "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, body)
	}
	var snap capture.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		t.Fatal(err)
	}
	return snap.ID
}

func TestHealthEndpoints(t *testing.T) {
	ts := newTestServer(t)

	if resp, _ := ts.do(t, http.MethodGet, "/v1/liveness", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("expected liveness 200, got %d", resp.StatusCode)
	}
	if resp, _ := ts.do(t, http.MethodGet, "/v1/readiness", ""); resp.StatusCode != http.StatusOK {
		t.Errorf("expected readiness 200, got %d", resp.StatusCode)
	}

	ts.app.Shutdown()
	if resp, _ := ts.do(t, http.MethodGet, "/v1/readiness", ""); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected readiness 503 after shutdown, got %d", resp.StatusCode)
	}
}

func TestProcess(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, http.MethodPost, "/v1/transcripts/process", `{"text": "um the api uses rest"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var out processResponse
	json.Unmarshal(body, &out)
	if out.Text != "The API uses REST" {
		t.Errorf("expected processed text, got %q", out.Text)
	}
	if out.Raw != "um the api uses rest" {
		t.Errorf("expected raw echoed, got %q", out.Raw)
	}
	if len(out.Stages) != 0 {
		t.Errorf("expected no stages without trace, got %d", len(out.Stages))
	}
}

func TestProcess_Trace(t *testing.T) {
	ts := newTestServer(t)

	_, body := ts.do(t, http.MethodPost, "/v1/transcripts/process", `{"text": "the api", "trace": true}`)
	var out processResponse
	json.Unmarshal(body, &out)
	if len(out.Stages) != 4 {
		t.Fatalf("expected 4 stages, got %d", len(out.Stages))
	}
	if out.Stages[3].Stage != "technical" || out.Stages[3].Text != out.Text {
		t.Errorf("unexpected last stage: %+v", out.Stages[3])
	}
}

func TestProcess_InvalidBody(t *testing.T) {
	ts := newTestServer(t)

	for _, body := range []string{`{}`, `{"text": 1}`, `not json`} {
		resp, _ := ts.do(t, http.MethodPost, "/v1/transcripts/process", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestSessionLifecycle(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession(t)
	base := "/v1/sessions/" + id

	resp, _ := ts.do(t, http.MethodPost, base+"/results", `{"results": [{"transcript": "hi", "isFinal": true}]}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for results while idle, got %d", resp.StatusCode)
	}

	if resp, body := ts.do(t, http.MethodPost, base+"/start", ""); resp.StatusCode != http.StatusOK {
		t.Fatalf("expected start 200, got %d: %s", resp.StatusCode, body)
	}
	if resp, _ := ts.do(t, http.MethodPost, base+"/start", ""); resp.StatusCode != http.StatusConflict {
		t.Errorf("expected second start 409, got %d", resp.StatusCode)
	}

	resp, body := ts.do(t, http.MethodPost, base+"/results",
		`{"results": [{"transcript": "i want to learn sequel and mongo db", "isFinal": true}, {"transcript": "and"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected results 200, got %d: %s", resp.StatusCode, body)
	}
	var snap capture.Snapshot
	json.Unmarshal(body, &snap)
	if snap.Transcript != "I want to learn SQL and MongoDB " {
		t.Errorf("unexpected transcript %q", snap.Transcript)
	}
	if snap.Interim != "and" {
		t.Errorf("expected interim 'and', got %q", snap.Interim)
	}

	resp, body = ts.do(t, http.MethodPost, base+"/stop", "")
	json.Unmarshal(body, &snap)
	if resp.StatusCode != http.StatusOK || snap.Recording {
		t.Errorf("expected stopped session, got %d %+v", resp.StatusCode, snap)
	}

	_, body = ts.do(t, http.MethodPost, base+"/reset", "")
	json.Unmarshal(body, &snap)
	if snap.Transcript != "" {
		t.Errorf("expected reset transcript, got %q", snap.Transcript)
	}

	_, body = ts.do(t, http.MethodGet, "/v1/sessions", "")
	var list []capture.Snapshot
	json.Unmarshal(body, &list)
	if len(list) != 1 || list[0].ID != id {
		t.Errorf("expected one listed session, got %+v", list)
	}

	if resp, _ := ts.do(t, http.MethodDelete, base, ""); resp.StatusCode != http.StatusNoContent {
		t.Errorf("expected delete 204, got %d", resp.StatusCode)
	}
	if resp, _ := ts.do(t, http.MethodGet, base, ""); resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %d", resp.StatusCode)
	}
}

func TestSessionResults_InvalidBody(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession(t)
	ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/start", "")

	resp, _ := ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/results", `{"results": [{"isFinal": true}]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestEvaluate(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession(t)
	path := "/v1/sessions/" + id + "/evaluate"
	req := `{"question": "What is a cache?", "expectedAnswer": "Fast storage for hot data"}`

	if resp, _ := ts.do(t, http.MethodPost, path, req); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without evaluator, got %d", resp.StatusCode)
	}

	ts.app.Evaluator = feedback.NewEvaluator(fakeGenerator{response: `{"ratings": 7, "feedback": "Good."}`}, 0)

	if resp, _ := ts.do(t, http.MethodPost, path, req); resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for an empty transcript, got %d", resp.StatusCode)
	}

	ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/start", "")
	ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/results",
		`{"results": [{"transcript": "a cash keeps hot data close to the code that reads it", "isFinal": true}]}`)

	resp, body := ts.do(t, http.MethodPost, path, req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var out evaluateResponse
	json.Unmarshal(body, &out)
	if out.Rating != 7 || out.Feedback != "Good." {
		t.Errorf("unexpected evaluation: %+v", out)
	}
	if out.Answer != "A cache keeps hot data close to the code that reads it" {
		t.Errorf("expected processed transcript as answer, got %q", out.Answer)
	}
}

func TestGenerateQuestions(t *testing.T) {
	ts := newTestServer(t)
	req := `{"position": "Junior Developer", "description": "Web apps", "experience": 0, "techStack": "Go, React"}`

	if resp, _ := ts.do(t, http.MethodPost, "/v1/interviews/questions", req); resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("expected 503 without a model, got %d", resp.StatusCode)
	}

	ts.app.Questions = feedback.NewQuestionGenerator(fakeGenerator{
		response: "```json\n[{\"question\": \"What is Go?\", \"answer\": \"A compiled language.\"}]\n```",
	})

	if resp, _ := ts.do(t, http.MethodPost, "/v1/interviews/questions", `{"position": "Junior Developer"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for a missing tech stack, got %d", resp.StatusCode)
	}

	resp, body := ts.do(t, http.MethodPost, "/v1/interviews/questions", req)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.StatusCode, body)
	}
	var out questionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatal(err)
	}
	if len(out.Questions) != 1 || out.Questions[0].Answer != "A compiled language." {
		t.Errorf("unexpected questions: %+v", out.Questions)
	}
}

func TestGenerateQuestions_BadModelOutput(t *testing.T) {
	ts := newTestServer(t)
	ts.app.Questions = feedback.NewQuestionGenerator(fakeGenerator{response: "I cannot help with that."})

	resp, _ := ts.do(t, http.MethodPost, "/v1/interviews/questions", `{"position": "Engineer", "experience": 3, "techStack": "Go"}`)
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", resp.StatusCode)
	}
}

func TestSessionSocket(t *testing.T) {
	ts := newTestServer(t)
	id := ts.createSession(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/sessions/" + id + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for ts.hub.Clients() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}

	ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/start", "")
	ts.do(t, http.MethodPost, "/v1/sessions/"+id+"/results", `{"results": [{"transcript": "the api", "isFinal": true}]}`)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var u capture.Update
		if err := conn.ReadJSON(&u); err != nil {
			t.Fatalf("expected final update, read failed: %v", err)
		}
		if u.SessionID != id {
			t.Errorf("expected updates for %s only, got %s", id, u.SessionID)
		}
		if u.Kind == capture.UpdateFinal {
			if u.Text != "The API" {
				t.Errorf("expected processed text in update, got %q", u.Text)
			}
			return
		}
	}
}

func TestSessionSocket_UnknownSession(t *testing.T) {
	ts := newTestServer(t)

	resp, _ := ts.do(t, http.MethodGet, "/v1/sessions/missing/ws", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}
