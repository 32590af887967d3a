package capture

// UpdateKind says what changed in a session.
type UpdateKind string

const (
	UpdateInterim UpdateKind = "interim"
	UpdateFinal   UpdateKind = "final"
	UpdateState   UpdateKind = "state"
	UpdateReset   UpdateKind = "reset"
	UpdateError   UpdateKind = "error"
)

// Update is pushed to a session's listener after every change. Transcript
// and Recording always carry the state after the change.
type Update struct {
	SessionID  string     `json:"sessionId"`
	Kind       UpdateKind `json:"kind"`
	Text       string     `json:"text,omitempty"`
	SegmentID  string     `json:"segmentId,omitempty"`
	Transcript string     `json:"transcript"`
	Recording  bool       `json:"recording"`
	Error      string     `json:"error,omitempty"`
	Timestamp  int64      `json:"timestamp"`
}

// Snapshot is a point-in-time copy of a session.
type Snapshot struct {
	ID           string   `json:"id"`
	Transcript   string   `json:"transcript"`
	Interim      string   `json:"interim"`
	Recording    bool     `json:"recording"`
	Context      []string `json:"context"`
	SegmentID    string   `json:"segmentId"`
	SegmentState string   `json:"segmentState"`
	Segments     int      `json:"segments"`
}
