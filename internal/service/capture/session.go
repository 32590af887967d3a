// Package capture turns a stream of speech recognition results into a
// running, post-processed transcript.
//
// A Session is fed either by a client relaying its recognizer's results
// (HandleResults) or by a server-side STT adapter consuming audio
// (SendAudio plus the stt.Callback methods).
package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"futurefind-speech-service/internal/models"
	"futurefind-speech-service/internal/observability/logging"
	"futurefind-speech-service/internal/observability/metrics"
	"futurefind-speech-service/internal/service/correction"
	"futurefind-speech-service/internal/service/segment"
	"futurefind-speech-service/internal/service/stt"
)

var (
	ErrNotRecording     = errors.New("session is not recording")
	ErrAlreadyRecording = errors.New("session is already recording")
	ErrNoAdapter        = errors.New("session has no speech adapter")
	ErrSegmentLimit     = errors.New("segment limit exceeded")
)

// Limits bound the resources a single segment may use on the audio path.
// A zero field disables that limit.
type Limits struct {
	MaxAudioBytes int64
	MaxDuration   time.Duration
	MaxPartials   int
}

// DefaultLimits returns the production limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAudioBytes: 5 * 1024 * 1024, // ~160s of 16kHz 16-bit mono
		MaxDuration:   5 * time.Minute,
		MaxPartials:   500,
	}
}

// AdapterFactory opens a recognizer for one recording.
type AdapterFactory func(ctx context.Context) (stt.Adapter, error)

// Publisher receives transcript events. *events.Publisher satisfies it.
type Publisher interface {
	PublishPartial(ctx context.Context, key string, event any) error
	PublishFinal(ctx context.Context, key string, event any) error
}

// Options configure a Session.
type Options struct {
	// ContextSize bounds the rolling buffer of recent final segments.
	ContextSize int
	// EnhancedProcessing runs final segments through the processor.
	EnhancedProcessing bool
	Limits             Limits

	Processor  *correction.Processor
	NewAdapter AdapterFactory
	// Provider labels STT error metrics.
	Provider  string
	Publisher Publisher
	Listener  func(Update)
	Segments  *segment.Generator
}

// DefaultOptions returns options with a 10 entry context buffer and
// enhanced processing on.
func DefaultOptions() Options {
	return Options{
		ContextSize:        10,
		EnhancedProcessing: true,
		Limits:             DefaultLimits(),
	}
}

// Result is one recognition result as reported by a recognizer.
type Result struct {
	Text       string  `json:"transcript"`
	Final      bool    `json:"isFinal"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Session is one candidate's answer being captured.
type Session struct {
	id        string
	opts      Options
	processor *correction.Processor
	segments  *segment.Generator
	tracker   *segment.Tracker
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	mu           sync.Mutex
	recording    bool
	adapter      stt.Adapter
	transcript   strings.Builder
	interim      string
	context      []string
	finals       int
	audioBytes   int64
	segmentStart time.Time
	lastOffsetMs int64
}

// NewSession returns an idle session. A non-positive ContextSize, a nil
// Segments and a nil Processor are defaulted. EnhancedProcessing and
// Limits are used as given: false turns processing off and a zero Limits
// disables every limit, so start from DefaultOptions for production values.
func NewSession(id string, opts Options) *Session {
	if opts.ContextSize <= 0 {
		opts.ContextSize = DefaultOptions().ContextSize
	}
	if opts.Segments == nil {
		opts.Segments = segment.New()
	}
	processor := opts.Processor
	if processor == nil {
		processor = correction.New()
	}

	return &Session{
		id:           id,
		opts:         opts,
		processor:    processor,
		segments:     opts.Segments,
		tracker:      segment.NewTracker(opts.Segments.Next(id)),
		metrics:      metrics.DefaultMetrics,
		logger:       logging.WithSession(id),
		segmentStart: time.Now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Start begins a recording. The context buffer is cleared; the transcript
// is kept so an answer can be resumed. When the session has an adapter
// factory a recognizer is opened that outlives ctx's cancellation.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		return ErrAlreadyRecording
	}
	s.recording = true
	s.context = nil
	s.interim = ""
	s.rollSegmentLocked()
	factory := s.opts.NewAdapter
	s.mu.Unlock()

	s.metrics.RecordRecording("start")
	s.logger.Info().Msg("Recording started")

	if factory != nil {
		if err := s.openAdapter(context.WithoutCancel(ctx), factory); err != nil {
			s.mu.Lock()
			s.recording = false
			s.mu.Unlock()
			return err
		}
	}

	s.emit(Update{Kind: UpdateState})
	return nil
}

func (s *Session) openAdapter(ctx context.Context, factory AdapterFactory) error {
	a, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("failed to create STT adapter: %w", err)
	}
	if err := a.Start(ctx, s); err != nil {
		a.Close()
		return fmt.Errorf("failed to start STT adapter: %w", err)
	}

	s.mu.Lock()
	if !s.recording {
		// Stopped while the adapter was opening.
		s.mu.Unlock()
		return a.Close()
	}
	s.adapter = a
	s.mu.Unlock()
	return nil
}

// Stop ends the recording. Results the recognizer still holds are
// delivered before Stop returns. Stopping an idle session does nothing.
func (s *Session) Stop() error {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return nil
	}
	s.recording = false
	a := s.adapter
	s.adapter = nil
	s.mu.Unlock()

	var err error
	if a != nil {
		err = a.Close()
	}

	s.mu.Lock()
	s.interim = ""
	s.mu.Unlock()
	s.tracker.Close()

	s.metrics.RecordRecording("stop")
	s.logger.Info().Msg("Recording stopped")
	s.emit(Update{Kind: UpdateState})
	return err
}

// Reset clears the transcript, interim text and context buffer. It does
// not change the recording state.
func (s *Session) Reset() {
	s.mu.Lock()
	s.transcript.Reset()
	s.interim = ""
	s.context = nil
	s.mu.Unlock()

	s.emit(Update{Kind: UpdateReset})
}

// Close stops the session and releases its segment counter.
func (s *Session) Close() error {
	err := s.Stop()
	s.segments.Forget(s.id)
	return err
}

// HandleResults applies one batch of recognizer results. Finals are
// committed in order; the interim texts of the batch, concatenated,
// become the new interim text.
func (s *Session) HandleResults(ctx context.Context, results []Result) error {
	s.mu.Lock()
	recording := s.recording
	s.mu.Unlock()
	if !recording {
		return ErrNotRecording
	}

	var interim strings.Builder
	for _, r := range results {
		if !r.Final {
			interim.WriteString(r.Text)
			continue
		}
		segmentID := s.tracker.ID()
		s.tracker.Finalize()
		s.commitFinal(ctx, segmentID, r.Text, r.Confidence)
		s.mu.Lock()
		s.rollSegmentLocked()
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.interim = interim.String()
	s.mu.Unlock()
	if interim.Len() > 0 {
		s.metrics.RecordPartialSegment()
		s.emit(Update{Kind: UpdateInterim, Text: interim.String()})
	}
	return nil
}

// SendAudio forwards one audio frame to the recognizer. A frame that takes
// the current segment past a limit drops the segment and is not sent.
func (s *Session) SendAudio(ctx context.Context, audio []byte, audioOffsetMs int64) error {
	s.mu.Lock()
	if !s.recording {
		s.mu.Unlock()
		return ErrNotRecording
	}
	a := s.adapter
	if a == nil {
		s.mu.Unlock()
		return ErrNoAdapter
	}
	s.lastOffsetMs = audioOffsetMs
	s.audioBytes += int64(len(audio))
	bytes := s.audioBytes
	elapsed := time.Since(s.segmentStart)
	s.mu.Unlock()

	s.metrics.RecordAudioReceived(len(audio))

	limits := s.opts.Limits
	if limits.MaxAudioBytes > 0 && bytes > limits.MaxAudioBytes {
		return s.exceed("audio_bytes", fmt.Sprintf("%d > %d bytes", bytes, limits.MaxAudioBytes))
	}
	if limits.MaxDuration > 0 && elapsed > limits.MaxDuration {
		return s.exceed("duration", fmt.Sprintf("%v > %v", elapsed.Round(time.Millisecond), limits.MaxDuration))
	}

	return a.SendAudio(ctx, audio)
}

func (s *Session) exceed(limitType, detail string) error {
	s.metrics.RecordLimitExceeded(limitType)
	s.DropSegment(limitType)
	return fmt.Errorf("%w: %s", ErrSegmentLimit, detail)
}

// DropSegment abandons the current segment without a final. It returns
// false if the segment had already ended.
func (s *Session) DropSegment(reason string) bool {
	segmentID := s.tracker.ID()
	dropped := s.tracker.Drop()
	if dropped {
		s.metrics.RecordSegmentDropped(reason)
		s.mu.Lock()
		s.interim = ""
		s.mu.Unlock()
	}
	s.logger.Warn().
		Str("segmentId", segmentID).
		Str("reason", reason).
		Bool("dropped", dropped).
		Msg("Segment dropped")
	return dropped
}

// OnPartial implements stt.Callback.
func (s *Session) OnPartial(text string) {
	if err := s.tracker.Interim(text); err != nil {
		s.logger.Debug().Err(err).Str("segmentId", s.tracker.ID()).Msg("Partial ignored")
		return
	}
	if limit := s.opts.Limits.MaxPartials; limit > 0 && s.tracker.Interims() > limit {
		s.metrics.RecordLimitExceeded("partials")
		s.DropSegment("partials")
		return
	}

	s.mu.Lock()
	s.interim = text
	s.mu.Unlock()
	s.metrics.RecordPartialSegment()

	segmentID := s.tracker.ID()
	s.publishPartial(context.Background(), models.TranscriptPartial{
		EventType: models.EventTranscriptPartial,
		SessionID: s.id,
		SegmentID: segmentID,
		Timestamp: time.Now().UnixMilli(),
		Text:      text,
	})
	s.emit(Update{Kind: UpdateInterim, Text: text, SegmentID: segmentID})
}

// OnFinal implements stt.Callback. Only the first final of a segment is
// committed.
func (s *Session) OnFinal(text string, confidence float64) {
	segmentID := s.tracker.ID()
	if err := s.tracker.Finalize(); err != nil {
		s.logger.Debug().Err(err).Str("segmentId", segmentID).Msg("Final ignored")
		return
	}
	s.commitFinal(context.Background(), segmentID, text, confidence)
}

// OnEndOfUtterance implements stt.Callback by rolling over to a new segment.
func (s *Session) OnEndOfUtterance() {
	old := s.tracker.ID()
	s.tracker.Close()

	s.mu.Lock()
	s.rollSegmentLocked()
	s.mu.Unlock()

	s.logger.Debug().
		Str("oldSegmentId", old).
		Str("segmentId", s.tracker.ID()).
		Msg("End of utterance")
}

// OnError implements stt.Callback. The current segment is dropped and the
// recording stops.
func (s *Session) OnError(err error) {
	s.metrics.RecordSTTError(s.opts.Provider)
	s.DropSegment("stt_error")

	s.mu.Lock()
	wasRecording := s.recording
	s.recording = false
	a := s.adapter
	s.adapter = nil
	s.interim = ""
	s.mu.Unlock()

	s.logger.Error().Err(err).Bool("wasRecording", wasRecording).Msg("Speech recognition error")

	// Close waits for the adapter's delivery goroutine, which is the one
	// calling us.
	if a != nil {
		go a.Close()
	}
	s.emit(Update{Kind: UpdateError, Error: err.Error()})
}

func (s *Session) commitFinal(ctx context.Context, segmentID, raw string, confidence float64) {
	text := raw
	if s.opts.EnhancedProcessing {
		text = s.process(raw)
	}

	s.mu.Lock()
	s.interim = ""
	offset := s.lastOffsetMs
	if text != "" {
		s.transcript.WriteString(text)
		s.transcript.WriteByte(' ')
		s.finals++
		if s.opts.EnhancedProcessing {
			s.pushContextLocked(text)
		}
	}
	s.mu.Unlock()

	if text == "" {
		s.logger.Debug().Str("segmentId", segmentID).Str("raw", raw).Msg("Final empty after processing")
		return
	}
	s.metrics.RecordFinalSegment()

	s.publishFinal(ctx, models.TranscriptFinal{
		EventType:     models.EventTranscriptFinal,
		SessionID:     s.id,
		SegmentID:     segmentID,
		Timestamp:     time.Now().UnixMilli(),
		RawText:       raw,
		Text:          text,
		Confidence:    confidence,
		AudioOffsetMs: offset,
		Enhanced:      s.opts.EnhancedProcessing,
	})
	s.emit(Update{Kind: UpdateFinal, Text: text, SegmentID: segmentID})
}

// pushContextLocked appends to the context buffer, dropping the oldest
// entries beyond ContextSize. Only processed finals are buffered.
func (s *Session) pushContextLocked(text string) {
	s.context = append(s.context, text)
	if n := len(s.context) - s.opts.ContextSize; n > 0 {
		s.context = append([]string(nil), s.context[n:]...)
	}
}

// process runs the pipeline stage by stage so each stage that changed the
// text is counted.
func (s *Session) process(raw string) string {
	start := time.Now()
	prev := raw
	for _, out := range s.processor.Trace(raw) {
		if out.Text != prev {
			s.metrics.RecordCorrection(out.Stage)
		}
		prev = out.Text
	}
	s.metrics.RecordProcessing(time.Since(start).Seconds())
	return prev
}

// rollSegmentLocked opens a fresh segment. Callers hold s.mu.
func (s *Session) rollSegmentLocked() {
	if st := s.tracker.State(); st == segment.StateOpen && s.tracker.Interims() == 0 {
		// Nothing was heard in the current segment; reuse it.
		s.resetSegmentUsageLocked()
		return
	}
	s.tracker.Next(s.segments.Next(s.id))
	s.resetSegmentUsageLocked()
}

func (s *Session) resetSegmentUsageLocked() {
	s.audioBytes = 0
	s.segmentStart = time.Now()
}

func (s *Session) publishPartial(ctx context.Context, ev models.TranscriptPartial) {
	if s.opts.Publisher == nil {
		return
	}
	if err := s.opts.Publisher.PublishPartial(ctx, s.id, ev); err != nil {
		s.logger.Error().Err(err).Str("segmentId", ev.SegmentID).Msg("Failed to publish partial")
	}
}

func (s *Session) publishFinal(ctx context.Context, ev models.TranscriptFinal) {
	if s.opts.Publisher == nil {
		return
	}
	if err := s.opts.Publisher.PublishFinal(ctx, s.id, ev); err != nil {
		s.logger.Error().Err(err).Str("segmentId", ev.SegmentID).Msg("Failed to publish final")
	}
}

// Transcript is the committed transcript. Every final segment is followed
// by a single space.
func (s *Session) Transcript() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.String()
}

// Interim is the latest interim hypothesis. It is cleared by every final.
func (s *Session) Interim() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interim
}

func (s *Session) IsRecording() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recording
}

// Context returns a copy of the recent final segments, oldest first.
func (s *Session) Context() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.context...)
}

// Snapshot returns the session's current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		ID:           s.id,
		Transcript:   s.transcript.String(),
		Interim:      s.interim,
		Recording:    s.recording,
		Context:      append([]string(nil), s.context...),
		SegmentID:    s.tracker.ID(),
		SegmentState: s.tracker.State().String(),
		Segments:     s.finals,
	}
}

func (s *Session) emit(u Update) {
	if s.opts.Listener == nil {
		return
	}
	s.mu.Lock()
	u.SessionID = s.id
	u.Transcript = s.transcript.String()
	u.Recording = s.recording
	s.mu.Unlock()
	u.Timestamp = time.Now().UnixMilli()
	s.opts.Listener(u)
}
