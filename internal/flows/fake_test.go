package flows

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"

	"github.com/oremus-labs/scribe-bridge/internal/askai"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/store"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
)

type fakeTokens struct {
	token       string
	err         error
	invalidated int
}

func (f *fakeTokens) Token(context.Context) (string, error) { return f.token, f.err }
func (f *fakeTokens) Invalidate(context.Context)            { f.invalidated++ }

type fakeUpstream struct {
	mu sync.Mutex

	sessionID    string
	sessionErr   error
	recordingID  string
	uploadReply  string
	finishReply  string
	transcript   string
	templates    string
	note         string
	askResult    askai.Result
	asks         []upstream.AskRequest
	fallbackAsks int
	uploaded     []byte
	uploadedName string
	consultReq   upstream.ConsultNoteRequest
}

func newFakeUpstream() *fakeUpstream {
	return &fakeUpstream{
		sessionID:   "s-new",
		recordingID: "rec-1",
		uploadReply: `{"is_success":true}`,
		finishReply: `{"is_success":true}`,
		transcript:  `{"transcript":"my knee hurts"}`,
		templates:   `{"templates":[{"id":"tpl-1"},{"id":"tpl-2"}]}`,
		note:        `{"content":"note body"}`,
		askResult:   askai.Succeeded(askai.Success{Response: "answer text", Format: askai.FormatSSE}),
	}
}

func (f *fakeUpstream) CreateSession(context.Context, string) (string, error) {
	return f.sessionID, f.sessionErr
}

func (f *fakeUpstream) StartTranscription(context.Context, string, string) (string, error) {
	return f.recordingID, nil
}

func (f *fakeUpstream) UploadAudio(_ context.Context, _, _, _, filename string, audio io.Reader, _ string) (json.RawMessage, error) {
	data, err := io.ReadAll(audio)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.uploaded, f.uploadedName = data, filename
	f.mu.Unlock()
	return json.RawMessage(f.uploadReply), nil
}

func (f *fakeUpstream) FinishTranscription(context.Context, string, string, string) (json.RawMessage, error) {
	return json.RawMessage(f.finishReply), nil
}

func (f *fakeUpstream) GetTranscript(context.Context, string, string) (json.RawMessage, error) {
	return json.RawMessage(f.transcript), nil
}

func (f *fakeUpstream) ConsultNoteTemplates(context.Context, string) (json.RawMessage, error) {
	return json.RawMessage(f.templates), nil
}

func (f *fakeUpstream) GenerateConsultNote(_ context.Context, _ string, in upstream.ConsultNoteRequest) (json.RawMessage, error) {
	f.consultReq = in
	return json.RawMessage(f.note), nil
}

func (f *fakeUpstream) AskAI(_ context.Context, _ string, in upstream.AskRequest) askai.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asks = append(f.asks, in)
	return f.askResult
}

func (f *fakeUpstream) AskWithFallbacks(_ context.Context, _ string, in upstream.AskRequest) askai.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallbackAsks++
	f.asks = append(f.asks, in)
	return f.askResult
}

type fakeRecorder struct {
	plans   map[string]interface{}
	history []store.AskRecord
	saveErr error
}

func (f *fakeRecorder) SaveCarePlan(sessionID string, data interface{}) (*store.CarePlan, error) {
	if f.saveErr != nil {
		return nil, f.saveErr
	}
	if f.plans == nil {
		f.plans = map[string]interface{}{}
	}
	f.plans[sessionID] = data
	return &store.CarePlan{SessionID: sessionID, Data: data}, nil
}

func (f *fakeRecorder) AppendAskHistory(rec *store.AskRecord) error {
	f.history = append(f.history, *rec)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (f *fakePublisher) Publish(_ context.Context, evt events.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}

func (f *fakePublisher) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.events))
	for _, e := range f.events {
		out = append(out, e.Type)
	}
	return out
}

var errBoom = errors.New("boom")

type harness struct {
	api    *fakeUpstream
	tokens *fakeTokens
	rec    *fakeRecorder
	pub    *fakePublisher
	svc    *Service
}

func newHarness() *harness {
	h := &harness{
		api:    newFakeUpstream(),
		tokens: &fakeTokens{token: "jwt-token-value-that-is-quite-long-indeed"},
		rec:    &fakeRecorder{},
		pub:    &fakePublisher{},
	}
	h.svc = New(h.api, h.tokens, h.rec, h.pub, Options{Credentials: upstream.Credentials{APIKey: "k", Email: "e@x"}})
	return h
}
