package flows

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/askai"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
)

func TestTranscribeAudio(t *testing.T) {
	t.Parallel()
	h := newHarness()
	payload, status := h.svc.TranscribeAudio(context.Background(), &AudioFile{Name: "clip", Reader: strings.NewReader("AUDIO")}, "")
	if status != http.StatusOK {
		t.Fatalf("status = %d payload = %v", status, payload)
	}
	if payload["transcript"] != "my knee hurts" || payload["session_id"] != "s-new" || payload["recording_id"] != "rec-1" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if string(h.api.uploaded) != "AUDIO" || h.api.uploadedName != "clip.wav" {
		t.Fatalf("unexpected upload %q %q", h.api.uploaded, h.api.uploadedName)
	}
	types := strings.Join(h.pub.types(), ",")
	if types != events.TypeSessionCreated+","+events.TypeTranscriptionFinished {
		t.Fatalf("events = %s", types)
	}
}

func TestTranscribeAudioValidation(t *testing.T) {
	t.Parallel()
	h := newHarness()
	if payload, status := h.svc.TranscribeAudio(context.Background(), nil, ""); status != http.StatusBadRequest || payload["error"] != "No audio file provided" {
		t.Fatalf("nil audio: %d %v", status, payload)
	}
	if payload, status := h.svc.TranscribeAudio(context.Background(), &AudioFile{Reader: strings.NewReader("x")}, ""); status != http.StatusBadRequest || payload["error"] != "No audio file selected" {
		t.Fatalf("unnamed audio: %d %v", status, payload)
	}
}

func TestTranscribeAudioNoSpeech(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.api.transcript = `{}`
	payload, status := h.svc.TranscribeAudio(context.Background(), &AudioFile{Name: "a.mp3", Reader: strings.NewReader("x")}, "s-existing")
	if status != http.StatusBadRequest || payload["error"] != "No speech detected in audio file" {
		t.Fatalf("unexpected %d %v", status, payload)
	}
}

func TestTranscribeAudioUploadRejected(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.api.uploadReply = `{"is_success":false,"reason":"codec"}`
	payload, status := h.svc.TranscribeAudio(context.Background(), &AudioFile{Name: "a.mp3", Reader: strings.NewReader("x")}, "s-1")
	if status != http.StatusInternalServerError || payload["error"] != "Audio upload failed" {
		t.Fatalf("unexpected %d %v", status, payload)
	}
}

func TestTokenFailureIs401(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.tokens.err = errBoom
	payload, status := h.svc.AskQuestion(context.Background(), "is this ok?", "")
	if status != http.StatusUnauthorized || payload["error"] != "Authentication failed" {
		t.Fatalf("unexpected %d %v", status, payload)
	}
}

func TestSessionFailureIs500(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.api.sessionErr = &upstream.APIError{StatusCode: http.StatusBadGateway, Message: "down"}
	payload, status := h.svc.ProcessDocument(context.Background(), "Patient discharged after surgery.")
	if status != http.StatusInternalServerError || payload["error"] != "Session creation failed" {
		t.Fatalf("unexpected %d %v", status, payload)
	}
	details := payload["details"].(map[string]interface{})
	if details["status_code"] != http.StatusBadGateway {
		t.Fatalf("unexpected details %v", details)
	}
}

func TestProcessDocument(t *testing.T) {
	t.Parallel()
	h := newHarness()
	payload, status := h.svc.ProcessDocument(context.Background(), "Take Ibuprofen 400mg every 6 hours.")
	if status != http.StatusOK {
		t.Fatalf("status = %d payload = %v", status, payload)
	}
	if payload["care_plan"] != "answer text" || payload["response_format"] != "sse" || payload["stored"] != true {
		t.Fatalf("unexpected payload %v", payload)
	}
	if h.rec.plans["s-new"] != "answer text" {
		t.Fatalf("care plan not stored: %v", h.rec.plans)
	}
	if h.api.fallbackAsks != 1 || h.api.asks[0].Command != carePlanPrompt {
		t.Fatalf("expected one fallback ask with the care plan prompt")
	}
	if len(h.rec.history) != 1 || !h.rec.history[0].Success {
		t.Fatalf("unexpected history %+v", h.rec.history)
	}
}

func TestProcessDocumentTooShort(t *testing.T) {
	t.Parallel()
	h := newHarness()
	payload, status := h.svc.ProcessDocument(context.Background(), "   short  ")
	if status != http.StatusBadRequest || payload["minimum_required"] != MinDocumentLength || payload["received_length"] != 10 {
		t.Fatalf("unexpected %d %v", status, payload)
	}
	if len(h.api.asks) != 0 {
		t.Fatalf("no ask expected for short documents")
	}
}

func TestProcessDocumentAIFailure(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.api.askResult = askai.Failed(askai.Failure{StatusCode: http.StatusUnauthorized, Message: upstream.MessageAllFallbacksFailed})
	payload, status := h.svc.ProcessDocument(context.Background(), "A long enough discharge note.")
	if status != http.StatusInternalServerError || payload["error"] != "AI request failed" {
		t.Fatalf("unexpected %d %v", status, payload)
	}
	if h.tokens.invalidated != 1 {
		t.Fatalf("expected token invalidation after 401")
	}
	if types := h.pub.types(); types[len(types)-1] != events.TypeAskFailed {
		t.Fatalf("events = %v", types)
	}
}

func TestAskQuestionExtractsJSONContent(t *testing.T) {
	t.Parallel()
	h := newHarness()
	h.api.askResult = askai.Succeeded(askai.Success{
		Response: map[string]interface{}{"text": "", "content": "Some pain is normal."},
		Format:   askai.FormatJSON,
	})
	payload, status := h.svc.AskQuestion(context.Background(), "  How much pain?  ", "s-given")
	if status != http.StatusOK {
		t.Fatalf("status = %d %v", status, payload)
	}
	if payload["response"] != "Some pain is normal." || payload["question_received"] != "How much pain?" || payload["session_id"] != "s-given" {
		t.Fatalf("unexpected payload %v", payload)
	}
	if !strings.Contains(h.api.asks[0].Command, "Patient question: How much pain?") {
		t.Fatalf("prompt missing question: %q", h.api.asks[0].Command)
	}
}

func TestAskQuestionEmpty(t *testing.T) {
	t.Parallel()
	h := newHarness()
	if _, status := h.svc.AskQuestion(context.Background(), "   ", ""); status != http.StatusBadRequest {
		t.Fatalf("status = %d", status)
	}
}

func TestCompleteFlowTest(t *testing.T) {
	t.Parallel()
	h := newHarness()
	payload, status := h.svc.CompleteFlowTest(context.Background())
	if status != http.StatusOK || payload["overall_success"] != true {
		t.Fatalf("unexpected %d %v", status, payload)
	}
	if len(h.api.asks) != 2 || h.api.asks[1].Content != samplePatientQuestion {
		t.Fatalf("unexpected asks %+v", h.api.asks)
	}

	h.tokens.err = errBoom
	payload, status = h.svc.CompleteFlowTest(context.Background())
	if status != http.StatusUnauthorized || payload["error"] != "JWT failed" {
		t.Fatalf("unexpected %d %v", status, payload)
	}
}

func TestDebugReportHidesCredentials(t *testing.T) {
	t.Parallel()
	h := newHarness()
	payload, status := h.svc.DebugReport(context.Background())
	if status != http.StatusOK || payload["status"] != "debug_complete" {
		t.Fatalf("unexpected %d %v", status, payload)
	}
	data, _ := json.Marshal(payload)
	if strings.Contains(string(data), `"preview"`) {
		t.Fatalf("credential previews must not be reported: %s", data)
	}
	info := payload["debug_info"].(gin.H)
	if info["ask_ai_test"].(gin.H)["success"] != true {
		t.Fatalf("unexpected ask test %v", info["ask_ai_test"])
	}
	if h.api.asks[0].Command != debugAskCommand || h.api.fallbackAsks != 0 {
		t.Fatalf("debug ask must be a single MARKDOWN request")
	}
}

func TestTokenAndSessionOverview(t *testing.T) {
	t.Parallel()
	h := newHarness()
	payload, _ := h.svc.TokenOverview(context.Background())
	if payload["success"] != true || payload["jwt_token"] != h.tokens.token {
		t.Fatalf("unexpected token overview %v", payload)
	}
	payload, status := h.svc.SessionOverview(context.Background())
	if status != http.StatusOK || payload["session_result"] != "s-new" || payload["jwt_token"] != h.tokens.token[:20]+"..." {
		t.Fatalf("unexpected session overview %d %v", status, payload)
	}
}

func TestAudioSelfTest(t *testing.T) {
	t.Parallel()
	h := newHarness()
	if _, status := h.svc.AudioSelfTest(context.Background(), filepath.Join(t.TempDir(), "missing.mp3")); status != http.StatusNotFound {
		t.Fatalf("status = %d", status)
	}
	path := filepath.Join(t.TempDir(), "sample.mp3")
	if err := os.WriteFile(path, []byte("MP3"), 0o600); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	payload, status := h.svc.AudioSelfTest(context.Background(), path)
	if status != http.StatusOK || payload["recording_id"] != "rec-1" {
		t.Fatalf("unexpected %d %v", status, payload)
	}
	if h.api.uploadedName != "sample.mp3" || string(h.api.uploaded) != "MP3" {
		t.Fatalf("unexpected upload %q", h.api.uploadedName)
	}
}

func TestFullTranscript(t *testing.T) {
	t.Parallel()
	h := newHarness()
	if _, status := h.svc.FullTranscript(context.Background(), &AudioFile{Name: "clip.wav", Reader: strings.NewReader("x")}); status != http.StatusBadRequest {
		t.Fatalf("non-mp3 status = %d", status)
	}
	payload, status := h.svc.FullTranscript(context.Background(), &AudioFile{Name: "clip.MP3", Reader: strings.NewReader("x")})
	if status != http.StatusOK || payload["template_id"] != "tpl-1" {
		t.Fatalf("unexpected %d %v", status, payload)
	}
	if h.api.consultReq.VoiceStyle != "BRIEF" || h.api.consultReq.Brain != "LEFT" || h.api.consultReq.SessionID != "s-new" {
		t.Fatalf("unexpected consult request %+v", h.api.consultReq)
	}

	h.api.templates = `{"templates":[]}`
	if _, status := h.svc.FullTranscript(context.Background(), &AudioFile{Name: "clip.mp3", Reader: strings.NewReader("x")}); status != http.StatusNotFound {
		t.Fatalf("no templates status = %d", status)
	}
}

func TestExtractHelpers(t *testing.T) {
	t.Parallel()
	cases := []struct {
		doc  string
		want string
	}{
		{`{"transcript":"","text":"fallback text"}`, "fallback text"},
		{`{"speech_to_text":"  padded  "}`, "padded"},
		{`{"other":1}`, `{"other":1}`},
		{`"bare"`, "bare"},
	}
	for _, tc := range cases {
		if got := extractTranscriptText(json.RawMessage(tc.doc)); got != tc.want {
			t.Fatalf("extractTranscriptText(%s) = %q, want %q", tc.doc, got, tc.want)
		}
	}

	result := askai.Succeeded(askai.Success{Response: map[string]interface{}{"data": "from data"}, Format: askai.FormatJSON})
	if got := extractAIContent(result); got != "from data" {
		t.Fatalf("extractAIContent() = %q", got)
	}
	if got := extractAIContent(askai.Failed(askai.Failure{Message: "x"})); got != "" {
		t.Fatalf("failure content = %q", got)
	}
}
