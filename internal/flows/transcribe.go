package flows

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oremus-labs/scribe-bridge/internal/events"
	"github.com/oremus-labs/scribe-bridge/internal/upstream"
	"github.com/tidwall/gjson"
)

func upstreamFailure(err error) (gin.H, int) {
	return gin.H(upstream.ErrorPayload(err)), upstream.StatusOf(err, http.StatusInternalServerError)
}

// checkSegmentReply requires is_success=true on upload and finish replies.
func checkSegmentReply(raw json.RawMessage, failure string) (gin.H, int, bool) {
	if gjson.GetBytes(raw, "is_success").Type == gjson.True {
		return nil, http.StatusOK, true
	}
	return gin.H{
		"success": false,
		"error":   failure,
		"details": raw,
	}, http.StatusInternalServerError, false
}

// recordSegment runs start, upload and finish for a single clip.
func (s *Service) recordSegment(ctx context.Context, jwt, sessionID string, audio *AudioFile) (string, gin.H, int) {
	recordingID, err := s.api.StartTranscription(ctx, jwt, sessionID)
	if err != nil {
		payload, status := upstreamFailure(err)
		return "", payload, status
	}

	name := audio.Name
	if filepath.Ext(name) == "" {
		name += ".wav"
	}
	raw, err := s.api.UploadAudio(ctx, jwt, sessionID, recordingID, name, audio.Reader, "0")
	if err != nil {
		payload, status := upstreamFailure(err)
		return "", payload, status
	}
	if payload, status, ok := checkSegmentReply(raw, "Audio upload failed"); !ok {
		return "", payload, status
	}

	raw, err = s.api.FinishTranscription(ctx, jwt, sessionID, recordingID)
	if err != nil {
		payload, status := upstreamFailure(err)
		return "", payload, status
	}
	if payload, status, ok := checkSegmentReply(raw, "Failed to finish transcription"); !ok {
		return "", payload, status
	}
	s.publish(ctx, events.TypeTranscriptionFinished, gin.H{"session_id": sessionID, "recording_id": recordingID})
	return recordingID, nil, http.StatusOK
}

func missingAudio(audio *AudioFile) (gin.H, int, bool) {
	if audio == nil || audio.Reader == nil {
		return gin.H{"success": false, "error": "No audio file provided"}, http.StatusBadRequest, true
	}
	if audio.Name == "" {
		return gin.H{"success": false, "error": "No audio file selected"}, http.StatusBadRequest, true
	}
	return nil, 0, false
}

// TranscribeAudio transcribes one uploaded clip, creating a session when
// sessionID is empty.
func (s *Service) TranscribeAudio(ctx context.Context, audio *AudioFile, sessionID string) (gin.H, int) {
	if payload, status, missing := missingAudio(audio); missing {
		return payload, status
	}
	jwt, payload, status := s.Token(ctx)
	if payload != nil {
		return payload, status
	}
	sessionID, payload, status = s.EnsureSession(ctx, jwt, sessionID)
	if payload != nil {
		return payload, status
	}
	recordingID, payload, status := s.recordSegment(ctx, jwt, sessionID, audio)
	if payload != nil {
		return payload, status
	}

	doc, err := s.api.GetTranscript(ctx, jwt, sessionID)
	if err != nil {
		return upstreamFailure(err)
	}
	text := extractTranscriptText(doc)
	if text == "" || text == "{}" {
		return gin.H{
			"success":    false,
			"error":      "No speech detected in audio file",
			"suggestion": "Please try recording again with clearer speech",
		}, http.StatusBadRequest
	}
	return gin.H{
		"success":      true,
		"transcript":   text,
		"session_id":   sessionID,
		"recording_id": recordingID,
	}, http.StatusOK
}

// AudioSelfTest transcribes the bundled sample clip at path.
func (s *Service) AudioSelfTest(ctx context.Context, path string) (gin.H, int) {
	f, err := os.Open(path)
	if err != nil {
		return gin.H{
			"error":         "Test audio file not found",
			"expected_path": path,
			"suggestion":    "Upload an audio file via the /transcribe-audio endpoint instead",
		}, http.StatusNotFound
	}
	defer f.Close()

	jwt, payload, status := s.Token(ctx)
	if payload != nil {
		return payload, status
	}
	sessionID, payload, status := s.EnsureSession(ctx, jwt, "")
	if payload != nil {
		return payload, status
	}
	recordingID, payload, status := s.recordSegment(ctx, jwt, sessionID, &AudioFile{Name: filepath.Base(path), Reader: f})
	if payload != nil {
		return payload, status
	}
	doc, err := s.api.GetTranscript(ctx, jwt, sessionID)
	if err != nil {
		return upstreamFailure(err)
	}
	return gin.H{
		"success":      true,
		"message":      "Audio transcription test completed",
		"session_id":   sessionID,
		"recording_id": recordingID,
		"transcript":   doc,
	}, http.StatusOK
}

// FullTranscript transcribes an MP3 into a fresh session and generates a
// consult note from the first available template.
func (s *Service) FullTranscript(ctx context.Context, audio *AudioFile) (gin.H, int) {
	if audio == nil || audio.Reader == nil || !strings.HasSuffix(strings.ToLower(audio.Name), ".mp3") {
		return gin.H{"error": true, "message": "No valid MP3 file provided"}, http.StatusBadRequest
	}
	jwt, payload, status := s.Token(ctx)
	if payload != nil {
		return payload, status
	}
	sessionID, payload, status := s.EnsureSession(ctx, jwt, "")
	if payload != nil {
		return payload, status
	}
	if _, payload, status := s.recordSegment(ctx, jwt, sessionID, audio); payload != nil {
		return payload, status
	}

	templates, err := s.api.ConsultNoteTemplates(ctx, jwt)
	if err != nil {
		return upstreamFailure(err)
	}
	templateID := gjson.GetBytes(templates, "templates.0.id").String()
	if templateID == "" {
		return gin.H{"error": true, "message": "No consult templates found"}, http.StatusNotFound
	}

	note, err := s.api.GenerateConsultNote(ctx, jwt, upstream.ConsultNoteRequest{
		SessionID:  sessionID,
		TemplateID: templateID,
		VoiceStyle: "BRIEF",
		Brain:      "LEFT",
	})
	if err != nil {
		return upstreamFailure(err)
	}
	return gin.H{"note": note, "session_id": sessionID, "template_id": templateID}, http.StatusOK
}
