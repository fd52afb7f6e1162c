package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/tidwall/gjson"
)

// ErrMissingRecordingID is returned when a transcription start reply has no recording id.
var ErrMissingRecordingID = errors.New("recording id missing in upstream response")

func transcriptionPath(sessionID string) string {
	return "/sessions/" + url.PathEscape(sessionID) + "/restful-segment-transcription"
}

// StartTranscription opens a segment transcription and returns the recording id.
func (c *Client) StartTranscription(ctx context.Context, jwt, sessionID string) (string, error) {
	raw, err := c.do(ctx, request{
		operation: "start_transcription",
		method:    http.MethodPost,
		path:      transcriptionPath(sessionID),
		jwt:       jwt,
		apiKey:    true,
	})
	if err != nil {
		return "", err
	}
	id := gjson.GetBytes(raw, "recording_id").String()
	if id == "" {
		return "", ErrMissingRecordingID
	}
	return id, nil
}

// UploadAudio sends one audio segment. An empty index defaults to "0".
func (c *Client) UploadAudio(ctx context.Context, jwt, sessionID, recordingID, filename string, audio io.Reader, index string) (json.RawMessage, error) {
	if index == "" {
		index = "0"
	}
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, audio); err != nil {
		return nil, fmt.Errorf("failed to buffer audio: %w", err)
	}
	if err := w.WriteField("index", index); err != nil {
		return nil, fmt.Errorf("failed to write index: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize form: %w", err)
	}
	return c.do(ctx, request{
		operation:   "upload_audio",
		method:      http.MethodPost,
		path:        transcriptionPath(sessionID) + "/" + url.PathEscape(recordingID) + ":transcribe",
		jwt:         jwt,
		apiKey:      true,
		body:        &buf,
		contentType: w.FormDataContentType(),
	})
}

// FinishTranscription closes the recording.
func (c *Client) FinishTranscription(ctx context.Context, jwt, sessionID, recordingID string) (json.RawMessage, error) {
	return c.do(ctx, request{
		operation: "finish_transcription",
		method:    http.MethodPost,
		path:      transcriptionPath(sessionID) + "/" + url.PathEscape(recordingID) + ":finish",
		jwt:       jwt,
		apiKey:    true,
	})
}

// GetTranscript returns the session transcript document.
func (c *Client) GetTranscript(ctx context.Context, jwt, sessionID string) (json.RawMessage, error) {
	return c.do(ctx, request{
		operation: "get_transcript",
		method:    http.MethodGet,
		path:      "/sessions/" + url.PathEscape(sessionID) + "/transcript",
		jwt:       jwt,
		apiKey:    true,
	})
}
