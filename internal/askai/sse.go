package askai

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

const (
	ssePrefix       = "data:"
	maxSSELineBytes = 1 << 20
)

type payloadKind int

const (
	payloadOther payloadKind = iota
	payloadData
	payloadContent
	payloadString
)

// payload is one decoded SSE frame.
type payload struct {
	kind payloadKind
	text string
}

// decodePayload reports false when raw is not valid JSON.
func decodePayload(raw string) (payload, bool) {
	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		return payload{}, false
	}
	switch v := value.(type) {
	case string:
		return payload{kind: payloadString, text: v}, true
	case map[string]interface{}:
		if s, ok := v["data"].(string); ok {
			return payload{kind: payloadData, text: s}, true
		}
		if s, ok := v["content"].(string); ok {
			return payload{kind: payloadContent, text: s}, true
		}
	}
	return payload{kind: payloadOther}, true
}

func (p payload) contribution() string {
	switch p.kind {
	case payloadData, payloadContent, payloadString:
		return p.text
	default:
		return ""
	}
}

// SSEStats counts what ParseSSE saw.
type SSEStats struct {
	Bytes      int
	DataFrames int
	Skipped    int
}

// ParseSSE reads r line by line and concatenates the text carried by each
// data frame. Malformed frames are skipped. A read error ends parsing and is
// returned alongside whatever was collected so far.
func ParseSSE(r io.Reader) (string, SSEStats, error) {
	var (
		out   strings.Builder
		stats SSEStats
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELineBytes)
	for scanner.Scan() {
		stats.Bytes += len(scanner.Bytes()) + 1
		line := strings.TrimSpace(scanner.Text())
		if line == "" || !strings.HasPrefix(line, ssePrefix) {
			continue
		}
		stats.DataFrames++
		p, ok := decodePayload(strings.TrimSpace(strings.TrimPrefix(line, ssePrefix)))
		if !ok {
			stats.Skipped++
			continue
		}
		out.WriteString(p.contribution())
	}
	return out.String(), stats, scanner.Err()
}

// ParseSSEString is ParseSSE over a buffered body.
func ParseSSEString(body string) string {
	text, _, _ := ParseSSE(strings.NewReader(body))
	return text
}
