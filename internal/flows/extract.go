package flows

import (
	"encoding/json"
	"strings"

	"github.com/oremus-labs/scribe-bridge/internal/askai"
	"github.com/tidwall/gjson"
)

var (
	transcriptKeys = []string{"transcript", "text", "content", "speech_to_text"}
	aiContentKeys  = []string{"content", "text", "data"}
)

// truthy mirrors "has a meaningful value" for a JSON field.
func truthy(v gjson.Result) bool {
	switch v.Type {
	case gjson.String:
		return v.Str != ""
	case gjson.Number:
		return v.Num != 0
	case gjson.True:
		return true
	case gjson.JSON:
		raw := strings.Join(strings.Fields(v.Raw), "")
		return raw != "{}" && raw != "[]"
	default:
		return false
	}
}

// probe returns the first truthy field of doc among keys, or the whole
// document when none is set. Non-object documents are returned as-is.
func probe(doc []byte, keys []string) string {
	root := gjson.ParseBytes(doc)
	if root.IsObject() {
		for _, key := range keys {
			if v := root.Get(key); truthy(v) {
				return v.String()
			}
		}
	}
	return root.String()
}

func extractTranscriptText(doc json.RawMessage) string {
	return strings.TrimSpace(probe(doc, transcriptKeys))
}

// extractAIContent returns the answer text of a successful result.
func extractAIContent(result askai.Result) string {
	sv, ok := result.Success()
	if !ok {
		return ""
	}
	switch v := sv.Response.(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return probe(data, aiContentKeys)
	}
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
