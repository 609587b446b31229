package stream

import (
	"encoding/json"

	"github.com/xaenox/legal-assistant/internal/models"
)

// DecodeLine normalizes one complete line of an upstream stream.
//
// A line that is not valid JSON is returned verbatim as a ChunkRaw. The two
// envelope shapes {type: chunk, value: {type: tool, output}} and
// {type: chunk, value: {type: chunk, value}} yield ChunkTool and
// ChunkTextDelta. Any other JSON shape, and envelopes with empty content,
// report ok=false and should be skipped.
func DecodeLine(line string) (chunk models.StreamChunk, ok bool) {
	if !json.Valid([]byte(line)) {
		return models.StreamChunk{Type: models.ChunkRaw, Value: line}, true
	}

	var envelope map[string]any
	if err := json.Unmarshal([]byte(line), &envelope); err != nil {
		return models.StreamChunk{}, false
	}
	if envelope["type"] != "chunk" {
		return models.StreamChunk{}, false
	}

	value, _ := envelope["value"].(map[string]any)
	switch value["type"] {
	case "tool":
		if output, _ := value["output"].(string); output != "" {
			return models.StreamChunk{Type: models.ChunkTool, Value: output}, true
		}
	case "chunk":
		if text, _ := value["value"].(string); text != "" {
			return models.StreamChunk{Type: models.ChunkTextDelta, Value: text}, true
		}
	}

	return models.StreamChunk{}, false
}
