package obs

import (
	"bytes"
	"encoding/json"
	"testing"
)

func TestEmitWritesOneStampedJSONLine(t *testing.T) {
	logger := Logger()
	original := logger.Writer()
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	defer logger.SetOutput(original)

	entry := Entry("info", "http")
	entry["method"] = "GET"
	entry["status"] = 200
	Emit(entry)

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("log line not valid JSON: %v\n%s", err, buf.String())
	}
	if decoded["level"] != "info" || decoded["type"] != "http" {
		t.Fatalf("shared fields missing: %v", decoded)
	}
	if ts, _ := decoded["ts"].(string); ts == "" {
		t.Fatalf("timestamp missing: %v", decoded)
	}
	if decoded["method"] != "GET" {
		t.Fatalf("caller fields dropped: %v", decoded)
	}
}
