package labels

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestRenderProducesPNG(t *testing.T) {
	raw, err := Render("BJ-KAOS-01", 300, 80)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\x89PNG")) {
		t.Fatalf("expected PNG magic bytes, got %q", raw[:4])
	}
}

func TestRenderRejectsEmptyContent(t *testing.T) {
	if _, err := Render("   ", 0, 0); err == nil {
		t.Fatalf("expected error for empty content")
	}
}

func TestRenderBase64RoundTrips(t *testing.T) {
	encoded, err := RenderBase64("BJ-KAOS-01", 0, 0)
	if err != nil {
		t.Fatalf("render base64: %v", err)
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.HasPrefix(raw, []byte("\x89PNG")) {
		t.Fatalf("expected PNG payload after decode")
	}
}
