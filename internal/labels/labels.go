package labels

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image/png"
	"strings"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
)

const (
	defaultWidth  = 300
	defaultHeight = 80
)

// Render encodes content as a Code 128 barcode and returns it as a PNG
// scaled to width x height pixels.
func Render(content string, width int, height int) ([]byte, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("label content required")
	}
	if width < 1 {
		width = defaultWidth
	}
	if height < 1 {
		height = defaultHeight
	}

	code, err := code128.Encode(content)
	if err != nil {
		return nil, fmt.Errorf("encode barcode: %w", err)
	}
	scaled, err := barcode.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("scale barcode: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("render png: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderBase64 is Render with the PNG base64-encoded for JSON transport.
func RenderBase64(content string, width int, height int) (string, error) {
	raw, err := Render(content, width, height)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
