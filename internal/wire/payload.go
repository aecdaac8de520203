package wire

import (
	"encoding/base64"
	"unicode/utf8"
)

// maxDiagnosticRaw bounds the raw bytes echoed back in a diagnostic.
const maxDiagnosticRaw = 4096

// Payload is a decoded backend response together with the bytes it came from.
type Payload struct {
	Value       any
	Raw         []byte
	ContentType string
	// Substitute marks a fixed offline result that never crossed the network.
	Substitute bool
}

// Diagnostic is the client-facing description of a payload that produced no item list.
type Diagnostic struct {
	Error       string `json:"error"`
	ContentType string `json:"content_type,omitempty"`
	Raw         string `json:"raw,omitempty"`
	RawEncoding string `json:"raw_encoding,omitempty"`
	RawLen      int    `json:"raw_len"`
}

// NewDiagnostic describes raw for a client. Valid UTF-8 is echoed as text, anything else as base64.
func NewDiagnostic(reason string, contentType string, raw []byte) *Diagnostic {
	d := &Diagnostic{Error: reason, ContentType: contentType, RawLen: len(raw)}
	if len(raw) == 0 {
		return d
	}
	clip := raw
	if len(clip) > maxDiagnosticRaw {
		clip = clip[:maxDiagnosticRaw]
	}
	if utf8.Valid(clip) {
		d.Raw, d.RawEncoding = string(clip), "text"
	} else {
		d.Raw, d.RawEncoding = base64.StdEncoding.EncodeToString(clip), "base64"
	}
	return d
}
