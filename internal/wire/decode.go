// Package wire decodes vector-index responses into a generic value tree.
//
// The tree holds only nil, bool, int64, uint64, float64, string, []byte,
// []any and map[string]any. Shape interpretation belongs to the callers.
package wire

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/kailas-cloud/vecgate/internal/domain"
)

// Format is the encoding of a response body.
type Format string

const (
	// FormatMsgpack is the binary self-describing format.
	FormatMsgpack Format = "msgpack"
	// FormatJSON is textual JSON.
	FormatJSON Format = "json"
)

// DecodeError describes a malformed payload. Pos is -1 when unknown.
type DecodeError struct {
	Format Format
	Len    int
	Pos    int
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Pos >= 0 {
		return fmt.Sprintf("%s: %s payload of %d bytes at offset %d: %v", domain.ErrDecode, e.Format, e.Len, e.Pos, e.Err)
	}
	return fmt.Sprintf("%s: %s payload of %d bytes: %v", domain.ErrDecode, e.Format, e.Len, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{domain.ErrDecode, e.Err} }

// FormatOf picks the decoding format from a Content-Type header.
// Anything that is not a msgpack media type is read as JSON.
func FormatOf(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch mediaType {
	case "application/msgpack", "application/x-msgpack", "application/vnd.msgpack":
		return FormatMsgpack
	default:
		return FormatJSON
	}
}

// Decode decodes body according to contentType.
func Decode(contentType string, body []byte) (any, error) {
	if FormatOf(contentType) == FormatMsgpack {
		return DecodeMsgpack(body)
	}
	return DecodeJSON(body)
}

// DecodeMsgpack decodes a single msgpack value. Trailing bytes are an error.
func DecodeMsgpack(body []byte) (any, error) {
	r := bytes.NewReader(body)
	dec := msgpack.NewDecoder(r)
	dec.SetMapDecoder(func(d *msgpack.Decoder) (any, error) {
		return d.DecodeUntypedMap()
	})

	v, err := dec.DecodeInterface()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &DecodeError{Format: FormatMsgpack, Len: len(body), Pos: len(body) - r.Len(), Err: err}
	}
	if r.Len() > 0 {
		return nil, &DecodeError{
			Format: FormatMsgpack, Len: len(body), Pos: len(body) - r.Len(),
			Err: errors.New("trailing bytes after value"),
		}
	}

	out, err := canonical(v)
	if err != nil {
		return nil, &DecodeError{Format: FormatMsgpack, Len: len(body), Pos: -1, Err: err}
	}
	return out, nil
}

// DecodeJSON decodes a single JSON value, keeping integers exact where possible.
func DecodeJSON(body []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, &DecodeError{Format: FormatJSON, Len: len(body), Pos: jsonOffset(err, dec), Err: err}
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, &DecodeError{
			Format: FormatJSON, Len: len(body), Pos: int(dec.InputOffset()),
			Err: errors.New("trailing data after value"),
		}
	}

	out, err := canonical(v)
	if err != nil {
		return nil, &DecodeError{Format: FormatJSON, Len: len(body), Pos: -1, Err: err}
	}
	return out, nil
}

func jsonOffset(err error, dec *json.Decoder) int {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		return int(syn.Offset)
	}
	var typ *json.UnmarshalTypeError
	if errors.As(err, &typ) {
		return int(typ.Offset)
	}
	return int(dec.InputOffset())
}
