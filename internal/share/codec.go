// Package share encodes datasets into self-contained, URL-safe tokens and back.
//
// A token is the only copy of the shared data: nothing is stored server-side.
// The pipeline is
//
//	JSON → UTF-8 bytes → zlib (deflate) → base64url without padding
//
// and Decode runs it in reverse. Decoding is all-or-nothing: any failing
// stage yields a *DecodeError and no partial result.
package share

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/JonMunkholm/sortly/internal/core"
)

// ErrDecode is the single user-facing decode failure.
var ErrDecode = errors.New("share link could not be decoded")

// ErrPayloadTooLarge is returned by Encode when the serialized payload exceeds
// the codec's limit.
var ErrPayloadTooLarge = errors.New("payload too large")

// Decode stages reported by DecodeError.
const (
	StageBase64   = "base64"
	StageInflate  = "inflate"
	StageUTF8     = "utf8"
	StageJSON     = "json"
	StageValidate = "validate"
)

// encoding is base64url with padding; Decode restores the stripped padding
// before decoding. Strict rejects tokens whose trailing bits were altered.
var encoding = base64.URLEncoding.Strict()

// DecodeError reports which stage of decoding failed.
// It matches ErrDecode with errors.Is.
type DecodeError struct {
	Stage string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrDecode, e.Stage, e.Err)
}

func (e *DecodeError) Unwrap() []error {
	return []error{ErrDecode, e.Err}
}

func decodeErr(stage string, err error) error {
	return &DecodeError{Stage: stage, Err: err}
}

// Codec converts payloads to tokens and back.
type Codec struct {
	compressor TextCompressor
	maxPayload int
}

// Option configures a Codec.
type Option func(*Codec)

// WithMaxPayload limits the serialized JSON size Encode accepts. Zero disables the check.
func WithMaxPayload(n int) Option {
	return func(c *Codec) { c.maxPayload = n }
}

// NewCodec creates a Codec. A nil compressor selects a ZlibCompressor without an inflate cap.
func NewCodec(compressor TextCompressor, opts ...Option) *Codec {
	if compressor == nil {
		compressor = NewZlibCompressor(0)
	}
	c := &Codec{compressor: compressor}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Encode serializes payload to JSON, compresses it and returns a base64url
// token without padding. Map keys are emitted in sorted order so equal
// payloads give equal tokens.
func (c *Codec) Encode(ctx context.Context, payload any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return "", fmt.Errorf("encode share payload: %w", err)
	}
	data := bytes.TrimSuffix(buf.Bytes(), []byte("\n"))

	if c.maxPayload > 0 && len(data) > c.maxPayload {
		return "", fmt.Errorf("%w: %d bytes exceeds %d", ErrPayloadTooLarge, len(data), c.maxPayload)
	}

	compressed, err := c.compressor.Deflate(ctx, data)
	if err != nil {
		return "", fmt.Errorf("compress share payload: %w", err)
	}

	return strings.TrimRight(encoding.EncodeToString(compressed), "="), nil
}

// Decode reverses Encode into out, which must be a pointer. Numbers decoded
// into interface values are kept as json.Number so they round-trip exactly.
func (c *Codec) Decode(ctx context.Context, token string, out any) error {
	data, err := c.decodeBytes(ctx, token)
	if err != nil {
		return err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return decodeErr(StageJSON, err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return decodeErr(StageJSON, errors.New("trailing data after JSON value"))
	}
	return nil
}

// decodeBytes runs the base64, inflate and UTF-8 stages.
func (c *Codec) decodeBytes(ctx context.Context, token string) ([]byte, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, decodeErr(StageBase64, errors.New("empty token"))
	}

	pad := (4 - len(token)%4) % 4
	compressed, err := encoding.DecodeString(token + strings.Repeat("=", pad))
	if err != nil {
		return nil, decodeErr(StageBase64, err)
	}

	data, err := c.compressor.Inflate(ctx, compressed)
	if err != nil {
		// Cancellation is not a property of the token.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, decodeErr(StageInflate, err)
	}

	if !utf8.Valid(data) {
		return nil, decodeErr(StageUTF8, errors.New("payload is not valid UTF-8"))
	}
	return data, nil
}

// EncodeDataset encodes the share payload for ds.
func (c *Codec) EncodeDataset(ctx context.Context, ds core.Dataset) (string, error) {
	return c.Encode(ctx, core.NewSharePayload(ds))
}

// DecodeDataset decodes a token produced by EncodeDataset and checks that the
// required fields are present. An empty rows or columns array is accepted;
// a missing or null one is not.
func (c *Codec) DecodeDataset(ctx context.Context, token string) (*core.SharePayload, error) {
	data, err := c.decodeBytes(ctx, token)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, decodeErr(StageJSON, err)
	}
	for _, field := range []string{"columns", "rows"} {
		v, ok := raw[field]
		if !ok || bytes.Equal(bytes.TrimSpace(v), []byte("null")) {
			return nil, decodeErr(StageValidate, fmt.Errorf("missing required field %q", field))
		}
	}

	var p core.SharePayload
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, decodeErr(StageValidate, err)
	}
	if p.SortRules == nil {
		p.SortRules = []core.SortRule{}
	}
	return &p, nil
}
