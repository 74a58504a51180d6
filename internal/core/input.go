package core

// input.go prepares pasted or uploaded text for Parse.
//
// Text copied out of Windows tools frequently starts with a UTF-8 BOM and
// occasionally carries bytes from a legacy code page. Both would otherwise
// leak into the first header name or into cell values:
//
//   - BOMSkippingReader drops a leading 0xEF 0xBB 0xBF
//   - ReadInput enforces a byte limit and replaces invalid UTF-8 with U+FFFD

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrInputTooLarge is returned by ReadInput when the input exceeds the limit.
var ErrInputTooLarge = errors.New("input too large")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BOMSkippingReader wraps an io.Reader and skips the UTF-8 BOM if present.
type BOMSkippingReader struct {
	reader  io.Reader
	checked bool
	pending []byte // bytes read while probing that were not a BOM
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{reader: r}
}

// Read implements io.Reader. The first call checks for and drops the BOM.
func (r *BOMSkippingReader) Read(p []byte) (int, error) {
	if !r.checked {
		r.checked = true

		var head [3]byte
		n, err := io.ReadFull(r.reader, head[:])
		if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
			return 0, err
		}
		if !(n == 3 && bytes.Equal(head[:], utf8BOM)) {
			r.pending = append(r.pending, head[:n]...)
		}
	}

	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}

	return r.reader.Read(p)
}

// ReadInput reads all of r into a string suitable for Parse.
// A limit <= 0 disables the size check.
func ReadInput(r io.Reader, limit int64) (string, error) {
	src := io.Reader(NewBOMSkippingReader(r))
	if limit > 0 {
		src = io.LimitReader(src, limit+1)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return "", fmt.Errorf("%w: exceeds %d bytes", ErrInputTooLarge, limit)
	}

	return strings.ToValidUTF8(string(data), "�"), nil
}
