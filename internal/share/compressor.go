package share

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
)

// ErrInflateLimit is returned when decompressed output would exceed the
// compressor's limit.
var ErrInflateLimit = errors.New("decompressed data exceeds limit")

// ErrTrailingData is returned when bytes follow the end of the zlib stream.
var ErrTrailingData = errors.New("data after end of compressed stream")

// TextCompressor is the compression capability the codec depends on.
// Implementations must be safe for concurrent use.
type TextCompressor interface {
	Deflate(ctx context.Context, data []byte) ([]byte, error)
	Inflate(ctx context.Context, data []byte) ([]byte, error)
}

// ZlibCompressor produces zlib-wrapped deflate streams, the format browsers
// emit for CompressionStream("deflate"). Tokens are therefore interchangeable
// with links generated client-side.
type ZlibCompressor struct {
	// Level is the zlib compression level. Zero means zlib.BestCompression.
	Level int

	// MaxInflated caps the size of Inflate's output. Zero means no cap.
	MaxInflated int64
}

// NewZlibCompressor returns a compressor using best compression and the given
// inflate cap.
func NewZlibCompressor(maxInflated int64) *ZlibCompressor {
	return &ZlibCompressor{Level: zlib.BestCompression, MaxInflated: maxInflated}
}

// Deflate compresses data.
func (z *ZlibCompressor) Deflate(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	level := z.Level
	if level == 0 {
		level = zlib.BestCompression
	}

	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("deflate: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("deflate: %w", err)
	}
	return buf.Bytes(), nil
}

// Inflate decompresses a zlib stream, verifying its checksum. The stream must
// span all of data.
func (z *ZlibCompressor) Inflate(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// bytes.Reader is an io.ByteReader, so the decompressor reads from it
	// directly and whatever it leaves unread is trailing data.
	in := bytes.NewReader(data)
	r, err := zlib.NewReader(in)
	if err != nil {
		return nil, fmt.Errorf("zlib header: %w", err)
	}
	defer r.Close()

	var src io.Reader = &ctxReader{ctx: ctx, r: r}
	if z.MaxInflated > 0 {
		src = io.LimitReader(src, z.MaxInflated+1)
	}

	out, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("inflate: %w", err)
	}
	if z.MaxInflated > 0 && int64(len(out)) > z.MaxInflated {
		return nil, fmt.Errorf("%w (%d bytes)", ErrInflateLimit, z.MaxInflated)
	}
	if in.Len() > 0 {
		return nil, fmt.Errorf("%w (%d bytes)", ErrTrailingData, in.Len())
	}
	return out, nil
}

// ctxReader stops reading once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
