package share

import (
	"bytes"
	"compress/zlib"
	"context"
	"encoding/base64"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/JonMunkholm/sortly/internal/core"
)

// rawToken builds a token around arbitrary bytes, skipping JSON encoding.
func rawToken(t *testing.T, data []byte) string {
	t.Helper()
	compressed, err := NewZlibCompressor(0).Deflate(context.Background(), data)
	if err != nil {
		t.Fatal(err)
	}
	return strings.TrimRight(encoding.EncodeToString(compressed), "=")
}

func isURLSafe(token string) bool {
	for _, r := range token {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_') {
			return false
		}
	}
	return true
}

func TestCodec_DatasetRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload core.SharePayload
	}{
		{
			name: "simple",
			payload: core.SharePayload{
				Columns:   []string{"Name", "Age"},
				Rows:      []core.Row{{"Name": "Alice", "Age": "30"}, {"Name": "Bob", "Age": "25"}},
				SortRules: []core.SortRule{{Column: "Age", Direction: core.Desc, Type: core.SortNumeric}},
				Label:     "Team",
			},
		},
		{
			name: "unicode",
			payload: core.SharePayload{
				Columns:   []string{"名前", "emoji"},
				Rows:      []core.Row{{"名前": "日本語", "emoji": "🎉👍🏽"}, {"名前": "Zoë", "emoji": "<script>&"}},
				SortRules: []core.SortRule{},
				Label:     "Ünïcödé",
			},
		},
		{
			name: "empties",
			payload: core.SharePayload{
				Columns:   []string{},
				Rows:      []core.Row{},
				SortRules: []core.SortRule{},
			},
		},
		{
			name: "empty cells",
			payload: core.SharePayload{
				Columns:   []string{"a", "b"},
				Rows:      []core.Row{{"a": "", "b": ""}},
				SortRules: []core.SortRule{},
			},
		},
	}

	codec := NewCodec(nil)
	ctx := context.Background()

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := codec.Encode(ctx, tt.payload)
			if err != nil {
				t.Fatalf("Encode() error: %v", err)
			}
			if !isURLSafe(token) {
				t.Errorf("token %q is not URL safe", token)
			}

			got, err := codec.DecodeDataset(ctx, token)
			if err != nil {
				t.Fatalf("DecodeDataset() error: %v", err)
			}
			if !reflect.DeepEqual(*got, tt.payload) {
				t.Errorf("round trip = %+v, want %+v", *got, tt.payload)
			}
		})
	}
}

func TestCodec_NestedRoundTrip(t *testing.T) {
	type inner struct {
		Tags  []string          `json:"tags"`
		Attrs map[string]string `json:"attrs"`
	}
	type outer struct {
		Name  string  `json:"name"`
		Items []inner `json:"items"`
		Empty []int   `json:"empty"`
		Ptr   *inner  `json:"ptr"`
	}

	in := outer{
		Name: "ß ∑ 🙂",
		Items: []inner{
			{Tags: []string{"a", ""}, Attrs: map[string]string{"k": "v", "é": "\u0000"}},
			{Tags: []string{}, Attrs: map[string]string{}},
		},
		Empty: []int{},
	}

	codec := NewCodec(nil)
	token, err := codec.Encode(context.Background(), in)
	if err != nil {
		t.Fatal(err)
	}

	var out outer
	if err := codec.Decode(context.Background(), token, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(out, in) {
		t.Errorf("round trip = %+v, want %+v", out, in)
	}
}

func TestCodec_DeterministicAndPadded(t *testing.T) {
	codec := NewCodec(nil)
	p := core.SharePayload{
		Columns:   []string{"b", "a"},
		Rows:      []core.Row{{"b": "1", "a": "2"}},
		SortRules: []core.SortRule{},
	}

	first, err := codec.Encode(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	second, err := codec.Encode(context.Background(), p)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("equal payloads produced different tokens")
	}
	if strings.Contains(first, "=") {
		t.Errorf("token %q contains padding", first)
	}
}

func TestCodec_DecodeFailures(t *testing.T) {
	valid, err := NewCodec(nil).Encode(context.Background(), core.SharePayload{
		Columns:   []string{"a"},
		Rows:      []core.Row{{"a": "1"}},
		SortRules: []core.SortRule{},
	})
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name      string
		token     string
		wantStage string
	}{
		{name: "empty", token: "", wantStage: StageBase64},
		{name: "not base64", token: "not-a-token!", wantStage: StageBase64},
		{name: "truncated", token: valid[:len(valid)-6], wantStage: ""},
		{name: "appended data", token: valid + "AAAA", wantStage: StageInflate},
		{name: "not zlib", token: strings.TrimRight(base64.URLEncoding.EncodeToString([]byte("hello world")), "="), wantStage: StageInflate},
		{name: "not utf8", token: rawToken(t, []byte{0xff, 0xfe, 0xfd}), wantStage: StageUTF8},
		{name: "not json", token: rawToken(t, []byte("columns: a")), wantStage: StageJSON},
		{name: "trailing json", token: rawToken(t, []byte(`{"columns":[],"rows":[]} {}`)), wantStage: StageJSON},
		{name: "missing rows", token: rawToken(t, []byte(`{"columns":["a"]}`)), wantStage: StageValidate},
		{name: "null columns", token: rawToken(t, []byte(`{"columns":null,"rows":[]}`)), wantStage: StageValidate},
		{name: "wrong types", token: rawToken(t, []byte(`{"columns":"a","rows":[]}`)), wantStage: StageValidate},
	}

	codec := NewCodec(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := codec.DecodeDataset(context.Background(), tt.token)
			if got != nil {
				t.Errorf("DecodeDataset() returned a partial result: %+v", got)
			}
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("DecodeDataset() error = %v, want ErrDecode", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("error %T is not a *DecodeError", err)
			}
			if tt.wantStage != "" && de.Stage != tt.wantStage {
				t.Errorf("stage = %q, want %q (%v)", de.Stage, tt.wantStage, err)
			}
		})
	}
}

func TestCodec_CorruptedByteIsDetected(t *testing.T) {
	codec := NewCodec(nil)
	token, err := codec.Encode(context.Background(), core.SharePayload{
		Columns:   []string{"Name"},
		Rows:      []core.Row{{"Name": strings.Repeat("alpha beta gamma ", 20)}},
		SortRules: []core.SortRule{},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Flip one character in the middle of the token.
	b := []byte(token)
	mid := len(b) / 2
	if b[mid] == 'A' {
		b[mid] = 'B'
	} else {
		b[mid] = 'A'
	}

	if _, err := codec.DecodeDataset(context.Background(), string(b)); !errors.Is(err, ErrDecode) {
		t.Errorf("corrupted token error = %v, want ErrDecode", err)
	}
}

func TestZlibCompressor_RejectsTrailingData(t *testing.T) {
	z := NewZlibCompressor(0)
	ctx := context.Background()
	compressed, err := z.Deflate(ctx, []byte(`{"columns":[],"rows":[]}`))
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{name: "exact stream", data: compressed},
		{name: "one extra byte", data: append(append([]byte{}, compressed...), 0), wantErr: ErrTrailingData},
		{name: "second stream", data: append(append([]byte{}, compressed...), compressed...), wantErr: ErrTrailingData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := z.Inflate(ctx, tt.data)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Inflate() error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Inflate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCodec_DecodeMissingRulesDefaultsEmpty(t *testing.T) {
	got, err := NewCodec(nil).DecodeDataset(context.Background(), rawToken(t, []byte(`{"columns":[],"rows":[]}`)))
	if err != nil {
		t.Fatal(err)
	}
	if got.SortRules == nil || len(got.SortRules) != 0 {
		t.Errorf("SortRules = %#v, want empty slice", got.SortRules)
	}
}

func TestCodec_AcceptsStandardZlib(t *testing.T) {
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	if _, err := w.Write([]byte(`{"columns":["x"],"rows":[{"x":"1"}],"sortRules":[]}`)); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	token := base64.RawURLEncoding.EncodeToString(buf.Bytes())

	got, err := NewCodec(nil).DecodeDataset(context.Background(), token)
	if err != nil {
		t.Fatalf("DecodeDataset() error: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0]["x"] != "1" {
		t.Errorf("rows = %+v", got.Rows)
	}
}

func TestCodec_Limits(t *testing.T) {
	payload := core.SharePayload{
		Columns:   []string{"a"},
		Rows:      []core.Row{{"a": strings.Repeat("x", 200)}},
		SortRules: []core.SortRule{},
	}

	small := NewCodec(nil, WithMaxPayload(64))
	if _, err := small.Encode(context.Background(), payload); !errors.Is(err, ErrPayloadTooLarge) {
		t.Errorf("Encode() over limit error = %v, want ErrPayloadTooLarge", err)
	}

	token, err := NewCodec(nil).Encode(context.Background(), payload)
	if err != nil {
		t.Fatal(err)
	}
	capped := NewCodec(NewZlibCompressor(100))
	_, err = capped.DecodeDataset(context.Background(), token)
	if !errors.Is(err, ErrDecode) || !errors.Is(err, ErrInflateLimit) {
		t.Errorf("DecodeDataset() over inflate cap error = %v, want ErrDecode and ErrInflateLimit", err)
	}
}

func TestCodec_Canceled(t *testing.T) {
	codec := NewCodec(nil)
	token, err := codec.Encode(context.Background(), core.SharePayload{Columns: []string{}, Rows: []core.Row{}})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := codec.Encode(ctx, core.SharePayload{}); !errors.Is(err, context.Canceled) {
		t.Errorf("Encode(canceled) error = %v, want context.Canceled", err)
	}
	_, err = codec.DecodeDataset(ctx, token)
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrDecode) {
		t.Errorf("DecodeDataset(canceled) error = %v, want context.Canceled only", err)
	}
}

func TestCodec_EncodeDataset(t *testing.T) {
	codec := NewCodec(nil)
	ds := core.Dataset{
		Columns:   []string{"n"},
		Rows:      []core.Row{{"n": "1"}},
		Label:     "L",
		CreatedAt: 42,
	}
	token, err := codec.EncodeDataset(context.Background(), ds)
	if err != nil {
		t.Fatal(err)
	}
	got, err := codec.DecodeDataset(context.Background(), token)
	if err != nil {
		t.Fatal(err)
	}
	want := core.SharePayload{Columns: ds.Columns, Rows: ds.Rows, SortRules: []core.SortRule{}, Label: "L"}
	if !reflect.DeepEqual(*got, want) {
		t.Errorf("DecodeDataset() = %+v, want %+v", *got, want)
	}
}
