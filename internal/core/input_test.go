package core

import (
	"errors"
	"strings"
	"testing"
	"testing/iotest"
)

func TestReadInput(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		limit   int64
		want    string
		wantErr error
	}{
		{name: "plain", in: "a,b\n1,2", want: "a,b\n1,2"},
		{name: "bom stripped", in: "\xEF\xBB\xBFName\nx", want: "Name\nx"},
		{name: "short input", in: "ab", want: "ab"},
		{name: "empty", in: "", want: ""},
		{name: "invalid utf8 replaced", in: "caf\xE9", want: "caf�"},
		{name: "at limit", in: "12345", limit: 5, want: "12345"},
		{name: "bom not counted", in: "\xEF\xBB\xBF12345", limit: 5, want: "12345"},
		{name: "over limit", in: "123456", limit: 5, wantErr: ErrInputTooLarge},
		{name: "no limit", in: strings.Repeat("x", 1000), limit: 0, want: strings.Repeat("x", 1000)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ReadInput(strings.NewReader(tt.in), tt.limit)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadInput() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadInput() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ReadInput() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadInput_OneByteReader(t *testing.T) {
	got, err := ReadInput(iotest.OneByteReader(strings.NewReader("\xEF\xBB\xBFa,b\n1,2")), 0)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a,b\n1,2" {
		t.Errorf("ReadInput() = %q", got)
	}
}

func TestReadInput_ReaderError(t *testing.T) {
	boom := errors.New("boom")
	if _, err := ReadInput(iotest.ErrReader(boom), 0); !errors.Is(err, boom) {
		t.Errorf("ReadInput() error = %v, want %v", err, boom)
	}
}
