package wire

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte{0, 7, 100, 255, 170, 0}, 4096)
	prefix := []byte("hdr")

	c, err := Compress(append([]byte(nil), prefix...), data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(c, prefix) {
		t.Fatalf("prefix lost: %q", c[:3])
	}
	if len(c) >= len(data) {
		t.Errorf("compressed %d bytes into %d", len(data), len(c))
	}

	got, err := Decompress(c[len(prefix):])
	if err != nil {
		t.Fatal(err)
	}
	if d := cmp.Diff(data, got); d != "" {
		t.Errorf("payload mismatch (-want +got):\n%s", d)
	}
}

func TestDecompressCorrupt(t *testing.T) {
	_, err := Decompress([]byte("definitely not zstd"))
	if !errors.Is(err, ErrCorrupt) {
		t.Errorf("err = %v, want ErrCorrupt", err)
	}
}

func TestCompressTooLarge(t *testing.T) {
	if _, err := Compress(nil, make([]byte, MaxPayload+1)); err == nil {
		t.Error("want error for an oversized payload")
	}
}
