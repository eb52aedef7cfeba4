package filter

import (
	"bytes"
	"encoding/hex"
	"io"
	"math/rand"
	"testing"
)

func compareBytes(t *testing.T, a, b []byte) {
	t.Helper()
	if len(a) != len(b) {
		t.Fatalf("length mismatch %d != %d\na:\n%sb:\n%s", len(a), len(b), hex.Dump(a), hex.Dump(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("mismatch at byte %d: 0x%02x != 0x%02x\na:\n%sb:\n%s", i, a[i], b[i], hex.Dump(a), hex.Dump(b))
		}
	}
}

func TestRunLengthEncodeDecode(t *testing.T) {
	f := runLengthDecode{baseFilter{}}

	for _, tt := range []struct{ raw, enc string }{
		{"\x01", "\x00\x01\x80"},
		{"\x01\x01", "\xFF\x01\x80"},
		{"\x00\x00\x02\x02", "\xFF\x00\xFF\x02\x80"},
		{"\x00\x00\x00", "\xFE\x00\x80"},
		{"\x00\x00\x00\x01", "\xFE\x00\x00\x01\x80"},
		{"\x00\x00\x00\x00", "\xFD\x00\x80"},
		{"\x00\x00\x00\x00\x00", "\xFC\x00\x80"},
		{"\x00\x00\x01", "\xFF\x00\x00\x01\x80"},
		{"\x00\x01", "\x01\x00\x01\x80"},
		{"\x00\x01\x02", "\x02\x00\x01\x02\x80"},
		{"\x00\x01\x02\x03", "\x03\x00\x01\x02\x03\x80"},
		{"\x00\x01\x02\x03\x02", "\x04\x00\x01\x02\x03\x02\x80"},
		{"\x00\x01\x01", "\x00\x00\xFF\x01\x80"},
		{"\x00\x01\x01\x01", "\x00\x00\xFE\x01\x80"},
		{"\x00\x00\x01\x02\x00\x00", "\xFF\x00\x01\x01\x02\xFF\x00\x80"},
	} {
		var enc bytes.Buffer
		f.encode(&enc, []byte(tt.raw))
		compareBytes(t, enc.Bytes(), []byte(tt.enc))

		var raw bytes.Buffer
		if err := f.decode(&raw, &enc); err != nil {
			t.Fatalf("decode %q: %v", tt.raw, err)
		}
		compareBytes(t, raw.Bytes(), []byte(tt.raw))
	}
}

type byteReaderless struct {
	r io.Reader
}

func (b byteReaderless) Read(p []byte) (int, error) { return b.r.Read(p) }

func TestRunLengthRoundTripsRandomInput(t *testing.T) {
	input := make([]byte, 1000)
	_, _ = rand.Read(input)

	fil, err := NewFilter(RunLength, nil)
	if err != nil {
		t.Fatal(err)
	}

	encoded, err := fil.Encode(bytes.NewReader(input))
	if err != nil {
		t.Fatal(err)
	}
	filtered, err := io.ReadAll(encoded)
	if err != nil {
		t.Fatal(err)
	}

	for _, src := range []io.Reader{bytes.NewReader(filtered), byteReaderless{bytes.NewReader(filtered)}} {
		decoded, err := fil.Decode(src)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := io.ReadAll(decoded); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRunLengthRejectsDataMissingEOD(t *testing.T) {
	for i := 0; i < 50; i++ {
		input := make([]byte, 20)
		_, _ = rand.Read(input)
		input = bytes.ReplaceAll(input, []byte{eodRunLength}, []byte{eodRunLength - 1})

		fil, err := NewFilter(RunLength, nil)
		if err != nil {
			t.Fatal(err)
		}

		if _, err := fil.Decode(bytes.NewReader(input)); err == nil {
			t.Fatalf("expected error decoding EOD-less data %x", input)
		}
		if _, err := fil.Decode(byteReaderless{bytes.NewReader(input)}); err == nil {
			t.Fatalf("expected error decoding EOD-less data via a non-ByteReader %x", input)
		}
	}
}

func TestASCII85RejectsMissingEOD(t *testing.T) {
	f := ascii85Decode{baseFilter{}}
	if _, err := f.Decode(bytes.NewReader([]byte("not base85 terminated"))); err == nil {
		t.Fatal("expected an error for input missing the ~> marker")
	}
}

func TestASCIIHexDecodeSkipsWhitespaceAndPadsOddLength(t *testing.T) {
	f := asciiHexDecode{baseFilter{}}
	out, err := f.Decode(bytes.NewReader([]byte("48 65\n6C6C6F7>ignored")))
	if err != nil {
		t.Fatal(err)
	}
	got, err := io.ReadAll(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "Hellop" {
		t.Fatalf("got %q, want %q", got, "Hellop")
	}
}
