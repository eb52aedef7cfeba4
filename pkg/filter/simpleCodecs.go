/*
Copyright 2018 The pdfcpu Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package filter

// The three filters in this file have no algorithmic state worth a file of
// their own (Component D, spec §4.D): ASCII85/ASCIIHex are a straight
// stdlib encoding plus an EOD marker, and RunLength is a small byte-level
// RLE. Grouped together rather than one file apiece.

import (
	"bufio"
	"bytes"
	"encoding/ascii85"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
)

type ascii85Decode struct {
	baseFilter
}

const eodASCII85 = "~>"

// Encode implements encoding for an ASCII85Decode filter.
func (f ascii85Decode) Encode(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	enc := ascii85.NewEncoder(&buf)
	if _, err := enc.Write(raw); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteString(eodASCII85)

	return &buf, nil
}

// Decode implements decoding for an ASCII85Decode filter.
func (f ascii85Decode) Decode(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if !bytes.HasSuffix(raw, []byte(eodASCII85)) {
		return nil, errors.New("pdfexec: ascii85Decode: missing eod marker")
	}
	raw = raw[:len(raw)-len(eodASCII85)]

	out, err := io.ReadAll(ascii85.NewDecoder(bytes.NewReader(raw)))
	if err != nil {
		return nil, err
	}
	return bytes.NewBuffer(out), nil
}

type asciiHexDecode struct {
	baseFilter
}

const eodHex = '>'

func isHexWhitespace(b byte) bool {
	switch b {
	case 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

// Encode implements encoding for an ASCIIHexDecode filter.
func (f asciiHexDecode) Encode(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, hex.EncodedLen(len(raw)), hex.EncodedLen(len(raw))+1)
	hex.Encode(dst, raw)
	dst = append(dst, eodHex)

	return bytes.NewBuffer(dst), nil
}

// Decode implements decoding for an ASCIIHexDecode filter.
func (f asciiHexDecode) Decode(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	stripped := make([]byte, 0, len(raw))
	for _, b := range raw {
		if b == eodHex {
			break
		}
		if !isHexWhitespace(b) {
			stripped = append(stripped, b)
		}
	}
	if len(stripped)%2 == 1 {
		stripped = append(stripped, '0')
	}

	dst := make([]byte, hex.DecodedLen(len(stripped)))
	if _, err := hex.Decode(dst, stripped); err != nil {
		return nil, err
	}
	return bytes.NewBuffer(dst), nil
}

type runLengthDecode struct {
	baseFilter
}

const eodRunLength = 0x80

func missingEOD(err error) error {
	if err == io.EOF {
		return errors.New("pdfexec: runLengthDecode: missing EOD marker in encoded stream")
	}
	return err
}

// decode implements the RunLengthDecode algorithm (PDF 32000-1 §7.4.5): a
// length byte under 128 copies the following length+1 literal bytes, a
// length byte over 128 repeats the single following byte 257-length times,
// and 0x80 is the end-of-data marker. An EOF before the marker is an error.
func (f runLengthDecode) decode(w io.ByteWriter, src io.ByteReader) error {
	for {
		length, err := src.ReadByte()
		if err != nil {
			return missingEOD(err)
		}
		if length == eodRunLength {
			return nil
		}
		if length < 0x80 {
			for j := 0; j <= int(length); j++ {
				b, err := src.ReadByte()
				if err != nil {
					return missingEOD(err)
				}
				w.WriteByte(b)
			}
			continue
		}
		b, err := src.ReadByte()
		if err != nil {
			return missingEOD(err)
		}
		for j := 0; j < 257-int(length); j++ {
			w.WriteByte(b)
		}
	}
}

// encode implements the reverse of decode, greedily choosing a run of
// identical bytes (encoded as a repeat) or a run of distinct bytes
// (encoded as a literal), whichever extends further, per run.
func (f runLengthDecode) encode(w io.ByteWriter, src []byte) {
	const maxRun = 0x80

	if len(src) == 0 {
		w.WriteByte(eodRunLength)
		return
	}

	i, start := 0, 0
	b := src[0]

	for {
		for i < len(src) && src[i] == b && i-start < maxRun {
			i++
		}
		if run := i - start; run > 1 {
			w.WriteByte(byte(257 - run))
			w.WriteByte(b)
			if i == len(src) {
				w.WriteByte(eodRunLength)
				return
			}
			b, start = src[i], i
			continue
		}

		for i < len(src) && src[i] != b && i-start < maxRun {
			b = src[i]
			i++
		}
		if i == len(src) || i-start == maxRun {
			run := i - start
			w.WriteByte(byte(run - 1))
			for j := 0; j < run; j++ {
				w.WriteByte(src[start+j])
			}
			if i == len(src) {
				w.WriteByte(eodRunLength)
				return
			}
		} else {
			run := i - 1 - start
			w.WriteByte(byte(run - 1))
			for j := 0; j < run; j++ {
				w.WriteByte(src[start+j])
			}
			i--
		}
		b, start = src[i], i
	}
}

// Encode implements encoding for a RunLengthDecode filter.
func (f runLengthDecode) Encode(r io.Reader) (io.Reader, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	f.encode(&buf, raw)
	return &buf, nil
}

// Decode implements decoding for a RunLengthDecode filter.
func (f runLengthDecode) Decode(r io.Reader) (io.Reader, error) {
	var buf bytes.Buffer

	br, ok := r.(io.ByteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	err := f.decode(&buf, br)
	return &buf, err
}
