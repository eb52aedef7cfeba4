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

package filter_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/mechiko/pdfexec/pkg/filter"
)

// Encode a test string twice with same filter
// then decode the result twice to get back to the original string.
func encodeDecodeUsingFilterNamed(t *testing.T, filterName string) {

	f, err := filter.NewFilter(filterName, nil)
	if err != nil {
		t.Fatalf("Problem: %v\n", err)
	}

	input := "Hello, Gopher!"
	t.Logf("encoding using filter %s: len:%d % X <%s>\n", filterName, len(input), input, input)

	r := strings.NewReader(input)

	b1, err := f.Encode(r)
	if err != nil {
		t.Fatalf("Problem encoding 1: %v\n", err)
	}

	encoded1, err := io.ReadAll(b1)
	if err != nil {
		t.Fatalf("Problem buffering encoded 1: %v\n", err)
	}

	b2, err := f.Encode(bytes.NewReader(encoded1))
	if err != nil {
		t.Fatalf("Problem encoding 2: %v\n", err)
	}

	c1, err := f.Decode(b2)
	if err != nil {
		t.Fatalf("Problem decoding 2: %v\n", err)
	}

	decoded1, err := io.ReadAll(c1)
	if err != nil {
		t.Fatalf("Problem buffering decoded 1: %v\n", err)
	}

	c2, err := f.Decode(bytes.NewReader(decoded1))
	if err != nil {
		t.Fatalf("Problem decoding 1: %v\n", err)
	}

	decoded2, err := io.ReadAll(c2)
	if err != nil {
		t.Fatalf("Problem buffering decoded 2: %v\n", err)
	}

	if input != string(decoded2) {
		t.Fatalf("original content != decoded content: %q != %q", input, string(decoded2))
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, f := range filter.List() {
		encodeDecodeUsingFilterNamed(t, f)
	}
}

func TestNewFilterRejectsUnsupported(t *testing.T) {
	if _, err := filter.NewFilter(filter.DCT, nil); err != filter.ErrUnsupportedFilter {
		t.Fatalf("expected ErrUnsupportedFilter for an image codec, got %v", err)
	}
}
