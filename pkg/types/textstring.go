package types

import (
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// utf16BE is the PDF text-string encoding (PDF 32000-1 §7.9.2.2): UTF-16
// big-endian with a leading U+FEFF byte-order mark distinguishing it from
// PDFDocEncoding. Grounded on benoitkugler/pdf's model writer, which
// builds the identical codec (`unicode.UTF16(unicode.BigEndian,
// unicode.UseBOM)`) to go the other direction (UTF-8 to a PDF text
// string); DecodeTextString/EncodeTextString here are pkg/types' read and
// write sides of that same codec.
var utf16BE = unicode.UTF16(unicode.BigEndian, unicode.UseBOM)

// IsTextString reports whether raw opens with the UTF-16BE byte-order
// mark (0xFE 0xFF), the convention a StringLiteral/HexLiteral's raw bytes
// use to signal "this is UTF-16BE text", as opposed to PDFDocEncoding.
func IsTextString(raw []byte) bool {
	return len(raw) >= 2 && raw[0] == 0xFE && raw[1] == 0xFF
}

// DecodeTextString converts a UTF-16BE-with-BOM PDF text string (the raw
// bytes of a StringLiteral or HexLiteral for which IsTextString is true)
// to a UTF-8 Go string.
func DecodeTextString(raw []byte) (string, error) {
	out, _, err := transform.Bytes(utf16BE.NewDecoder(), raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// EncodeTextString converts a UTF-8 Go string to UTF-16BE-with-BOM bytes
// suitable for a PDF text string's StringLiteral/HexLiteral payload.
func EncodeTextString(s string) ([]byte, error) {
	out, _, err := transform.Bytes(utf16BE.NewEncoder(), []byte(s))
	if err != nil {
		return nil, err
	}
	return out, nil
}
