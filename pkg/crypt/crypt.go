// Package crypt implements the standard security handler (PDF 32000-1
// §7.6): RC4 and AESV2 stream/string decryption for encrypted documents.
//
// spec §3 describes the execution context's encryption state as "opaque
// to the core" — the core calls through an Encryptor to decrypt a stream
// or string at the point it is loaded, but never touches the key
// schedule or cipher math itself. Grounded on pdfcpu's
// pkg/pdfcpu/crypto.go (encKey, the U/O password algorithms, decryptKey,
// decryptBytes/decryptStream), trimmed to the R2-R4/V1/V2/V4 revisions:
// the AES-256/R5/R6 handler (SHA-256-based, a different key-derivation
// algorithm entirely) is out of scope — nothing in this core's spec
// names it, and it would double the package for a path this exercise
// never drives.
package crypt

// Encryptor decrypts stream and string data belonging to an indirect
// object, keyed by that object's number and generation (PDF 32000-1
// Algorithm 1: the per-object key is derived from the file key plus
// objNum/gen). ExecutionContext holds one of these behind the interface;
// pkg/exec never sees the concrete handler or its key material.
type Encryptor interface {
	// DecryptStream decrypts a stream's raw bytes and returns the
	// plaintext in a new buffer; buf itself is left unchanged.
	DecryptStream(objNum, gen int32, buf []byte) ([]byte, error)
	// DecryptString decrypts a string or hex-string literal's raw bytes
	// (StringLiteral/HexLiteral already hold the raw, unescaped bytes —
	// see pkg/types/object.go) and returns the plaintext bytes.
	DecryptString(objNum, gen int32, raw []byte) ([]byte, error)
}

// NopEncryptor is the Encryptor for an unencrypted document: every
// operation returns its input unchanged. ExecutionContext uses this
// instead of a nil Encryptor so callers never need a nil check.
type NopEncryptor struct{}

func (NopEncryptor) DecryptStream(_, _ int32, buf []byte) ([]byte, error) { return buf, nil }
func (NopEncryptor) DecryptString(_, _ int32, raw []byte) ([]byte, error) { return raw, nil }
