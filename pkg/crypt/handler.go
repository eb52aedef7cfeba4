package crypt

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"

	"github.com/mechiko/pdfexec/pkg/perrors"
	"github.com/mechiko/pdfexec/pkg/types"
	"github.com/pkg/errors"
	"golang.org/x/crypto/rc4"
)

// pad is the fixed 32-byte password-padding string, PDF 32000-1 §7.6.3.3
// Algorithm 2 step (a).
var pad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

// cipherKind distinguishes the two crypt filter methods this handler
// supports (the Encrypt dict's CF/StdCF/CFM entry, or its absence for a
// pre-V4 all-RC4 document).
type cipherKind int

const (
	cipherRC4 cipherKind = iota
	cipherAESV2
)

// StandardSecurityHandler implements Encryptor for the PDF standard
// security handler, revisions 2 through 4 (RC4 40/128-bit, or AESV2
// 128-bit CBC — spec's "opaque encryption state").
//
// Grounded on pdfcpu's pkg/pdfcpu/crypto.go: fileKey is encKey's `key`
// return value, cipher is taken from the CF/StmF/StrF entries instead of
// always RC4 (pdfcpu's older crypto/crypto.go predates crypt filters).
type StandardSecurityHandler struct {
	fileKey []byte
	cipher  cipherKind
	r       int // Encrypt dict's /R (algorithm revision: 2, 3 or 4)
}

// EncryptParams is the subset of the Encrypt dictionary and trailer
// needed to authenticate and derive the file key (PDF 32000-1 Table 20
// plus the trailer's /ID first element).
type EncryptParams struct {
	O, U        []byte
	P           int32
	R           int
	Length      int  // key length in bits; defaults to 40 if zero
	EncryptMeta bool // /EncryptMetadata, default true
	ID          []byte
	AES         bool // StdCF's /CFM is /AESV2 rather than /V2
}

// ParseEncryptDict reads the fields NewStandardSecurityHandler needs out
// of a decoded Encrypt dictionary plus the trailer's /ID[0].
func ParseEncryptDict(d types.Dict, id []byte) (EncryptParams, error) {
	var p EncryptParams
	p.ID = id
	p.EncryptMeta = true
	p.Length = 40

	o, err := extractBytes(d, "O")
	if err != nil {
		return p, err
	}
	u, err := extractBytes(d, "U")
	if err != nil {
		return p, err
	}
	p.O, p.U = o, u

	if v, err := d.ExtractHash("P"); err == nil && v != nil {
		if i, ok := v.(types.Integer); ok {
			p.P = int32(i)
		}
	}
	if v, err := d.ExtractHash("R"); err == nil && v != nil {
		if i, ok := v.(types.Integer); ok {
			p.R = int(i)
		}
	}
	if v, err := d.ExtractHash("Length"); err == nil && v != nil {
		if i, ok := v.(types.Integer); ok {
			p.Length = int(i)
		}
	}
	if v, err := d.ExtractHash("EncryptMetadata"); err == nil && v != nil {
		if b, ok := v.(types.Boolean); ok {
			p.EncryptMeta = bool(b)
		}
	}

	if cfName, err := extractName(d, "StmF"); err == nil && cfName == "StdCF" {
		if cf, err := d.ExtractHash("CF"); err == nil && cf != nil {
			if cfDict, ok := cf.(types.Dict); ok {
				if stdCF, err := cfDict.ExtractHash("StdCF"); err == nil && stdCF != nil {
					if stdDict, ok := stdCF.(types.Dict); ok {
						if cfm, err := extractName(stdDict, "CFM"); err == nil && cfm == "AESV2" {
							p.AES = true
						}
					}
				}
			}
		}
	}

	if p.O == nil || p.U == nil || p.R < 2 || p.R > 4 {
		return p, perrors.New("parse_encrypt_dict", perrors.Undefined, "unsupported or incomplete Encrypt dictionary (R=%d)", p.R)
	}
	return p, nil
}

func extractBytes(d types.Dict, key string) ([]byte, error) {
	v, err := d.ExtractHash(key)
	if err != nil || v == nil {
		return nil, err
	}
	switch o := v.(type) {
	case types.HexLiteral:
		return []byte(o), nil
	case types.StringLiteral:
		return []byte(o), nil
	default:
		return nil, perrors.New("parse_encrypt_dict", perrors.TypeCheck, "%s: expected a string, got %T", key, v)
	}
}

func extractName(d types.Dict, key string) (string, error) {
	v, err := d.ExtractHash(key)
	if err != nil || v == nil {
		return "", err
	}
	n, ok := v.(types.Name)
	if !ok {
		return "", perrors.New("parse_encrypt_dict", perrors.TypeCheck, "%s: expected a name, got %T", key, v)
	}
	return string(n), nil
}

// Authenticate parses an Encrypt dictionary, then tries the empty user
// password followed by userPassword (PDF 32000-1 §7.6.4.3.3's "open
// without a password" convention — most encrypted PDFs restrict
// permissions rather than requiring one), returning a ready Encryptor on
// the first password that validates against /U.
func Authenticate(d types.Dict, id []byte, userPassword string) (Encryptor, error) {
	p, err := ParseEncryptDict(d, id)
	if err != nil {
		return nil, err
	}

	for _, candidate := range []string{"", userPassword} {
		h, ok, err := NewStandardSecurityHandler(p, candidate)
		if err != nil {
			return nil, err
		}
		if ok {
			return h, nil
		}
	}
	return nil, perrors.New("authenticate", perrors.InvalidAccess, "user password does not match /U")
}

// NewStandardSecurityHandler derives the file encryption key for the
// supplied userPassword only (Algorithm 2), then validates it against /U
// (Algorithm 4/5) and reports the outcome as ok. Trying the empty
// password first is Authenticate's job, not this function's.
// Grounded on pdfcpu's encKey + validateUserPassword (pkg/pdfcpu/crypto.go).
func NewStandardSecurityHandler(p EncryptParams, userPassword string) (*StandardSecurityHandler, bool, error) {
	key := fileKey(userPassword, p)

	u, err := computeU(p, key)
	if err != nil {
		return nil, false, err
	}

	var ok bool
	switch p.R {
	case 2:
		ok = bytes.Equal(p.U, u)
	case 3, 4:
		ok = len(p.U) >= 16 && len(u) >= 16 && bytes.Equal(p.U[:16], u[:16])
	}

	kind := cipherRC4
	if p.AES {
		kind = cipherAESV2
	}

	h := &StandardSecurityHandler{fileKey: key, cipher: kind, r: p.R}
	return h, ok, nil
}

// fileKey computes the RC4/AESV2 file encryption key (Algorithm 2).
func fileKey(password string, p EncryptParams) []byte {
	pw := append([]byte(password), pad...)[:32]

	h := md5.New()
	h.Write(pw)
	h.Write(p.O)

	q := uint32(p.P)
	h.Write([]byte{byte(q), byte(q >> 8), byte(q >> 16), byte(q >> 24)})
	h.Write(p.ID)

	if p.R >= 4 && !p.EncryptMeta {
		h.Write([]byte{0xff, 0xff, 0xff, 0xff})
	}

	key := h.Sum(nil)

	n := p.Length / 8
	if n == 0 {
		n = 5
	}
	if p.R >= 3 {
		for i := 0; i < 50; i++ {
			h.Reset()
			h.Write(key[:n])
			key = h.Sum(nil)
		}
		return key[:n]
	}
	return key[:5]
}

// computeU computes the /U entry's expected value for key (Algorithm 4/5).
func computeU(p EncryptParams, key []byte) ([]byte, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}

	if p.R == 2 {
		u := make([]byte, 32)
		copy(u, pad)
		c.XORKeyStream(u, u)
		return u, nil
	}

	h := md5.New()
	h.Write(pad)
	h.Write(p.ID)
	u := h.Sum(nil)
	c.XORKeyStream(u, u)

	for i := 1; i <= 19; i++ {
		ik := make([]byte, len(key))
		copy(ik, key)
		for j := range ik {
			ik[j] ^= byte(i)
		}
		ic, err := rc4.NewCipher(ik)
		if err != nil {
			return nil, err
		}
		ic.XORKeyStream(u, u)
	}
	return u, nil
}

// objectKey derives the per-object RC4/AES key (Algorithm 1): the file
// key extended with the low 3 bytes of objNum and low 2 bytes of gen,
// plus a fixed "sAlT" suffix for AES, MD5-hashed and truncated to
// len(fileKey)+5 (capped at 16).
func (h *StandardSecurityHandler) objectKey(objNum, gen int32) []byte {
	m := md5.New()
	m.Write(h.fileKey)
	m.Write([]byte{byte(objNum), byte(objNum >> 8), byte(objNum >> 16)})
	m.Write([]byte{byte(gen), byte(gen >> 8)})
	if h.cipher == cipherAESV2 {
		m.Write([]byte("sAlT"))
	}
	dk := m.Sum(nil)

	n := len(h.fileKey) + 5
	if n > 16 {
		n = 16
	}
	return dk[:n]
}

func (h *StandardSecurityHandler) decrypt(objNum, gen int32, buf []byte) ([]byte, error) {
	key := h.objectKey(objNum, gen)
	if h.cipher == cipherAESV2 {
		return decryptAESCBC(buf, key)
	}
	return applyRC4(buf, key)
}

// DecryptStream implements Encryptor.
func (h *StandardSecurityHandler) DecryptStream(objNum, gen int32, buf []byte) ([]byte, error) {
	return h.decrypt(objNum, gen, buf)
}

// DecryptString implements Encryptor.
func (h *StandardSecurityHandler) DecryptString(objNum, gen int32, raw []byte) ([]byte, error) {
	return h.decrypt(objNum, gen, raw)
}

func applyRC4(buf, key []byte) ([]byte, error) {
	c, err := rc4.NewCipher(key)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(buf))
	c.XORKeyStream(out, buf)
	return out, nil
}

func decryptAESCBC(buf, key []byte) ([]byte, error) {
	if len(buf) < aes.BlockSize {
		// Empty or truncated ciphertext decodes to nothing rather than
		// failing the whole object load.
		return nil, nil
	}
	if len(buf)%aes.BlockSize != 0 {
		return nil, perrors.New("decrypt_stream", perrors.RangeCheck, "AES ciphertext length %d not a multiple of the block size", len(buf))
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "decrypt_stream: aes.NewCipher")
	}

	iv := buf[:aes.BlockSize]
	data := make([]byte, len(buf)-aes.BlockSize)
	copy(data, buf[aes.BlockSize:])

	cipher.NewCBCDecrypter(block, iv).CryptBlocks(data, data)

	// Strip PKCS#7 padding.
	if n := len(data); n > 0 {
		if padLen := int(data[n-1]); padLen > 0 && padLen <= aes.BlockSize && padLen <= n {
			data = data[:n-padLen]
		}
	}
	return data, nil
}
