package crypt_test

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"testing"

	"github.com/mechiko/pdfexec/pkg/crypt"
	"github.com/mechiko/pdfexec/pkg/types"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/rc4"
)

var pad = []byte{
	0x28, 0xBF, 0x4E, 0x5E, 0x4E, 0x75, 0x8A, 0x41, 0x64, 0x00, 0x4E, 0x56, 0xFF, 0xFA, 0x01, 0x08,
	0x2E, 0x2E, 0x00, 0xB6, 0xD0, 0x68, 0x3E, 0x80, 0x2F, 0x0C, 0xA9, 0xFE, 0x64, 0x53, 0x69, 0x7A,
}

func rc4XOR(t *testing.T, key, buf []byte) {
	t.Helper()
	c, err := rc4.NewCipher(key)
	require.NoError(t, err)
	c.XORKeyStream(buf, buf)
}

// fixture builds a syntactically valid standard-security-handler Encrypt
// dictionary for the empty user/owner password at the given revision,
// the way a real PDF writer would have computed /O and /U ahead of time.
// It also returns the file key that derivation produces, so tests can
// build real ciphertext fixtures without reaching into crypt's
// unexported internals. This duplicates Algorithm 2/3/4 rather than
// exercising package internals, so the test exercises crypt's public
// surface only.
func fixture(t *testing.T, r int, aesCF bool) (d types.Dict, id, fileKey []byte) {
	t.Helper()
	return fixtureWithUserPassword(t, r, aesCF, "")
}

// fixtureWithUserPassword is fixture with /O, /U and the file key derived
// from userPW instead of the empty user password.
func fixtureWithUserPassword(t *testing.T, r int, aesCF bool, userPW string) (d types.Dict, id, fileKey []byte) {
	t.Helper()

	paddedUser := append([]byte(userPW), pad...)[:32]
	id = []byte("0123456789abcdef")
	length := 40
	if r >= 3 {
		length = 128
	}
	n := length / 8

	// Owner password digest /O for an empty owner password (Algorithm 3:
	// the owner key encrypts the padded user password).
	okeySum := md5.Sum(pad)
	okey := okeySum[:]
	if r >= 3 {
		for i := 0; i < 50; i++ {
			s := md5.Sum(okey)
			okey = s[:]
		}
	}
	okey = okey[:n]

	o := make([]byte, 32)
	copy(o, paddedUser)
	rc4XOR(t, okey, o)
	if r >= 3 {
		for i := 1; i <= 19; i++ {
			ik := make([]byte, len(okey))
			copy(ik, okey)
			for j := range ik {
				ik[j] ^= byte(i)
			}
			rc4XOR(t, ik, o)
		}
	}

	p := int32(-4) // all permissions granted

	// File key for the user password (Algorithm 2).
	h := md5.New()
	h.Write(paddedUser)
	h.Write(o)
	q := uint32(p)
	h.Write([]byte{byte(q), byte(q >> 8), byte(q >> 16), byte(q >> 24)})
	h.Write(id)
	fileKey = h.Sum(nil)
	if r >= 3 {
		for i := 0; i < 50; i++ {
			h.Reset()
			h.Write(fileKey[:n])
			fileKey = h.Sum(nil)
		}
		fileKey = fileKey[:n]
	} else {
		fileKey = fileKey[:5]
	}

	// /U (Algorithm 4/5).
	u := make([]byte, 32)
	if r == 2 {
		copy(u, pad)
		rc4XOR(t, fileKey, u)
	} else {
		uh := md5.New()
		uh.Write(pad)
		uh.Write(id)
		u = uh.Sum(nil)
		rc4XOR(t, fileKey, u)
		for i := 1; i <= 19; i++ {
			ik := make([]byte, len(fileKey))
			copy(ik, fileKey)
			for j := range ik {
				ik[j] ^= byte(i)
			}
			rc4XOR(t, ik, u)
		}
	}

	d = types.NewDict(0)
	require.NoError(t, d.InsertHash("Filter", types.Name("Standard"), 0))
	require.NoError(t, d.InsertHash("O", types.HexLiteral(o), 0))
	require.NoError(t, d.InsertHash("U", types.HexLiteral(u), 0))
	require.NoError(t, d.InsertHash("P", types.Integer(p), 0))
	require.NoError(t, d.InsertHash("R", types.Integer(r), 0))
	require.NoError(t, d.InsertHash("Length", types.Integer(length), 0))

	if aesCF {
		require.NoError(t, d.InsertHash("StmF", types.Name("StdCF"), 0))
		stdCF := types.NewDict(0)
		require.NoError(t, stdCF.InsertHash("CFM", types.Name("AESV2"), 0))
		cf := types.NewDict(0)
		require.NoError(t, cf.InsertHash("StdCF", stdCF, 0))
		require.NoError(t, d.InsertHash("CF", cf, 0))
	}

	return d, id, fileKey
}

func TestAuthenticateRC4R2(t *testing.T) {
	d, id, _ := fixture(t, 2, false)

	enc, err := crypt.Authenticate(d, id, "")
	require.NoError(t, err)
	require.NotNil(t, enc)
}

func TestAuthenticateRC4R3WrongPasswordFails(t *testing.T) {
	d, id, _ := fixtureWithUserPassword(t, 3, false, "abc")

	_, err := crypt.Authenticate(d, id, "definitely-not-it")
	require.Error(t, err)
}

func TestDecryptStreamRC4RoundTrips(t *testing.T) {
	d, id, _ := fixture(t, 3, false)
	enc, err := crypt.Authenticate(d, id, "")
	require.NoError(t, err)

	// RC4 is its own inverse: applying the identical per-object
	// keystream twice recovers the original bytes, so DecryptStream
	// doubles as its own encrypt fixture here.
	plain := []byte("a small content stream payload")
	once, err := enc.DecryptStream(5, 0, plain)
	require.NoError(t, err)
	require.NotEqual(t, plain, once)

	twice, err := enc.DecryptStream(5, 0, once)
	require.NoError(t, err)
	require.Equal(t, plain, twice)
}

func TestDecryptStreamAESV2RoundTrips(t *testing.T) {
	d, id, fileKey := fixture(t, 3, true)
	enc, err := crypt.Authenticate(d, id, "")
	require.NoError(t, err)

	plain := []byte("0123456789ABCDEF") // exactly one AES block, no padding needed
	objNum, gen := int32(9), int32(0)

	// Re-derive the per-object key (Algorithm 1 plus the AESV2 "sAlT"
	// suffix) to build a real CBC ciphertext the handler should decrypt
	// back to plain.
	m := md5.New()
	m.Write(fileKey)
	m.Write([]byte{byte(objNum), byte(objNum >> 8), byte(objNum >> 16)})
	m.Write([]byte{byte(gen), byte(gen >> 8)})
	m.Write([]byte("sAlT"))
	dk := m.Sum(nil)[:16]

	block, err := aes.NewCipher(dk)
	require.NoError(t, err)
	iv := bytes.Repeat([]byte{0x01}, aes.BlockSize)
	ciphertext := make([]byte, len(plain))
	copy(ciphertext, plain)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(ciphertext, ciphertext)
	withIV := append(append([]byte{}, iv...), ciphertext...)

	got, err := enc.DecryptStream(objNum, gen, withIV)
	require.NoError(t, err)
	require.Equal(t, plain, got)
}

func TestParseEncryptDictRejectsUnsupportedRevision(t *testing.T) {
	d, id, _ := fixture(t, 2, false)
	require.NoError(t, d.RemoveHash("R", false))
	require.NoError(t, d.InsertHash("R", types.Integer(6), 0))

	_, err := crypt.ParseEncryptDict(d, id)
	require.Error(t, err)
}
