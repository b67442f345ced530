package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/mklatt/chatwire/session/common"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ISuite is the interface for the symmetric cipher suite used by the frame
// codec for encrypted-binary frames.
type ISuite interface {
	// Encrypt encrypts the plaintext with the given key
	Encrypt(plaintext, key []byte) ([]byte, error)
	// Decrypt reverses Encrypt
	Decrypt(ciphertext, key []byte) ([]byte, error)
	// Sign computes a keyed signature over data
	Sign(data, key []byte) []byte
	// Verify checks a signature produced by Sign
	Verify(data, signature, key []byte) bool
	// SignatureSize returns the byte length of signatures produced by Sign
	SignatureSize() int
}

// --------------------------------------------------------------------------
// Suite Factory Method
// --------------------------------------------------------------------------

// NewSuite creates the protocol cipher suite (AES-256-CBC + HMAC-SHA256)
func NewSuite() ISuite {
	return &suiteImpl{}
}

// suiteImpl implements ISuite with AES-256-CBC and HMAC-SHA256
type suiteImpl struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see crypto.ISuite)
// --------------------------------------------------------------------------

func (s *suiteImpl) Encrypt(plaintext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	padded := pad(plaintext, aes.BlockSize)

	// Random IV is prepended to the ciphertext
	out := make([]byte, aes.BlockSize+len(padded))
	iv := out[:aes.BlockSize]
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[aes.BlockSize:], padded)
	return out, nil
}

func (s *suiteImpl) Decrypt(ciphertext, key []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	if len(ciphertext) < aes.BlockSize || len(ciphertext)%aes.BlockSize != 0 {
		return nil, fmt.Errorf("invalid ciphertext length %d", len(ciphertext))
	}

	iv := ciphertext[:aes.BlockSize]
	body := ciphertext[aes.BlockSize:]

	plaintext := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plaintext, body)

	return unpad(plaintext, aes.BlockSize)
}

func (s *suiteImpl) Sign(data, key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}

func (s *suiteImpl) Verify(data, signature, key []byte) bool {
	return hmac.Equal(signature, s.Sign(data, key))
}

func (s *suiteImpl) SignatureSize() int {
	return sha256.Size
}

// --------------------------------------------------------------------------
// Key Derivation
// --------------------------------------------------------------------------

// DeriveKeys expands a negotiated shared secret into the session key pair
// (encryption key + signing key) using HKDF-SHA256.
func DeriveKeys(secret []byte) (common.AuthInfo, error) {
	expanded := make([]byte, 64)
	if _, err := io.ReadFull(hkdf.New(sha256.New, secret, nil, nil), expanded); err != nil {
		return common.AuthInfo{}, err
	}

	return common.AuthInfo{
		EncKey: expanded[:32],
		MacKey: expanded[32:64],
	}, nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// pad applies PKCS#7 padding
func pad(data []byte, blockSize int) []byte {
	n := blockSize - len(data)%blockSize
	padded := make([]byte, len(data)+n)
	copy(padded, data)
	for i := len(data); i < len(padded); i++ {
		padded[i] = byte(n)
	}
	return padded
}

// unpad removes PKCS#7 padding
func unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, fmt.Errorf("invalid padded length %d", len(data))
	}
	n := int(data[len(data)-1])
	if n == 0 || n > blockSize || n > len(data) {
		return nil, fmt.Errorf("invalid padding byte %d", n)
	}
	for _, b := range data[len(data)-n:] {
		if int(b) != n {
			return nil, fmt.Errorf("corrupt padding")
		}
	}
	return data[:len(data)-n], nil
}
