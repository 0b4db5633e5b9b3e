package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

// ============================================================================
//                              AES/ECB/PKCS5
// ============================================================================

// ecb 逐块加密，标准库不提供 ECB 模式
type ecb struct {
	block cipher.Block
}

func newECB(key []byte) (*ecb, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	return &ecb{block: block}, nil
}

func (e *ecb) seal(plain []byte) ([]byte, error) {
	bs := e.block.BlockSize()
	padded := pkcs5Pad(plain, bs)
	out := make([]byte, len(padded))
	for i := 0; i < len(padded); i += bs {
		e.block.Encrypt(out[i:i+bs], padded[i:i+bs])
	}
	return out, nil
}

func (e *ecb) open(sealed []byte) ([]byte, error) {
	bs := e.block.BlockSize()
	if len(sealed) == 0 || len(sealed)%bs != 0 {
		return nil, errors.New("ciphertext is not a multiple of the block size")
	}
	out := make([]byte, len(sealed))
	for i := 0; i < len(sealed); i += bs {
		e.block.Decrypt(out[i:i+bs], sealed[i:i+bs])
	}
	return pkcs5Unpad(out, bs)
}

func pkcs5Pad(b []byte, bs int) []byte {
	n := bs - len(b)%bs
	out := make([]byte, len(b), len(b)+n)
	copy(out, b)
	for i := 0; i < n; i++ {
		out = append(out, byte(n))
	}
	return out
}

func pkcs5Unpad(b []byte, bs int) ([]byte, error) {
	n := int(b[len(b)-1])
	if n == 0 || n > bs || n > len(b) {
		return nil, errors.New("bad padding")
	}
	for _, p := range b[len(b)-n:] {
		if int(p) != n {
			return nil, errors.New("bad padding")
		}
	}
	return b[:len(b)-n], nil
}

// ============================================================================
//                              AES-GCM
// ============================================================================

type gcm struct {
	aead cipher.AEAD
}

func newGCM(key []byte) (*gcm, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("gcm: %w", err)
	}
	return &gcm{aead: aead}, nil
}

func (g *gcm) seal(plain []byte) ([]byte, error) {
	nonce := make([]byte, g.aead.NonceSize(), g.aead.NonceSize()+len(plain)+g.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return g.aead.Seal(nonce, nonce, plain, nil), nil
}

func (g *gcm) open(sealed []byte) ([]byte, error) {
	ns := g.aead.NonceSize()
	if len(sealed) < ns+g.aead.Overhead() {
		return nil, errors.New("ciphertext too short")
	}
	return g.aead.Open(nil, sealed[:ns], sealed[ns:], nil)
}
