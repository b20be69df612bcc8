package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/quire/internal/codec"
	"github.com/aretw0/quire/pkg/domain"
	"github.com/aretw0/quire/pkg/ports"
)

// EncryptionConfig holds the AES-256 keys of a store.
type EncryptionConfig struct {
	// ActiveKey seals every save and is tried first on load. 32 bytes.
	ActiveKey []byte

	// FallbackKeys only open descriptions sealed before a rotation.
	FallbackKeys [][]byte
}

// envelopeProp holds the sealed description inside the stored envelope.
const envelopeProp = "__encrypted__"

type encryptionMiddleware struct {
	next   ports.DocumentStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that seals descriptions with
// AES-GCM. The backing store only sees an opaque DOCUMENT envelope.
func NewEncryptionMiddleware(config EncryptionConfig) Middleware {
	if len(config.ActiveKey) != 32 {
		panic("active key must be 32 bytes (AES-256)")
	}
	return func(next ports.DocumentStore) ports.DocumentStore {
		return &encryptionMiddleware{
			next:   next,
			config: config,
		}
	}
}

func (m *encryptionMiddleware) Save(ctx context.Context, id string, doc domain.Element) error {
	plainText, err := codec.EncodeElement(doc)
	if err != nil {
		return fmt.Errorf("failed to encode description: %w", err)
	}

	ciphertext, err := seal(m.config.ActiveKey, plainText)
	if err != nil {
		return fmt.Errorf("failed to encrypt description: %w", err)
	}

	envelope := domain.Element{
		Kind:  domain.KindDocument,
		Props: map[string]any{envelopeProp: base64.StdEncoding.EncodeToString(ciphertext)},
	}
	return m.next.Save(ctx, id, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, id string) (domain.Element, error) {
	envelope, err := m.next.Load(ctx, id)
	if err != nil {
		return domain.Element{}, err
	}

	// Plain descriptions are rejected: once configured, encryption is expected.
	encryptedStr, ok := envelope.Props[envelopeProp].(string)
	if !ok {
		return domain.Element{}, errors.New("description is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return domain.Element{}, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := openAny(ciphertext, append([][]byte{m.config.ActiveKey}, m.config.FallbackKeys...)...)
	if err != nil {
		return domain.Element{}, fmt.Errorf("failed to decrypt description: %w", err)
	}

	doc, err := codec.DecodeElement(plainText)
	if err != nil {
		return domain.Element{}, fmt.Errorf("failed to decode decrypted description: %w", err)
	}
	return doc, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal returns nonce || ciphertext.
func seal(key, plain []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func open(key, sealed []byte) ([]byte, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return nil, err
	}
	n := aead.NonceSize()
	if len(sealed) < n {
		return nil, errors.New("ciphertext too short")
	}
	return aead.Open(nil, sealed[:n], sealed[n:], nil)
}

// openAny tries each key in order.
func openAny(sealed []byte, keys ...[]byte) ([]byte, error) {
	for _, key := range keys {
		if plain, err := open(key, sealed); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}
