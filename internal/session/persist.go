package session

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/larkin/bankview-go/internal/domain"

	"golang.org/x/crypto/chacha20poly1305"
)

// FileCredentialStore keeps the single "current login" record in a file,
// encrypted at rest with ChaCha20-Poly1305. The record carries a bearer
// token, so plaintext on disk is not acceptable. The key is derived from a
// configured secret via SHA-256.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
	key  []byte
}

// NewFileCredentialStore creates a store writing to path, keyed by secret.
func NewFileCredentialStore(path, secret string) *FileCredentialStore {
	key := sha256.Sum256([]byte(secret))
	return &FileCredentialStore{path: path, key: key[:]}
}

// Get returns the persisted credentials, or nil if no record exists. A
// record that cannot be decrypted or decoded is treated as absent and
// removed: a corrupt session file should not wedge startup.
func (f *FileCredentialStore) Get() (*domain.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	sealed, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}

	plaintext, err := f.open(sealed)
	if err != nil {
		_ = os.Remove(f.path)
		return nil, nil
	}

	var creds domain.Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		_ = os.Remove(f.path)
		return nil, nil
	}
	return &creds, nil
}

// Set writes the credentials, replacing any prior record.
func (f *FileCredentialStore) Set(creds *domain.Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}

	sealed, err := f.seal(plaintext)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("create session dir: %w", err)
		}
	}
	if err := os.WriteFile(f.path, sealed, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Remove deletes the record. Removing an absent record is not an error.
func (f *FileCredentialStore) Remove() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

func (f *FileCredentialStore) seal(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, fmt.Errorf("init cipher: %w", err)
	}
	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return aead.Seal(nonce, nonce, plaintext, nil), nil
}

func (f *FileCredentialStore) open(sealed []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(f.key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, errors.New("sealed record too short")
	}
	nonce, ciphertext := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	return aead.Open(nil, nonce, ciphertext, nil)
}
