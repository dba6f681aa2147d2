package credstore

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/fitgoalz/fitgoalz/internal/auth"
)

// ErrDecrypt indicates a sealed credential file could not be opened,
// usually because the passphrase changed.
var ErrDecrypt = errors.New("credential file could not be decrypted")

const fileFormatVersion = 1

var unsafeScopeChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// fileEnvelope is the on-disk layout. Values is set for unsealed files,
// Box (secretbox of the JSON values map) for sealed ones.
type fileEnvelope struct {
	Version int               `json:"version"`
	Sealed  bool              `json:"sealed"`
	Salt    []byte            `json:"salt,omitempty"`
	Nonce   []byte            `json:"nonce,omitempty"`
	Box     []byte            `json:"box,omitempty"`
	Values  map[string]string `json:"values,omitempty"`
}

// FileStore keeps one file per scope under a directory, mode 0600.
// With a passphrase the values are sealed with NaCl secretbox under an
// argon2id-derived key.
type FileStore struct {
	path       string
	passphrase string

	mu      sync.Mutex
	keySalt []byte
	key     [32]byte
}

// NewFile returns a store for scope rooted at dir. The directory is created on first write.
func NewFile(dir, scope, passphrase string) *FileStore {
	name := unsafeScopeChars.ReplaceAllString(normalizeScope(scope), "_") + ".cred"
	return &FileStore{
		path:       filepath.Join(dir, name),
		passphrase: passphrase,
	}
}

// Path returns the credential file location.
func (f *FileStore) Path() string {
	return f.path
}

// Get returns the value for key or ErrNotFound.
func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	values, _, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key and rewrites the file atomically. A file that
// cannot be decrypted is replaced.
func (f *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := validateKey(key); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	values, salt, err := f.load()
	if errors.Is(err, ErrDecrypt) {
		// The old contents are unusable; a new value replaces them.
		values, salt, err = map[string]string{}, nil, nil
	}
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values, salt)
}

// Delete removes key. The file is removed once it holds no values.
func (f *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	values, salt, err := f.load()
	if err != nil {
		// An unreadable file cannot hold a usable credential; drop it.
		if errors.Is(err, ErrDecrypt) {
			return f.remove()
		}
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	if len(values) == 0 {
		return f.remove()
	}
	return f.save(values, salt)
}

// Close is a no-op.
func (f *FileStore) Close() error {
	return nil
}

func (f *FileStore) remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}

// load reads the file; a missing file is an empty map.
func (f *FileStore) load() (map[string]string, []byte, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read credential file: %w", err)
	}

	var env fileEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	if env.Version != fileFormatVersion {
		return nil, nil, fmt.Errorf("%w: unsupported version %d", ErrDecrypt, env.Version)
	}

	// Unsealed files are sealed on the next write once a passphrase is configured.
	if !env.Sealed {
		return nonNil(env.Values), nil, nil
	}

	if f.passphrase == "" || len(env.Nonce) != 24 || len(env.Salt) != auth.SaltLen {
		return nil, nil, ErrDecrypt
	}
	var nonce [24]byte
	copy(nonce[:], env.Nonce)
	key := f.deriveKey(env.Salt)

	plain, ok := secretbox.Open(nil, env.Box, &nonce, &key)
	if !ok {
		return nil, nil, ErrDecrypt
	}
	values := map[string]string{}
	if err := json.Unmarshal(plain, &values); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrDecrypt, err)
	}
	return values, env.Salt, nil
}

func (f *FileStore) save(values map[string]string, salt []byte) error {
	env := fileEnvelope{Version: fileFormatVersion}

	if f.passphrase == "" {
		env.Values = values
	} else {
		if salt == nil {
			var err error
			if salt, err = auth.NewSalt(); err != nil {
				return err
			}
		}
		plain, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("marshal credentials: %w", err)
		}
		var nonce [24]byte
		if _, err := rand.Read(nonce[:]); err != nil {
			return fmt.Errorf("generate nonce: %w", err)
		}
		key := f.deriveKey(salt)
		env.Sealed = true
		env.Salt = salt
		env.Nonce = nonce[:]
		env.Box = secretbox.Seal(nil, plain, &nonce, &key)
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal credential file: %w", err)
	}
	return writeFileAtomic(f.path, data)
}

// deriveKey caches the last derived key; argon2id is deliberately slow.
func (f *FileStore) deriveKey(salt []byte) [32]byte {
	if f.keySalt != nil && string(f.keySalt) == string(salt) {
		return f.key
	}
	f.key = auth.DeriveKey(f.passphrase, salt)
	f.keySalt = append([]byte(nil), salt...)
	return f.key
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".cred-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace credential file: %w", err)
	}
	return nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
