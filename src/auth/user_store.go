package auth

import (
	"crypto/rand"
	"fmt"
	"io"
	"sync"

	"diagramdb/src/helpers"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for password hashing.
const (
	hashTime    = 1
	hashMemory  = 64 * 1024
	hashThreads = 4
	hashKeyLen  = 32
	saltLen     = 16
)

// User is a registered RPC user. PasswordHash is never exposed.
type User struct {
	UserID   string
	Username string

	PasswordHash passwordHash
}

type passwordHash struct {
	Salt []byte
	Hash []byte
}

// UserStore is the in-memory registry of users allowed to open RPC
// connections when authentication is enabled.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewUserStore creates an empty user store
func NewUserStore() *UserStore {
	return &UserStore{
		users: make(map[string]User),
	}
}

// AddUser adds a user with the given password
func (s *UserStore) AddUser(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[username]; exists {
		return ErrUserAlreadyExists
	}

	salt := make([]byte, saltLen)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	s.users[username] = User{
		UserID:   helpers.GenerateUUID(),
		Username: username,
		PasswordHash: passwordHash{
			Salt: salt,
			Hash: hashPassword(password, salt),
		},
	}

	return nil
}

// VerifyCredentials checks if the provided credentials are valid
func (s *UserStore) VerifyCredentials(username, password string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	storedUser, exists := s.users[username]
	if !exists {
		return false, ErrUserNotFound
	}

	// Hash the password using the same parameters and salt
	hash := hashPassword(password, storedUser.PasswordHash.Salt)

	// Constant-time comparison to prevent timing attacks
	return slowEqual(hash, storedUser.PasswordHash.Hash), nil
}

func hashPassword(password string, salt []byte) []byte {
	return argon2.IDKey([]byte(password), salt, hashTime, hashMemory, hashThreads, hashKeyLen)
}

func slowEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}

	var result byte
	for i := 0; i < len(a); i++ {
		result |= a[i] ^ b[i]
	}

	return result == 0
}
