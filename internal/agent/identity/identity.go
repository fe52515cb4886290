// Package identity assigns the durable pseudonymous user id that
// namespaces everything in the remote notification store. The id is
// created lazily on first use and never rotated for the lifetime of the
// installation.
package identity

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const (
	idFileName   = "user_id"
	suffixLen    = 9
	base36Digits = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Store persists one user id in a file under the data directory.
type Store struct {
	mu     sync.Mutex
	path   string
	cached string
}

// NewStore creates a Store rooted at dataDir, creating the directory if
// needed.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{path: filepath.Join(dataDir, idFileName)}, nil
}

// UserID returns the persisted id, generating and persisting one on
// first call. Concurrent first calls are serialized by O_EXCL creation:
// the loser of the create race reads back the winner's id, so one
// installation can never end up with two ids.
func (s *Store) UserID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached, nil
	}

	if data, err := os.ReadFile(s.path); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			s.cached = id
			return id, nil
		}
	}

	id, err := generate()
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			// Lost the create race. The winner may not have finished
			// writing yet, so poll briefly for the content.
			for i := 0; i < 50; i++ {
				data, rerr := os.ReadFile(s.path)
				if rerr != nil {
					return "", fmt.Errorf("read existing id: %w", rerr)
				}
				if existing := strings.TrimSpace(string(data)); existing != "" {
					s.cached = existing
					return existing, nil
				}
				time.Sleep(10 * time.Millisecond)
			}
			return "", fmt.Errorf("user id file %s never became readable", s.path)
		}
		return "", fmt.Errorf("persist user id: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(id + "\n"); err != nil {
		return "", fmt.Errorf("write user id: %w", err)
	}
	s.cached = id
	return id, nil
}

// generate builds an id of the form user_<epochMs>_<9 base36 chars>.
func generate() (string, error) {
	var sb strings.Builder
	for i := 0; i < suffixLen; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(base36Digits))))
		if err != nil {
			return "", fmt.Errorf("random suffix: %w", err)
		}
		sb.WriteByte(base36Digits[n.Int64()])
	}
	return fmt.Sprintf("user_%d_%s", time.Now().UnixMilli(), sb.String()), nil
}
