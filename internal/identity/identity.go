package identity

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrInvalidLength is returned when a suffix of non-positive length is requested
var ErrInvalidLength = errors.New("suffix length must be positive")

// Source hands out identifiers used to make resource names unique
type Source interface {
	NextID() string
}

// UUIDSource returns random (version 4) UUIDs as 32 lowercase hex characters.
type UUIDSource struct{}

func (UUIDSource) NextID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}

// Sequence replays a fixed list of identifiers, cycling when exhausted.
// Safe for concurrent use.
type Sequence struct {
	mu  sync.Mutex
	ids []string
	pos int
}

func NewSequence(ids ...string) *Sequence {
	return &Sequence{ids: ids}
}

func (s *Sequence) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == 0 {
		return ""
	}
	id := s.ids[s.pos%len(s.ids)]
	s.pos++
	return id
}

// Suffix draws exactly n characters from src. Identifiers are consumed whole and
// concatenated until n characters are available; nothing is resampled.
func Suffix(src Source, n int) (string, error) {
	if n <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	if src == nil {
		src = UUIDSource{}
	}

	var sb strings.Builder
	for sb.Len() < n {
		id := src.NextID()
		if id == "" {
			return "", fmt.Errorf("identity source returned an empty id")
		}
		sb.WriteString(id)
	}
	return sb.String()[:n], nil
}
