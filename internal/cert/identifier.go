package cert

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// DefaultIDPrefix is the organisation prefix used when none is configured.
const DefaultIDPrefix = "IEEE"

// suffixBytes is the number of random bytes in an identifier (8 hex chars).
const suffixBytes = 4

// IDGenerator produces certificate identifiers of the form
// PREFIX-<unix millis>-<8 uppercase hex chars>.
//
// The timestamp component never decreases for a single generator, even if the
// wall clock steps backwards. Uniqueness is probabilistic; the store is
// responsible for rejecting duplicates.
type IDGenerator struct {
	prefix string
	random io.Reader
	now    func() time.Time

	mu         sync.Mutex
	lastMillis int64
}

// NewIDGenerator creates a generator backed by crypto/rand.
func NewIDGenerator(prefix string) *IDGenerator {
	return newIDGenerator(prefix, rand.Reader, time.Now)
}

func newIDGenerator(prefix string, random io.Reader, now func() time.Time) *IDGenerator {
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	return &IDGenerator{
		prefix: prefix,
		random: random,
		now:    now,
	}
}

// Prefix returns the organisation prefix.
func (g *IDGenerator) Prefix() string {
	return g.prefix
}

// Generate returns a new certificate identifier.
func (g *IDGenerator) Generate() (string, error) {
	suffix := make([]byte, suffixBytes)
	if _, err := io.ReadFull(g.random, suffix); err != nil {
		return "", fmt.Errorf("%w: %v", ErrEntropyUnavailable, err)
	}

	return fmt.Sprintf("%s-%d-%s", g.prefix, g.nextMillis(), strings.ToUpper(hex.EncodeToString(suffix))), nil
}

func (g *IDGenerator) nextMillis() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ms := g.now().UnixMilli()
	if ms < g.lastMillis {
		ms = g.lastMillis
	}
	g.lastMillis = ms
	return ms
}
