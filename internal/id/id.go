// Package id mints ULIDs for orders, trades and sessions.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator mints monotonic ULIDs. It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	mono  io.Reader
	clock func() time.Time
}

// NewGenerator returns a generator drawing entropy from r. Passing a seeded
// math/rand source together with a fixed clock makes the sequence
// reproducible.
func NewGenerator(r io.Reader, clock func() time.Time) *Generator {
	if clock == nil {
		clock = time.Now
	}
	return &Generator{mono: ulid.Monotonic(r, 0), clock: clock}
}

// New returns the next ULID string.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.clock().UTC()), g.mono)
	if err != nil {
		// Only happens if entropy fails or the monotonic counter overflows
		// within one millisecond.
		panic(err)
	}
	return id.String()
}

var std *Generator

func init() {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	std = NewGenerator(rand.New(rand.NewSource(seed)), nil)
}

// New returns a ULID string from the process-wide generator.
func New() string {
	return std.New()
}
