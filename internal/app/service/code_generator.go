package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	// DefaultCodeBytes yields 8 hex characters, 2^32 possible codes.
	DefaultCodeBytes = 4

	// maxFilteredDraws bounds redraws when the bloom filter keeps reporting
	// taken codes; the store's unique constraint still has the final word.
	maxFilteredDraws = 8
)

// CodeSource lists codes that are already persisted.
type CodeSource interface {
	ForEachCode(ctx context.Context, fn func(code string) error) error
}

// CodeGenerator produces random lowercase hex short codes.
type CodeGenerator struct {
	byteLen int
	random  io.Reader

	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// CodeGeneratorOption customises a CodeGenerator.
type CodeGeneratorOption func(*CodeGenerator)

// WithBloomFilter tracks taken codes in a bloom filter sized for capacity
// entries at the given false-positive rate.
func WithBloomFilter(capacity uint, fpRate float64) CodeGeneratorOption {
	return func(g *CodeGenerator) {
		g.filter = bloom.NewWithEstimates(capacity, fpRate)
	}
}

// WithRandom replaces crypto/rand as the entropy source.
func WithRandom(r io.Reader) CodeGeneratorOption {
	return func(g *CodeGenerator) {
		g.random = r
	}
}

// NewCodeGenerator returns a generator emitting byteLen random bytes per code.
func NewCodeGenerator(byteLen int, opts ...CodeGeneratorOption) *CodeGenerator {
	if byteLen <= 0 {
		byteLen = DefaultCodeBytes
	}
	g := &CodeGenerator{
		byteLen: byteLen,
		random:  rand.Reader,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a fresh code. It does not consult the store.
func (g *CodeGenerator) Generate() (string, error) {
	buf := make([]byte, g.byteLen)
	for draw := 1; ; draw++ {
		if _, err := io.ReadFull(g.random, buf); err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		code := hex.EncodeToString(buf)
		if draw >= maxFilteredDraws || !g.mightBeTaken(code) {
			return code, nil
		}
	}
}

// Remember marks code as taken.
func (g *CodeGenerator) Remember(code string) {
	if g.filter == nil {
		return
	}
	g.mu.Lock()
	g.filter.AddString(code)
	g.mu.Unlock()
}

// Seed loads every persisted code into the filter and returns how many were read.
func (g *CodeGenerator) Seed(ctx context.Context, src CodeSource) (int, error) {
	if g.filter == nil {
		return 0, nil
	}
	n := 0
	err := src.ForEachCode(ctx, func(code string) error {
		g.Remember(code)
		n++
		return nil
	})
	if err != nil {
		return n, fmt.Errorf("seed code filter: %w", err)
	}
	return n, nil
}

func (g *CodeGenerator) mightBeTaken(code string) bool {
	if g.filter == nil {
		return false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.filter.TestString(code)
}
