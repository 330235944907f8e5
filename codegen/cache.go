package codegen

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/vortexdb/colexec/expr"
)

// cacheCapacity bounds the compile cache, per the "capacity 1000" contract.
const cacheCapacity = 1000

// BatchCodeGenerator compiles bound expression trees into Projections,
// amortizing compilation via a bounded cache keyed by canonical form.
// Multiple threads may hold a reference to the same generator and call
// Compile/Apply concurrently: cache hits never take compileMu (only the
// LRU's own internal lock), cache misses serialize on compileMu so the (non-reentrant) lowering pass only ever
// runs for one caller at a time.
type BatchCodeGenerator struct {
	cache     *lru.Cache[string, *Projection]
	compileMu sync.Mutex
}

// NewBatchCodeGenerator builds a generator with a warm, empty cache.
func NewBatchCodeGenerator() *BatchCodeGenerator {
	c, err := lru.New[string, *Projection](cacheCapacity)
	if err != nil {
		// only returns an error for a non-positive size, which
		// cacheCapacity never is.
		panic(err)
	}
	return &BatchCodeGenerator{cache: c}
}

// Compile lowers tree into a Projection, serving a cached artifact when the
// canonical form has been seen before.
func (g *BatchCodeGenerator) Compile(tree *expr.Node) (*Projection, error) {
	canonical := expr.Canonicalize(tree)
	key := expr.Key(canonical)

	if p, ok := g.cache.Get(key); ok {
		return p, nil
	}

	g.compileMu.Lock()
	defer g.compileMu.Unlock()

	// another goroutine may have populated the cache while we waited.
	if p, ok := g.cache.Get(key); ok {
		return p, nil
	}

	start := time.Now()
	p, err := compile(canonical)
	if err != nil {
		return nil, err
	}
	log.Printf("codegen: compiled expression in %s (cache key %q)", time.Since(start), key)

	g.cache.Add(key, p)
	return p, nil
}

// Len reports the number of live cache entries, for test/introspection use.
func (g *BatchCodeGenerator) Len() int {
	return g.cache.Len()
}
