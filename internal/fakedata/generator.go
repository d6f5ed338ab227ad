// Package fakedata produces the random values used to randomize saved objects.
package fakedata

import (
	"sync"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"

	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// Generator implements ingestor.DataGenerator with gofakeit phrases and
// random (version 4) UUIDs.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// New creates a generator backed by a cryptographically seeded faker.
func New() *Generator {
	return &Generator{faker: gofakeit.New(0)}
}

// NewSeeded creates a generator whose phrases are reproducible for seed.
// UUIDs stay random.
func NewSeeded(seed int64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

// UUID returns a new random UUID in its canonical text form.
func (g *Generator) UUID() string {
	return uuid.NewString()
}

// Phrase returns a business-speak phrase such as "scale visionary paradigms".
func (g *Generator) Phrase() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.faker.BS()
}

var _ ingestor.DataGenerator = (*Generator)(nil)
