package ingestor

import "context"

// TemplateLoader reads template saved objects from a file.
type TemplateLoader interface {
	// Load returns the saved objects in file order.
	Load(path string) ([]SavedObject, error)
}

// RecordWriter buffers saved objects and submits them to the store in batches.
type RecordWriter interface {
	// Put queues an item, flushing automatically when the batch is full.
	Put(ctx context.Context, item SavedObject) error

	// Flush submits everything still buffered.
	Flush(ctx context.Context) error

	// Written returns the number of items the store has acknowledged.
	Written() int
}

// DataGenerator supplies random values for the transformer.
type DataGenerator interface {
	// UUID returns a fresh random unique identifier in text form.
	UUID() string

	// Phrase returns a random business-style phrase.
	Phrase() string
}

// ProgressReporter receives progress updates while records are written.
type ProgressReporter interface {
	Progress(written, total int)
}

// ProgressFunc adapts a plain function to ProgressReporter.
type ProgressFunc func(written, total int)

// Progress calls f(written, total).
func (f ProgressFunc) Progress(written, total int) { f(written, total) }
