package services

import (
	"context"
	"fmt"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/files/filesystem"
	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/files/loader"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

type mockWriter struct {
	items    []ingestor.SavedObject
	pending  int
	flushes  int
	putErr   error
	flushErr error
}

func (m *mockWriter) Put(_ context.Context, item ingestor.SavedObject) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.items = append(m.items, item)
	m.pending++
	return nil
}

func (m *mockWriter) Flush(_ context.Context) error {
	m.flushes++
	if m.flushErr != nil {
		return m.flushErr
	}
	m.pending = 0
	return nil
}

func (m *mockWriter) Written() int {
	return len(m.items) - m.pending
}

func (m *mockWriter) factory() WriterFactory {
	return func(context.Context, *ingestor.IngestConfig) (ingestor.RecordWriter, error) {
		return m, nil
	}
}

type sequenceGenerator struct {
	n int
}

func (g *sequenceGenerator) UUID() string {
	g.n++
	return fmt.Sprintf("-u%d", g.n)
}

func (g *sequenceGenerator) Phrase() string {
	g.n++
	return fmt.Sprintf("phrase %d", g.n)
}

func memLoader(files map[string]string) *loader.Loader {
	mfs := filesystem.NewMemoryFileSystem("/data")
	for name, content := range files {
		mfs.AddFile(name, content)
	}
	return loader.NewLoaderWithFS(mfs)
}
