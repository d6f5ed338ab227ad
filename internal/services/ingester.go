package services

import (
	"context"
	"fmt"

	"github.com/huyaboo/saved-objects-ddb-ingestor/internal/transform"
	"github.com/huyaboo/saved-objects-ddb-ingestor/pkg/ingestor"
)

// WriterFactory opens the record writer used for one ingestion run.
type WriterFactory func(ctx context.Context, cfg *ingestor.IngestConfig) (ingestor.RecordWriter, error)

// IngestionService writes randomized copies of template saved objects.
// Thread-Safety: NOT safe for concurrent Ingest() calls on the same instance.
type IngestionService struct {
	writerFactory WriterFactory
	loader        ingestor.TemplateLoader
	transformer   *transform.Transformer
	logger        ingestor.Logger
	progress      ingestor.ProgressReporter
}

// NewIngestionService creates an IngestionService with all dependencies injected.
// Panics on nil dependencies; runtime failures are returned from Ingest.
func NewIngestionService(
	writerFactory WriterFactory,
	loader ingestor.TemplateLoader,
	transformer *transform.Transformer,
	logger ingestor.Logger,
) *IngestionService {
	if writerFactory == nil {
		panic("writerFactory cannot be nil")
	}
	if loader == nil {
		panic("loader cannot be nil")
	}
	if transformer == nil {
		panic("transformer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &IngestionService{
		writerFactory: writerFactory,
		loader:        loader,
		transformer:   transformer,
		logger:        logger,
		progress:      ingestor.ProgressFunc(func(int, int) {}),
	}
}

// WithProgress returns a copy of the service that reports to p after every
// iteration. The receiver is not modified.
func (s *IngestionService) WithProgress(p ingestor.ProgressReporter) *IngestionService {
	clone := *s
	if p != nil {
		clone.progress = p
	}
	return &clone
}

// Ingest loads the templates named by cfg and writes cfg.NumRecords
// randomized copies of each, flushing after every iteration.
// Records written before a failure are not rolled back.
func (s *IngestionService) Ingest(ctx context.Context, cfg ingestor.IngestConfig) (ingestor.IngestResult, error) {
	var result ingestor.IngestResult

	if err := cfg.Validate(); err != nil {
		return result, err
	}

	s.logger.Verbose("Loading saved objects from %s", cfg.TemplatePath)
	templates, err := s.loader.Load(cfg.TemplatePath)
	if err != nil {
		return result, err
	}
	result.Templates = len(templates)
	s.logger.Verbose("Loaded %d template saved object(s)", len(templates))

	total := cfg.NumRecords * len(templates)
	if total == 0 {
		s.logger.Verbose("Nothing to write")
		return result, nil
	}

	writer, err := s.writerFactory(ctx, &cfg)
	if err != nil {
		return result, err
	}

	opts := transform.Options{
		AppendID:         cfg.AppendIDs(len(templates)),
		ReplaceTitle:     cfg.ReplaceTitle,
		ReplaceTimestamp: cfg.ReplaceTimestamp,
	}
	s.logger.Verbose("Writing %d record(s) to %s (append ids: %t, replace title: %t, replace timestamp: %t)",
		total, cfg.TableName, opts.AppendID, opts.ReplaceTitle, opts.ReplaceTimestamp)

	for i := 0; i < cfg.NumRecords; i++ {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("ingestion interrupted after %d of %d iteration(s): %w", i, cfg.NumRecords, err)
		}

		if err := s.writeIteration(ctx, writer, templates, opts); err != nil {
			return result, fmt.Errorf("iteration %d: %w", i+1, err)
		}

		result.Iterations++
		s.progress.Progress(result.Iterations*len(templates), total)
	}

	result.Written = total
	s.logger.Verbose("Store acknowledged %d item(s)", writer.Written())
	return result, nil
}

func (s *IngestionService) writeIteration(ctx context.Context, writer ingestor.RecordWriter, templates []ingestor.SavedObject, opts transform.Options) error {
	for _, tmpl := range templates {
		if err := writer.Put(ctx, s.transformer.Process(tmpl, opts)); err != nil {
			return err
		}
	}
	return writer.Flush(ctx)
}
