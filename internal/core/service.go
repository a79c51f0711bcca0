package core

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/JonMunkholm/cleaner/internal/codec"
	"github.com/JonMunkholm/cleaner/internal/dataset"
	"github.com/JonMunkholm/cleaner/internal/logging"
	"github.com/JonMunkholm/cleaner/internal/metrics"
	"github.com/JonMunkholm/cleaner/internal/pipeline"
	"github.com/JonMunkholm/cleaner/internal/storage"
	"github.com/dustin/go-humanize"
)

// Options tunes upload handling. Zero values use the package defaults.
type Options struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service cleans uploads and stores the results as artifacts.
type Service struct {
	store       *storage.Store
	metrics     *metrics.Metrics
	limiter     *UploadLimiter
	maxFileSize int64
}

// Result describes one cleaned upload.
type Result struct {
	ArtifactID  string
	FileName    string // base name of the raw upload
	CleanedName string // name of the cleaned CSV inside the artifact
	Dataset     *dataset.Dataset
	Report      pipeline.Report
	Duration    time.Duration
}

// NewService creates a Service writing artifacts to store.
func NewService(store *storage.Store, m *metrics.Metrics, opts Options) *Service {
	return &Service{
		store:       store,
		metrics:     m,
		limiter:     NewUploadLimiter(opts.MaxConcurrent, opts.MaxWait),
		maxFileSize: opts.MaxFileSize,
	}
}

// Store returns the artifact store.
func (s *Service) Store() *storage.Store { return s.store }

// MaxFileSize returns the upload size limit, or 0 for none.
func (s *Service) MaxFileSize() int64 { return s.maxFileSize }

// Clean stores the raw upload, decodes it by extension, runs the cleaning
// pipeline and stores the cleaned CSV, all under a fresh artifact ID.
//
// An unsupported extension is reported after the raw upload is saved.
func (s *Service) Clean(ctx context.Context, fileName string, data []byte) (*Result, error) {
	if fileName == "" {
		s.Reject(ErrNoSelectedFile)
		return nil, ErrNoSelectedFile
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		err := fmt.Errorf("%w: %s exceeds %s", ErrFileTooLarge,
			humanize.IBytes(uint64(len(data))), humanize.IBytes(uint64(s.maxFileSize)))
		s.Reject(err)
		return nil, err
	}

	release, err := s.limiter.Acquire(ctx)
	if err != nil {
		s.Reject(err)
		return nil, err
	}
	defer release()

	s.metrics.ActiveUploads.Inc()
	defer s.metrics.ActiveUploads.Dec()

	result, err := s.clean(ctx, fileName, data)
	if err != nil {
		s.Reject(err)
		return nil, err
	}
	s.metrics.ObserveUpload(metrics.OutcomeCleaned)
	return result, nil
}

func (s *Service) clean(ctx context.Context, fileName string, data []byte) (*Result, error) {
	start := time.Now()
	id := s.store.NewID()
	ctx = logging.ContextWithArtifact(ctx, id)
	logger := logging.WithFields(ctx, "file", fileName)

	rawPath, err := s.store.SaveUpload(id, fileName, data)
	if err != nil {
		return nil, fmt.Errorf("save upload: %w", err)
	}
	logger.Debug("upload saved", "path", rawPath, "size", humanize.IBytes(uint64(len(data))))

	ds, err := codec.Decode(fileName, data)
	if err != nil {
		logger.Info("upload rejected", "error", err)
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cleaned, report, err := pipeline.Run(ds)
	if err != nil {
		logger.Info("pipeline failed", "error", err)
		return nil, err
	}

	if _, err := s.store.SaveCleaned(id, cleaned); err != nil {
		return nil, fmt.Errorf("save cleaned data: %w", err)
	}

	elapsed := time.Since(start)
	s.metrics.ObserveRun(report, elapsed)

	logger.Info("upload cleaned",
		"input_rows", report.InputRows,
		"null_rows_dropped", report.NullRowsDropped,
		"duplicates_dropped", report.DuplicatesDropped,
		"aggregated", report.Aggregated,
		"output_rows", report.OutputRows,
		"duration", elapsed,
	)

	return &Result{
		ArtifactID:  id,
		FileName:    filepath.Base(rawPath),
		CleanedName: s.store.CleanedName(),
		Dataset:     cleaned,
		Report:      report,
		Duration:    elapsed,
	}, nil
}

// Reject records an upload that ended in err without producing an artifact.
func (s *Service) Reject(err error) {
	s.metrics.ObserveUpload(Outcome(err))
}

// Outcome classifies err for the uploads_total metric.
func Outcome(err error) string {
	var (
		unsupported *codec.UnsupportedFormatError
		parseErr    *codec.ParseError
		collision   *pipeline.NameCollisionError
	)

	switch {
	case err == nil:
		return metrics.OutcomeCleaned
	case errors.Is(err, ErrMissingFile), errors.Is(err, ErrNoSelectedFile):
		return metrics.OutcomeMissingFile
	case errors.As(err, &unsupported):
		return metrics.OutcomeUnsupported
	case errors.As(err, &parseErr):
		return metrics.OutcomeParseError
	case errors.As(err, &collision):
		return metrics.OutcomeCollision
	case errors.Is(err, ErrTooManyUploads):
		return metrics.OutcomeBusy
	default:
		return metrics.OutcomeFailed
	}
}

// LimiterStatus reports upload slot usage.
func (s *Service) LimiterStatus() UploadLimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is done.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}
