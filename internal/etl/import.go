package etl

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"dataviews/internal/domain"
)

// ── Import ─────────────────────────────────────────────────
// Orchestrates: source.Read → transform chain → CreateRecord per row.

// maxReportedErrors caps the per-row errors kept in a Result.
const maxReportedErrors = 10

// Creator is the write side an import loads rows into.
type Creator interface {
	CreateRecord(ctx context.Context, fields domain.Fields) (*domain.Record, error)
}

// Job describes one import run.
type Job struct {
	SourceType string       `json:"sourceType"`
	SourceCfg  SourceConfig `json:"sourceConfig"`
	// DedupeKey is a field id; rows repeating an earlier value are skipped.
	DedupeKey string `json:"dedupeKey,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	// DryRun maps and coerces rows without creating records.
	DryRun bool `json:"dryRun,omitempty"`
}

// Result is the outcome of an import.
type Result struct {
	RowsRead    int             `json:"rowsRead"`
	RowsWritten int             `json:"rowsWritten"`
	RowsSkipped int             `json:"rowsSkipped"`
	RowsFailed  int             `json:"rowsFailed"`
	Duration    time.Duration   `json:"duration"`
	Errors      []string        `json:"errors,omitempty"`
	Preview     []domain.Fields `json:"preview,omitempty"`
}

// Engine runs imports using the registered sources.
type Engine struct {
	logger *zap.Logger
}

func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger.Named("etl")}
}

// Run imports every row of the job's source into target. A source error
// aborts the run; a row the target rejects is counted and the run continues.
func (e *Engine) Run(ctx context.Context, schema *domain.TableSchema, target Creator, job Job) (*Result, error) {
	start := time.Now()
	result := &Result{}

	source, err := GetSource(job.SourceType)
	if err != nil {
		return result, err
	}

	ts := []Transformer{
		NewMapFieldsTransform(schema),
		&CoerceTransform{Schema: schema},
	}
	if job.DedupeKey != "" {
		if _, ok := schema.Field(job.DedupeKey); !ok {
			return result, fmt.Errorf("%w: dedupe key %q is not a field", domain.ErrBadInput, job.DedupeKey)
		}
		ts = append(ts, NewDedupeTransform(job.DedupeKey))
	}
	if job.Limit > 0 {
		ts = append(ts, NewLimitTransform(job.Limit))
	}

	rowCh, errCh := source.Read(ctx, job.SourceCfg)
	for row := range rowCh {
		result.RowsRead++
		row, keep := ApplyTransformers(row, ts)
		if !keep {
			result.RowsSkipped++
			continue
		}
		fields := domain.Fields(row.Data)
		if job.DryRun {
			result.Preview = append(result.Preview, fields)
			continue
		}
		if _, err := target.CreateRecord(ctx, fields); err != nil {
			result.RowsFailed++
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, fmt.Sprintf("row %d: %v", result.RowsRead, err))
			}
			e.logger.Warn("import row failed", zap.Int("row", result.RowsRead), zap.Error(err))
			continue
		}
		result.RowsWritten++
	}
	result.Duration = time.Since(start)

	if err := <-errCh; err != nil {
		return result, fmt.Errorf("read %s: %w", job.SourceType, err)
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	e.logger.Info("import finished",
		zap.String("source", job.SourceType),
		zap.Int("read", result.RowsRead),
		zap.Int("written", result.RowsWritten),
		zap.Int("skipped", result.RowsSkipped),
		zap.Int("failed", result.RowsFailed),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

// JobFor builds a job that reads location, a file path or an http(s) URL,
// with the source picked from its scheme or extension. extra adds source
// options such as delimiter or dataPath.
func JobFor(location string, extra SourceConfig) (Job, error) {
	typ, err := DetectSource(location)
	if err != nil {
		return Job{}, fmt.Errorf("%w: %v", domain.ErrBadInput, err)
	}
	cfg := SourceConfig{}
	for k, v := range extra {
		if v != "" && v != nil {
			cfg[k] = v
		}
	}
	if typ == "http" {
		cfg["url"] = location
	} else {
		cfg["filePath"] = location
	}
	return Job{SourceType: typ, SourceCfg: cfg}, nil
}
