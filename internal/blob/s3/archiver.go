package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
)

const (
	jsonlContentType = "application/x-ndjson"
	// Payloads at or above this size go through the multipart uploader.
	multipartThreshold = 16 * 1024 * 1024
)

// RecordSource lists prediction records issued before a cutoff.
type RecordSource interface {
	ListBefore(ctx context.Context, before time.Time) ([]domain.PredictionRecord, error)
}

// PredictionArchiver copies old prediction records to object storage as
// JSONL. Records are not deleted from the primary store.
type PredictionArchiver struct {
	writer domain.BlobWriter
	source RecordSource
}

// NewArchiver returns a PredictionArchiver.
func NewArchiver(writer domain.BlobWriter, source RecordSource) *PredictionArchiver {
	return &PredictionArchiver{writer: writer, source: source}
}

// ArchivePredictions uploads every record issued before the cutoff to
// archive/predictions/YYYY-MM.jsonl and returns how many were written.
func (a *PredictionArchiver) ArchivePredictions(ctx context.Context, before time.Time) (int64, error) {
	recs, err := a.source.ListBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive predictions query: %w", err)
	}
	if len(recs) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(recs)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive predictions marshal: %w", err)
	}

	path := archivePath("predictions", before)
	if len(buf) >= multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), minPartSize)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), jsonlContentType)
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive predictions upload: %w", err)
	}
	return int64(len(recs)), nil
}

// archivePath partitions archives by the cutoff's year and month, e.g.
// archive/predictions/2025-01.jsonl.
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.UTC().Format("2006-01"))
}

func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

// Compile-time interface check.
var _ domain.Archiver = (*PredictionArchiver)(nil)
