package s3blob

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cryptopredict/internal/domain"
	"github.com/alanyoungcy/cryptopredict/internal/store/memory"
	"github.com/alanyoungcy/cryptopredict/internal/store/storetest"
)

type recordingWriter struct {
	path        string
	contentType string
	body        []byte
	multipart   bool
	err         error
}

func (w *recordingWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	if w.err != nil {
		return w.err
	}
	w.path, w.contentType = path, contentType
	w.body, _ = io.ReadAll(data)
	return nil
}

func (w *recordingWriter) PutMultipart(_ context.Context, path string, data io.Reader, _ int64) error {
	if w.err != nil {
		return w.err
	}
	w.path, w.multipart = path, true
	w.body, _ = io.ReadAll(data)
	return nil
}

func TestArchivePredictions(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPredictionStore()
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.Insert(ctx, storetest.Record("bitcoin", base, 100)))
	require.NoError(t, store.Insert(ctx, storetest.Record("bitcoin", base.Add(time.Minute), 101)))
	require.NoError(t, store.Insert(ctx, storetest.Record("bitcoin", base.Add(time.Hour), 102)))

	w := &recordingWriter{}
	n, err := NewArchiver(w, store).ArchivePredictions(ctx, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.Equal(t, "archive/predictions/2024-03.jsonl", w.path)
	assert.Equal(t, jsonlContentType, w.contentType)
	assert.False(t, w.multipart)

	var prices []float64
	sc := bufio.NewScanner(bytes.NewReader(w.body))
	for sc.Scan() {
		var rec domain.PredictionRecord
		require.NoError(t, json.Unmarshal(sc.Bytes(), &rec))
		prices = append(prices, rec.PredictedPrice)
	}
	assert.Equal(t, []float64{100, 101}, prices)
}

func TestArchivePredictionsNothingToDo(t *testing.T) {
	w := &recordingWriter{}
	n, err := NewArchiver(w, memory.NewPredictionStore()).ArchivePredictions(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, w.path)
}

func TestArchivePredictionsUploadError(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPredictionStore()
	require.NoError(t, store.Insert(ctx, storetest.Record("bitcoin", time.Now().Add(-time.Hour), 1)))

	w := &recordingWriter{err: errors.New("bucket gone")}
	n, err := NewArchiver(w, store).ArchivePredictions(ctx, time.Now())
	assert.Error(t, err)
	assert.Zero(t, n)
}

func TestNormaliseEndpoint(t *testing.T) {
	assert.Equal(t, "https://minio:9000", normaliseEndpoint("minio:9000", true))
	assert.Equal(t, "http://minio:9000", normaliseEndpoint("minio:9000", false))
	assert.Equal(t, "http://r2.example", normaliseEndpoint("http://r2.example", true))
}
