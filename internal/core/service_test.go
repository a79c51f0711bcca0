package core

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/cleaner/internal/codec"
	"github.com/JonMunkholm/cleaner/internal/dataset"
	"github.com/JonMunkholm/cleaner/internal/logging"
	"github.com/JonMunkholm/cleaner/internal/metrics"
	"github.com/JonMunkholm/cleaner/internal/pipeline"
	"github.com/JonMunkholm/cleaner/internal/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, opts Options) (*Service, *metrics.Metrics) {
	t.Helper()
	store, err := storage.NewStore(t.TempDir(), "")
	require.NoError(t, err)
	m := metrics.New(prometheus.NewRegistry())
	return NewService(store, m, opts), m
}

func artifactDirs(t *testing.T, s *Service) []string {
	t.Helper()
	entries, err := os.ReadDir(s.Store().Dir())
	require.NoError(t, err)
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, e.Name())
		}
	}
	return dirs
}

func TestService_CleanCSV(t *testing.T) {
	svc, m := newTestService(t, Options{})

	input := "Country,Date,Cases,Deaths,Recovered\n" +
		"  usa ,2020-01-01,2,0,1\n" +
		"USA,2020-01-01,3,1,1\n" +
		"USA,2020-01-01,3,1,1\n"

	res, err := svc.Clean(context.Background(), "covid.csv", []byte(input))
	require.NoError(t, err)

	assert.Equal(t, "covid.csv", res.FileName)
	assert.Equal(t, storage.DefaultCleanedName, res.CleanedName)
	assert.Equal(t, []string{"country", "date", "cases", "deaths", "recovered"}, res.Dataset.Columns())
	assert.Equal(t, [][]dataset.Value{{"Usa", "2020-01-01", int64(5), int64(1), int64(2)}}, res.Dataset.Rows())
	assert.Equal(t, 1, res.Report.DuplicatesDropped)
	assert.True(t, res.Report.Aggregated)

	cleanedPath, err := svc.Store().Path(res.ArtifactID, res.CleanedName)
	require.NoError(t, err)
	got, err := os.ReadFile(cleanedPath)
	require.NoError(t, err)
	assert.Equal(t, "country,date,cases,deaths,recovered\nUsa,2020-01-01,5,1,2\n", string(got))

	rawPath, err := svc.Store().Path(res.ArtifactID, "covid.csv")
	require.NoError(t, err)
	raw, err := os.ReadFile(rawPath)
	require.NoError(t, err)
	assert.Equal(t, input, string(raw))

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(metrics.OutcomeCleaned)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveUploads))
}

func TestService_CleanJSON(t *testing.T) {
	svc, _ := newTestService(t, Options{})

	res, err := svc.Clean(context.Background(), "data.JSON",
		[]byte(`[{"Country Name":" france ","Value":1},{"Country Name":null,"Value":2}]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"country_name", "value"}, res.Dataset.Columns())
	assert.Equal(t, 1, res.Report.NullRowsDropped)
	assert.False(t, res.Report.Aggregated)
}

func TestService_UnsupportedFormatSavesOnlyRaw(t *testing.T) {
	svc, m := newTestService(t, Options{})

	_, err := svc.Clean(context.Background(), "notes.txt", []byte("hello"))

	var unsupported *codec.UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported), "got %v", err)
	assert.Equal(t, "Unsupported file format", MapError(err).Message)

	dirs := artifactDirs(t, svc)
	require.Len(t, dirs, 1)
	files, err := os.ReadDir(filepath.Join(svc.Store().Dir(), dirs[0]))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "notes.txt", files[0].Name())

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(metrics.OutcomeUnsupported)))
}

func TestService_ParseErrorWritesNoCleanedFile(t *testing.T) {
	svc, m := newTestService(t, Options{})

	_, err := svc.Clean(context.Background(), "bad.json", []byte(`{"a": [1, 2`))

	var parseErr *codec.ParseError
	require.True(t, errors.As(err, &parseErr), "got %v", err)
	assert.Equal(t, "FILE002", MapError(err).Code)

	dirs := artifactDirs(t, svc)
	require.Len(t, dirs, 1)
	_, err = svc.Store().Path(dirs[0], storage.DefaultCleanedName)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(metrics.OutcomeParseError)))
}

func TestService_NameCollision(t *testing.T) {
	svc, m := newTestService(t, Options{})

	_, err := svc.Clean(context.Background(), "c.csv", []byte("A B,a_b\n1,2\n"))

	var collision *pipeline.NameCollisionError
	require.True(t, errors.As(err, &collision), "got %v", err)
	assert.Equal(t, "a_b", collision.Name)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(metrics.OutcomeCollision)))
}

func TestService_Rejections(t *testing.T) {
	svc, _ := newTestService(t, Options{MaxFileSize: 4})

	_, err := svc.Clean(context.Background(), "", []byte("a\n1\n"))
	assert.ErrorIs(t, err, ErrNoSelectedFile)

	_, err = svc.Clean(context.Background(), "big.csv", []byte("a,b\n1,2\n"))
	assert.ErrorIs(t, err, ErrFileTooLarge)
	assert.Contains(t, err.Error(), "8 B exceeds 4 B")

	assert.Empty(t, artifactDirs(t, svc))
}

func TestService_Busy(t *testing.T) {
	svc, m := newTestService(t, Options{MaxConcurrent: 1, MaxWait: 20 * time.Millisecond})

	release, err := svc.limiter.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	_, err = svc.Clean(context.Background(), "a.csv", []byte("a\n1\n"))
	assert.ErrorIs(t, err, ErrTooManyUploads)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(metrics.OutcomeBusy)))
	assert.Equal(t, 1, svc.LimiterStatus().Active)
}

func TestService_ConcurrentUploadsGetDistinctArtifacts(t *testing.T) {
	svc, _ := newTestService(t, Options{MaxConcurrent: 4})

	const n = 8
	results := make([]*Result, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := svc.Clean(context.Background(), "same.csv", []byte(fmt.Sprintf("v\n%d\n", i)))
			if err != nil {
				t.Errorf("Clean(%d): %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	seen := make(map[string]bool)
	for i, res := range results {
		require.NotNil(t, res)
		assert.False(t, seen[res.ArtifactID], "artifact id reused")
		seen[res.ArtifactID] = true

		path, err := svc.Store().Path(res.ArtifactID, res.CleanedName)
		require.NoError(t, err)
		got, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("v\n%d\n", i), string(got))
	}

	require.NoError(t, svc.WaitForUploads(context.Background()))
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, metrics.OutcomeCleaned, Outcome(nil))
	assert.Equal(t, metrics.OutcomeMissingFile, Outcome(ErrMissingFile))
	assert.Equal(t, metrics.OutcomeFailed, Outcome(errors.New("disk full")))
}

func TestService_LogsCarryArtifactAndFile(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(logging.New(&buf, "info", "text"))
	t.Cleanup(func() { slog.SetDefault(prev) })

	svc, _ := newTestService(t, Options{})
	res, err := svc.Clean(context.Background(), "people.csv", []byte("Name\nann\n"))
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "upload cleaned")
	assert.Contains(t, out, "file=people.csv")
	assert.Contains(t, out, "artifact_id="+res.ArtifactID)
}
