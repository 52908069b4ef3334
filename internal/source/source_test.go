package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"crm-pipeline/internal/model"
	"crm-pipeline/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadCSVTypesValues(t *testing.T) {
	input := "\ufeffname, \"premium\",status,note\nAnn,1200.50,New,\"Smith, Jr.\"\nBob,900,Closed\n"
	records, err := ReadCSV(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Ann", records[0]["name"])
	assert.Equal(t, 1200.5, records[0]["premium"])
	assert.Equal(t, "Smith, Jr.", records[0]["note"])
	assert.Equal(t, 900, records[1]["premium"])
	_, hasNote := records[1]["note"]
	assert.False(t, hasNote, "short rows leave trailing fields unset")

	empty, err := ReadCSV(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestReadJSONShapes(t *testing.T) {
	arr, err := ReadJSON(strings.NewReader(`[{"id":1},{"id":2}]`))
	require.NoError(t, err)
	assert.Len(t, arr, 2)

	wrapped, err := ReadJSON(strings.NewReader(`{"data":[{"id":1}],"total":1}`))
	require.NoError(t, err)
	assert.Len(t, wrapped, 1)

	single, err := ReadJSON(strings.NewReader(`{"id":"L1"}`))
	require.NoError(t, err)
	assert.Equal(t, []model.Record{{"id": "L1"}}, single)

	_, err = ReadJSON(strings.NewReader(`[1,2]`))
	assert.Error(t, err)
	_, err = ReadJSON(strings.NewReader(`{broken`))
	assert.ErrorContains(t, err, "failed to decode JSON")
}

func TestFileProviderLocalAndURL(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,status\n  ann lee ,New\n"), 0o644))

	p := &FileProvider{Path: csvPath, Transforms: []string{"trimStrings", "normalizeNames"}}
	records, err := p.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Ann Lee", records[0]["name"])

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/cases":
			w.Write([]byte(`[{"caseNumber":"C-1","status":"open"}]`))
		case "/cases.csv":
			w.Write([]byte("caseNumber,status\nC-2,closed\n"))
		default:
			http.Error(w, "boom", http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	records, err = (&FileProvider{Path: srv.URL + "/cases"}).Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "C-1", records[0]["caseNumber"])

	records, err = (&FileProvider{Path: srv.URL + "/cases.csv?token=x"}).Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "C-2", records[0]["caseNumber"])

	_, err = (&FileProvider{Path: srv.URL + "/down"}).Records(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.True(t, IsRetryable(err, DefaultRetryConfig))

	_, err = (&FileProvider{Path: filepath.Join(dir, "missing.json")}).Records(context.Background())
	assert.Error(t, err)
	assert.False(t, IsRetryable(err, DefaultRetryConfig))
}

func TestApplyTransformsWorksOnCopies(t *testing.T) {
	in := []model.Record{{"name": " JOHN DOE ", "email": " J@X.COM ", "phone": nil}}
	out, err := ApplyTransforms(in, []string{"trimStrings", "removeNulls", "normalizeNames"})
	require.NoError(t, err)

	assert.Equal(t, model.Record{"name": "John Doe", "email": "J@X.COM"}, out[0])
	assert.Equal(t, " JOHN DOE ", in[0]["name"], "input records are not modified")
	_, hasPhone := in[0]["phone"]
	assert.True(t, hasPhone)

	lower, err := ApplyTransforms(in, []string{"convertToLowercase"})
	require.NoError(t, err)
	assert.Equal(t, " john doe ", lower[0]["name"])

	_, err = ApplyTransforms(in, []string{"calculateBMI"})
	assert.ErrorContains(t, err, "unknown transformation")
}

func TestRetryingBacksOffOnRetryableErrors(t *testing.T) {
	var calls atomic.Int32
	flaky := ProviderFunc(func(ctx context.Context) ([]model.Record, error) {
		if calls.Add(1) < 3 {
			return nil, errors.New("dial tcp: connection refused")
		}
		return []model.Record{{"id": 1}}, nil
	})

	cfg := RetryConfig{MaxAttempts: 4, InitialDelay: 100 * time.Millisecond, MaxDelay: 150 * time.Millisecond, BackoffMultiplier: 2}
	r := WithRetry("leads", flaky, cfg, zerolog.Nop())
	var delays []time.Duration
	r.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	records, err := r.Records(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 150 * time.Millisecond}, delays)
}

func TestRetryingStopsOnPermanentErrors(t *testing.T) {
	var calls atomic.Int32
	broken := ProviderFunc(func(ctx context.Context) ([]model.Record, error) {
		calls.Add(1)
		return nil, &StatusError{URL: "http://crm/leads", StatusCode: http.StatusNotFound}
	})

	r := WithRetry("leads", broken, DefaultRetryConfig, zerolog.Nop())
	r.sleep = func(context.Context, time.Duration) error { return nil }

	_, err := r.Records(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())

	assert.False(t, IsRetryable(context.Canceled, DefaultRetryConfig))
	assert.False(t, IsRetryable(errors.New("open x: permission denied"), DefaultRetryConfig))
	assert.True(t, IsRetryable(errors.New("something odd"), DefaultRetryConfig))
}

func TestBackoff(t *testing.T) {
	cfg := RetryConfig{InitialDelay: time.Second, MaxDelay: 5 * time.Second, BackoffMultiplier: 2}
	assert.Equal(t, time.Second, Backoff(cfg, 1))
	assert.Equal(t, 4*time.Second, Backoff(cfg, 3))
	assert.Equal(t, 5*time.Second, Backoff(cfg, 10))
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	var calls atomic.Int32
	upstream := ProviderFunc(func(ctx context.Context) ([]model.Record, error) {
		calls.Add(1)
		return []model.Record{{"subject": "Renewal", "status": "unread"}}, nil
	})
	cache := NewRedisCache(client, "emails", upstream, time.Minute, zerolog.Nop())
	ctx := context.Background()

	first, err := cache.Records(ctx)
	require.NoError(t, err)
	second, err := cache.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), calls.Load())
	assert.True(t, mr.Exists(CacheKey("emails")))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Records(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	require.NoError(t, cache.Invalidate(ctx))
	assert.False(t, mr.Exists(CacheKey("emails")))

	mr.Close()
	records, err := cache.Records(ctx)
	require.NoError(t, err, "redis outage falls through to upstream")
	assert.Len(t, records, 1)
}

type fakeDatasets map[string][]model.Record

func (f fakeDatasets) LoadDataset(ctx context.Context, entity string) ([]model.Record, error) {
	records, ok := f[entity]
	if !ok {
		return nil, store.ErrNotFound
	}
	return records, nil
}

func TestStoreProviderAndRegistry(t *testing.T) {
	datasets := fakeDatasets{"leads": {{"name": " Ann "}}}
	reg := NewRegistry()
	reg.Register("leads", &StoreProvider{Store: datasets, Entity: "leads", Transforms: []string{"trimStrings"}})
	reg.Register("cases", &StoreProvider{Store: datasets, Entity: "cases"})
	reg.Register("fixtures", Static{{"id": 1}})

	assert.Equal(t, []string{"cases", "fixtures", "leads"}, reg.Entities())

	p, err := reg.Get("leads")
	require.NoError(t, err)
	records, err := p.Records(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Ann", records[0]["name"])

	p, err = reg.Get("cases")
	require.NoError(t, err)
	records, err = p.Records(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)

	_, err = reg.Get("policies")
	assert.ErrorIs(t, err, ErrUnknownEntity)
}
