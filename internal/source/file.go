package source

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"crm-pipeline/internal/model"
	"crm-pipeline/pkg/utils"
)

// StatusError reports a non-2xx response from a remote source.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Temporary reports whether the server side failed and a retry may help.
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// FileProvider reads a CSV or JSON record set from a local path or an
// http(s) URL. The format follows the extension; URLs without one are
// read as JSON.
type FileProvider struct {
	Path       string
	Transforms []string
	Client     *http.Client
}

// Records loads and transforms the record set.
func (p *FileProvider) Records(ctx context.Context) ([]model.Record, error) {
	body, err := p.open(ctx)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var records []model.Record
	switch p.format() {
	case "csv":
		records, err = ReadCSV(ctx, body)
	default:
		records, err = ReadJSON(body)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", p.Path, err)
	}
	return ApplyTransforms(records, p.Transforms)
}

func (p *FileProvider) format() string {
	path := p.Path
	if isURL(path) {
		path = strings.SplitN(path, "?", 2)[0]
	}
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "csv"
	}
	return "json"
}

func (p *FileProvider) open(ctx context.Context) (io.ReadCloser, error) {
	if !isURL(p.Path) {
		file, err := os.Open(p.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to open source file: %w", err)
		}
		return file, nil
	}

	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Path, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid source url: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to GET %s: %w", p.Path, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, &StatusError{URL: p.Path, StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}

func isURL(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// ReadCSV turns a headed CSV stream into records. Cell values are typed
// with utils.ParseValue so numeric columns sort and sum as numbers.
func ReadCSV(ctx context.Context, r io.Reader) ([]model.Record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return []model.Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i, h := range headers {
		headers[i] = strings.ReplaceAll(strings.TrimSpace(h), `"`, "")
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}

	records := []model.Record{}
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		row, err := reader.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, fmt.Errorf("CSV line %d: %w", line, err)
		}

		rec := make(model.Record, len(headers))
		for i, h := range headers {
			if h == "" || i >= len(row) {
				continue
			}
			rec[h] = utils.ParseValue(row[i])
		}
		records = append(records, rec)
	}
}

// ReadJSON accepts an array of objects, a single object, or an object
// wrapping the array under "data" or "records".
func ReadJSON(r io.Reader) ([]model.Record, error) {
	var raw interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return []model.Record{}, nil
		}
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	switch data := raw.(type) {
	case []interface{}:
		return objects(data)
	case map[string]interface{}:
		for _, key := range []string{"data", "records"} {
			if items, ok := data[key].([]interface{}); ok {
				return objects(items)
			}
		}
		return []model.Record{model.Record(data)}, nil
	case nil:
		return []model.Record{}, nil
	default:
		return nil, fmt.Errorf("unexpected JSON structure %T", raw)
	}
}

func objects(items []interface{}) ([]model.Record, error) {
	records := make([]model.Record, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("item %d is %T, want object", i, item)
		}
		records = append(records, model.Record(m))
	}
	return records, nil
}
