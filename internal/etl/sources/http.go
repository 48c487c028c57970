package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dataviews/internal/etl"
)

// ── HTTP Source ─────────────────────────────────────────────
// Fetches a JSON document over HTTP and emits the objects found at dataPath.

type httpSource struct{}

func init() { etl.RegisterSource(&httpSource{}) }

func (s *httpSource) Spec() etl.SourceSpec {
	return etl.SourceSpec{
		Type:  "http",
		Label: "HTTP (JSON)",
		ConfigFields: []etl.ConfigField{
			{Key: "url", Label: "URL", Required: true, Help: "Endpoint returning JSON"},
			{Key: "headers", Label: "Headers", Help: `JSON object of request headers, e.g. {"Authorization":"Bearer ..."}`},
			{Key: "dataPath", Label: "Data Path", Help: "Dot-separated path to the array in the response"},
		},
	}
}

func (s *httpSource) Read(ctx context.Context, cfg etl.SourceConfig) (<-chan etl.Row, <-chan error) {
	return streamRows(ctx, func() ([]etl.Row, error) { return fetchHTTP(ctx, cfg) })
}

func fetchHTTP(ctx context.Context, cfg etl.SourceConfig) ([]etl.Row, error) {
	url := cfg.String("url")
	if url == "" {
		return nil, fmt.Errorf("url is required")
	}

	client := &http.Client{Timeout: 30 * time.Second}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	if headersStr := cfg.String("headers"); headersStr != "" {
		var headers map[string]string
		if err := json.Unmarshal([]byte(headersStr), &headers); err != nil {
			return nil, fmt.Errorf("parse headers: %w", err)
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("http %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var raw any
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return rowsAt(raw, cfg.String("dataPath"))
}

// streamRows emits the rows returned by load, honouring ctx.
func streamRows(ctx context.Context, load func() ([]etl.Row, error)) (<-chan etl.Row, <-chan error) {
	out := make(chan etl.Row, 100)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		rows, err := load()
		if err != nil {
			errCh <- err
			return
		}
		for _, row := range rows {
			select {
			case out <- row:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, errCh
}

// rowsAt walks a dot-separated path into nested maps and converts what it
// finds into rows.
func rowsAt(raw any, path string) ([]etl.Row, error) {
	if path != "" {
		for _, part := range strings.Split(path, ".") {
			m, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid data path: %q not found", part)
			}
			raw = m[part]
		}
	}

	switch v := raw.(type) {
	case []any:
		rows := make([]etl.Row, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				rows = append(rows, etl.Row{Data: flattenMap(m)})
			}
		}
		return rows, nil
	case map[string]any:
		// Single object → single row.
		return []etl.Row{{Data: flattenMap(v)}}, nil
	default:
		return nil, fmt.Errorf("expected an array or object of rows, got %T", raw)
	}
}

// flattenMap keeps scalars and arrays of scalars; nested objects are
// serialized as JSON strings.
func flattenMap(m map[string]any) map[string]any {
	flat := make(map[string]any, len(m))
	for k, v := range m {
		switch vv := v.(type) {
		case string, float64, bool, nil:
			flat[k] = v
		case []any:
			if scalarList(vv) {
				flat[k] = vv
				continue
			}
			b, _ := json.Marshal(v)
			flat[k] = string(b)
		default:
			b, _ := json.Marshal(v)
			flat[k] = string(b)
		}
	}
	return flat
}

func scalarList(vs []any) bool {
	for _, v := range vs {
		switch v.(type) {
		case string, float64, bool:
		default:
			return false
		}
	}
	return true
}
