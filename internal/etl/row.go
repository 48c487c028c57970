package etl

// ── Row ────────────────────────────────────────────────────
// Common intermediate format: every source emits Rows keyed by its own
// column names; transforms turn them into record fields.

// Row is a single row of data flowing through the import pipeline.
type Row struct {
	Data map[string]any `json:"data"`
}
