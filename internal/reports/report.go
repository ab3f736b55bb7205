package reports

import (
	"encoding/json"
	"fmt"
	"time"
)

// Report types.
const (
	TypeOverview      = "overview"
	TypeAdminActivity = "admin_activity"
	TypeSecurity      = "security"
	TypePerformance   = "performance"
	TypeFeatureUsage  = "feature_usage"
	TypeSystemHealth  = "system_health"
)

// ValidType reports whether t names a known report type.
func ValidType(t string) bool {
	switch t {
	case TypeOverview, TypeAdminActivity, TypeSecurity, TypePerformance,
		TypeFeatureUsage, TypeSystemHealth:
		return true
	}
	return false
}

// Metric is one named value of a scalar report. Order is preserved so
// renderers emit metrics in a stable sequence.
type Metric struct {
	Name  string
	Value any
}

// Report is the renderer-independent result of a generation run. Scalar
// reports carry Metrics; tabular reports carry Columns and Rows.
type Report struct {
	Type        string
	Range       Range
	GeneratedAt time.Time
	Metrics     []Metric
	Columns     []string
	Rows        []map[string]any
}

// Tabular reports whether the report carries row data rather than metrics.
func (r *Report) Tabular() bool {
	return r.Columns != nil
}

// Filename returns the download name for the report in the given format.
func (r *Report) Filename(ext string) string {
	return fmt.Sprintf("admin_analytics_%s_%s.%s", r.Type, r.Range.Label, ext)
}

// MarshalJSON renders metrics as an ordered object and rows as an array of
// objects, under a shared envelope.
func (r *Report) MarshalJSON() ([]byte, error) {
	envelope := map[string]any{
		"report_type":  r.Type,
		"range":        r.Range.Label,
		"start_date":   r.Range.Start.Format("2006-01-02"),
		"end_date":     r.Range.End.AddDate(0, 0, -1).Format("2006-01-02"),
		"generated_at": r.GeneratedAt.UTC().Format(time.RFC3339),
	}
	if r.Tabular() {
		rows := r.Rows
		if rows == nil {
			rows = []map[string]any{}
		}
		envelope["rows"] = rows
	} else {
		data := make(map[string]any, len(r.Metrics))
		for _, m := range r.Metrics {
			data[m.Name] = m.Value
		}
		envelope["metrics"] = data
	}
	return json.Marshal(envelope)
}
