package reports

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	appErrors "github.com/ecowaste/admintrack/pkg/errors"
)

func TestRenderCSVTabularUsesColumnOrder(t *testing.T) {
	report := &Report{
		Type:    TypeSecurity,
		Columns: []string{"a", "b"},
		Rows: []map[string]any{
			{"a": int64(1), "b": int64(2)},
			{"a": int64(3), "b": int64(4)},
		},
	}

	var buf strings.Builder
	require.NoError(t, RenderCSV(&buf, report))
	require.Equal(t, "a,b\n1,2\n3,4\n", buf.String())
}

func TestRenderCSVTabularEmptyIsError(t *testing.T) {
	report := &Report{Type: TypeSecurity, Columns: []string{"a"}}

	var buf strings.Builder
	err := RenderCSV(&buf, report)
	require.ErrorIs(t, err, appErrors.ErrEmptyResult)
}

func TestRenderCSVScalarMetricValue(t *testing.T) {
	report := &Report{
		Type: TypeOverview,
		Metrics: []Metric{
			{Name: "total_sessions", Value: int64(12)},
			{Name: "avg_session_duration", Value: 93.5},
		},
	}

	var buf strings.Builder
	require.NoError(t, RenderCSV(&buf, report))
	require.Equal(t, "metric,value\ntotal_sessions,12\navg_session_duration,93.5\n", buf.String())
}

func TestRenderCSVScalarEmbedsNestedJSON(t *testing.T) {
	report := &Report{
		Type: TypeOverview,
		Metrics: []Metric{
			{Name: "daily_activity", Value: []map[string]any{{"date": "2026-03-10"}}},
		},
	}

	var buf strings.Builder
	require.NoError(t, RenderCSV(&buf, report))
	require.Contains(t, buf.String(), `"[{""date"":""2026-03-10""}]"`)
}

func TestReportFilename(t *testing.T) {
	report := &Report{Type: TypeFeatureUsage, Range: Range{Label: "30d"}}
	require.Equal(t, "admin_analytics_feature_usage_30d.csv", report.Filename("csv"))
	require.Equal(t, "admin_analytics_feature_usage_30d.json", report.Filename("json"))
}
