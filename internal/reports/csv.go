package reports

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	appErrors "github.com/ecowaste/admintrack/pkg/errors"
)

// RenderCSV writes the report as CSV. Scalar reports become a metric/value
// table with nested values embedded as JSON; tabular reports use the report
// columns as the header. A tabular report with no rows is an error rather
// than a bare header line.
func RenderCSV(w io.Writer, report *Report) error {
	writer := csv.NewWriter(w)

	if report.Tabular() {
		if len(report.Rows) == 0 {
			return appErrors.ErrEmptyResult
		}
		if err := writer.Write(report.Columns); err != nil {
			return fmt.Errorf("reports: write csv header: %w", err)
		}
		for _, row := range report.Rows {
			record := make([]string, len(report.Columns))
			for i, column := range report.Columns {
				value, err := formatCSVValue(row[column])
				if err != nil {
					return fmt.Errorf("reports: format csv cell %s: %w", column, err)
				}
				record[i] = value
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("reports: write csv row: %w", err)
			}
		}
	} else {
		if err := writer.Write([]string{"metric", "value"}); err != nil {
			return fmt.Errorf("reports: write csv header: %w", err)
		}
		for _, metric := range report.Metrics {
			value, err := formatCSVValue(metric.Value)
			if err != nil {
				return fmt.Errorf("reports: format csv metric %s: %w", metric.Name, err)
			}
			if err := writer.Write([]string{metric.Name, value}); err != nil {
				return fmt.Errorf("reports: write csv row: %w", err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCSVValue(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(encoded), nil
	}
}
