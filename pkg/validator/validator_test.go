package validator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type eventPayload struct {
	Severity string `json:"event_severity" validate:"required,severity"`
}

func TestSeverityRule(t *testing.T) {
	for _, level := range []string{"LOW", "MEDIUM", "HIGH", "CRITICAL", "low", "Critical"} {
		require.NoError(t, ValidateStruct(eventPayload{Severity: level}), level)
	}

	err := ValidateStruct(eventPayload{Severity: "EXTREME"})
	require.Error(t, err)

	failures, ok := err.(ValidationErrors)
	require.True(t, ok)
	require.Len(t, failures, 1)
	require.Equal(t, "event_severity", failures[0].Field)
	require.Equal(t, "severity", failures[0].Tag)
}

func TestValidationErrorsUseJSONFieldNames(t *testing.T) {
	type payload struct {
		Username string `json:"username" validate:"required,max=8"`
	}

	err := ValidateStruct(payload{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "username failed on required")

	err = ValidateStruct(payload{Username: "waytoolongforthis"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "username failed on max=8")
}
