package value_objects_test

import (
	"testing"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseImportance(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected value_objects.Importance
		wantErr  bool
	}{
		{"low", "low", value_objects.ImportanceLow, false},
		{"medium", "medium", value_objects.ImportanceMedium, false},
		{"high", "high", value_objects.ImportanceHigh, false},
		{"case insensitive", "HIGH", value_objects.ImportanceHigh, false},
		{"invalid", "bogus", value_objects.ImportanceLow, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := value_objects.ParseImportance(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, value_objects.ErrInvalidImportance)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestImportance_Weight(t *testing.T) {
	assert.Equal(t, 1, value_objects.ImportanceLow.Weight())
	assert.Equal(t, 2, value_objects.ImportanceMedium.Weight())
	assert.Equal(t, 3, value_objects.ImportanceHigh.Weight())
}

func TestImportance_String(t *testing.T) {
	assert.Equal(t, "high", value_objects.ImportanceHigh.String())
	assert.Equal(t, "unknown", value_objects.Importance(99).String())
}
