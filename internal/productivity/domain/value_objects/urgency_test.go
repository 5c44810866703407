package value_objects_test

import (
	"testing"

	"github.com/mugi0227/nagi-scheduler/internal/productivity/domain/value_objects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUrgency(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected value_objects.Urgency
		wantErr  bool
	}{
		{"low", "low", value_objects.UrgencyLow, false},
		{"medium", "medium", value_objects.UrgencyMedium, false},
		{"high", "high", value_objects.UrgencyHigh, false},
		{"invalid", "bogus", value_objects.UrgencyLow, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := value_objects.ParseUrgency(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, value_objects.ErrInvalidUrgency)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestUrgency_Weight(t *testing.T) {
	assert.Equal(t, 1, value_objects.UrgencyLow.Weight())
	assert.Equal(t, 3, value_objects.UrgencyHigh.Weight())
}
