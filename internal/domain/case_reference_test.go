package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCaseReference_Valid(t *testing.T) {
	tests := []struct {
		input   string
		id      string
		version string
		number  int
	}{
		{"12345-1", "12345", "1", 1},
		{"10000-11", "10000", "11", 11},
		{"11112345-3", "11112345", "3", 3},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ref, err := ParseCaseReference(tt.input)

			require.NoError(t, err)
			assert.Equal(t, tt.id, ref.RequestID)
			assert.Equal(t, tt.version, ref.RequestVersion)
			assert.Equal(t, tt.number, ref.Version())
			assert.Equal(t, tt.input, ref.String())
		})
	}
}

func TestParseCaseReference_Invalid(t *testing.T) {
	inputs := []string{"12345", "-", "12345-qw", "sd-12", "ahfuefs", "", "12345-1-2", " 12345-1"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseCaseReference(input)

			require.Error(t, err)
			assert.Equal(t, KindInput, KindOf(err))
			assert.Contains(t, err.Error(), "doesn't match the format 11111-1")
		})
	}
}

func TestParseCaseReference_VersionOutOfRange(t *testing.T) {
	_, err := ParseCaseReference("12345-99999999999999999999")

	require.Error(t, err)
	assert.Equal(t, KindInput, KindOf(err))
	assert.Contains(t, err.Error(), "Interpretation request version 99999999999999999999 is out of range")
}
