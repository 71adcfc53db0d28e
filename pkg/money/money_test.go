package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"12.34", 1234},
		{"12", 1200},
		{"0.01", 1},
		{" 7.5 ", 750},
		{"1.005", 101},
		{"1.004", 100},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCents(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseCents_Invalid(t *testing.T) {
	for _, in := range []string{"", "abc", "0", "-1.00", "0.004"} {
		_, err := ParseCents(in)
		assert.Error(t, err, in)
	}
}

func TestFormatCents(t *testing.T) {
	assert.Equal(t, "10.50", FormatCents(1050))
	assert.Equal(t, "-10.50", FormatCents(-1050))
	assert.Equal(t, "0.07", FormatCents(7))
	assert.Equal(t, "0.00", FormatCents(0))
}

func TestParseSignedCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"-12.34", -1234},
		{"0", 0},
		{"-0.005", -1},
		{"3750", 375000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSignedCents(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseSignedCents("1e30")
	assert.Error(t, err)
}
