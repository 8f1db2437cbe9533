package util

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"59.99", "59.99"},
		{" 39.5 ", "39.5"},
		{"", "0"},
		{"free", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.True(t, decimal.RequireFromString(tt.want).Equal(ParsePrice(tt.in)))
		})
	}
}

func TestFirstPrice(t *testing.T) {
	assert.True(t, decimal.RequireFromString("39.50").Equal(FirstPrice("", "39.50")))
	assert.True(t, decimal.RequireFromString("12").Equal(FirstPrice("12", "39.50")))
	assert.True(t, FirstPrice("", " ").IsZero())
}

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		amount string
		want   int64
	}{
		{"129.5784", 12958},
		{"0.005", 1},
		{"0.004", 0},
		{"10", 1000},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			assert.Equal(t, tt.want, ToMinorUnits(decimal.RequireFromString(tt.amount)))
		})
	}

	assert.Equal(t, "129.58", FromMinorUnits(12958).StringFixed(2))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "$129.58", FormatAmount(decimal.RequireFromString("129.5784")))
	assert.Equal(t, "$0.00", FormatAmount(decimal.Zero))
}
