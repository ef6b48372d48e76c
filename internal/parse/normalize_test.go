package parse

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in   string
		want *float64
	}{
		{"1.234,56", ptr(1234.56)},
		{"275,00", ptr(275.00)},
		{"50", ptr(50.00)},
		{"1. 253, 43", ptr(1253.43)},
		{"*1.253,43 TL", ptr(1253.43)},
		{"1,234.56", ptr(1234.56)},
		{"1.253.43", ptr(1253.43)},
		{"18,5", ptr(18.5)},
		{"275,", ptr(275)},
		{"0,004", ptr(0)},
		{"", nil},
		{"abc", nil},
		{".,", nil},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseAmount(tt.in)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 1e-9)
		})
	}
}

func TestParseAmountIsIdempotent(t *testing.T) {
	for _, in := range []string{"1.234,56", "275,00", "50", "1. 253, 43", "0,5", "12.345.678,9", "3.14159"} {
		first := ParseAmount(in)
		require.NotNil(t, first, in)
		second := ParseAmount(FormatAmount(*first))
		require.NotNil(t, second, in)
		assert.Equal(t, *first, *second, in)
	}
}

func TestGlueDigitGroups(t *testing.T) {
	assert.Equal(t, "TOPLAM 1.253,43", GlueDigitGroups("TOPLAM 1 253,43"))
	assert.Equal(t, "1.253,43", GlueDigitGroups("1. 253, 43"))
	assert.Equal(t, "KDV %18 125,00", GlueDigitGroups("KDV %18 125,00"))
}

func ptr(f float64) *float64 { return &f }
