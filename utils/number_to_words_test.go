package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNumberToWords(t *testing.T) {
	cases := map[int64]string{
		0:             "",
		7:             "Seven",
		19:            "Nineteen",
		40:            "Forty",
		85:            "Eighty Five",
		300:           "Three Hundred",
		1_000:         "One Thousand",
		4_850:         "Four Thousand Eight Hundred Fifty",
		120_015:       "One Hundred Twenty Thousand Fifteen",
		2_000_000:     "Two Million",
		1_000_000_001: "One Billion One",
	}
	for in, want := range cases {
		assert.Equal(t, want, NumberToWords(in), "input %d", in)
	}
}

func TestAmountToWords(t *testing.T) {
	assert.Equal(t, "Zero Euros", AmountToWords(decimal.Zero))
	assert.Equal(t, "One Euro", AmountToWords(decimal.NewFromInt(1)))
	assert.Equal(t, "Three Hundred Euros", AmountToWords(decimal.RequireFromString("300.00")))
	assert.Equal(t, "Twelve Euros and Fifty Cents", AmountToWords(decimal.RequireFromString("12.5")))
	assert.Equal(t, "One Cent", AmountToWords(decimal.RequireFromString("0.014")))
}
