package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var ones = []string{
	"", "One", "Two", "Three", "Four", "Five", "Six", "Seven", "Eight", "Nine",
	"Ten", "Eleven", "Twelve", "Thirteen", "Fourteen", "Fifteen",
	"Sixteen", "Seventeen", "Eighteen", "Nineteen",
}

var tens = []string{
	"", "", "Twenty", "Thirty", "Forty", "Fifty", "Sixty", "Seventy", "Eighty", "Ninety",
}

var scales = []struct {
	size int64
	name string
}{
	{1_000_000_000, "Billion"},
	{1_000_000, "Million"},
	{1_000, "Thousand"},
}

func NumberToWords(num int64) string {
	switch {
	case num <= 0:
		return ""
	case num < 20:
		return ones[num]
	case num < 100:
		return strings.TrimSpace(tens[num/10] + " " + ones[num%10])
	case num < 1000:
		remainder := num % 100
		if remainder == 0 {
			return ones[num/100] + " Hundred"
		}
		return ones[num/100] + " Hundred " + NumberToWords(remainder)
	}
	for _, s := range scales {
		if num >= s.size {
			remainder := num % s.size
			if remainder == 0 {
				return NumberToWords(num/s.size) + " " + s.name
			}
			return NumberToWords(num/s.size) + " " + s.name + " " + NumberToWords(remainder)
		}
	}
	return ""
}

// AmountToWords spells a money amount in euros and cents.
func AmountToWords(amount decimal.Decimal) string {
	amount = amount.Abs().Round(2)
	euros := amount.IntPart()
	cents := amount.Sub(decimal.NewFromInt(euros)).Shift(2).IntPart()

	var parts []string
	if euros > 0 {
		parts = append(parts, fmt.Sprintf("%s %s", NumberToWords(euros), plural(euros, "Euro")))
	}
	if cents > 0 {
		parts = append(parts, fmt.Sprintf("%s %s", NumberToWords(cents), plural(cents, "Cent")))
	}

	if len(parts) == 0 {
		return "Zero Euros"
	}
	return strings.Join(parts, " and ")
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
