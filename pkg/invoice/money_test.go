package invoice

import (
	"math/rand"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   string
		currency string
		want     string
	}{
		{"329.99", "USD", "$329.99"},
		{"1234.5", "USD", "$1,234.50"},
		{"0", "", "$0.00"},
		{"1234.5", "EUR", "1.234,50 €"},
		{"10", "GBP", "£10.00"},
		{"1500", "JPY", "¥1,500"},
		{"5", "NOPE", "NOPE 5.00"},
		{"-5", "USD", "-$5.00"},
		{"1234567890123456.78", "USD", "$1,234,567,890,123,456.78"},
		{"1234567890123456.78", "EUR", "1.234.567.890.123.456,78 €"},
		{"98765432109876543", "JPY", "¥98,765,432,109,876,543"},
		{"999.995", "USD", "$1,000.00"},
		{"-0.001", "USD", "$0.00"},
		{"123456.789", "NOPE", "NOPE 123,456.79"},
	}

	for _, tt := range tests {
		t.Run(tt.currency+" "+tt.amount, func(t *testing.T) {
			got := FormatMoney(decimal.RequireFromString(tt.amount), tt.currency)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "0", groupThousands("0", ","))
	assert.Equal(t, "999", groupThousands("999", ","))
	assert.Equal(t, "1,000", groupThousands("1000", ","))
	assert.Equal(t, "123.456.789", groupThousands("123456789", "."))
	assert.Equal(t, "1234", groupThousands("1234", ""))
}

func TestGenerateNumber(t *testing.T) {
	now := time.Date(2024, time.March, 9, 15, 4, 5, 0, time.UTC)
	pattern := regexp.MustCompile(`^INV-20240309-[1-9][0-9]{3}$`)

	rnd := rand.New(rand.NewSource(42))
	for i := 0; i < 50; i++ {
		assert.Regexp(t, pattern, GenerateNumber(now, rnd))
	}
	assert.Regexp(t, pattern, GenerateNumber(now, nil))
}

func TestGenerateNumber_Deterministic(t *testing.T) {
	now := time.Date(2024, time.March, 9, 0, 0, 0, 0, time.UTC)
	a := GenerateNumber(now, rand.New(rand.NewSource(7)))
	b := GenerateNumber(now, rand.New(rand.NewSource(7)))
	assert.Equal(t, a, b)
}
