package invoice

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// moneyFormat describes how amounts of one currency are written
type moneyFormat struct {
	locale  language.Tag
	symbol  string
	suffix  bool // symbol follows the number, separated by a space
	group   string
	decimal string
}

var moneyFormats = map[string]moneyFormat{
	"USD": {locale: language.AmericanEnglish, symbol: "$"},
	"EUR": {locale: language.MustParse("de-DE"), symbol: "€", suffix: true},
	"GBP": {locale: language.BritishEnglish, symbol: "£"},
	"CAD": {locale: language.MustParse("en-CA"), symbol: "$"},
	"AUD": {locale: language.MustParse("en-AU"), symbol: "$"},
	"JPY": {locale: language.Japanese, symbol: "¥"},
	"KES": {locale: language.MustParse("en-KE"), symbol: "Ksh"},
}

var fallbackGroup, fallbackDecimal = localeSeparators(language.AmericanEnglish)

func init() {
	for code, f := range moneyFormats {
		f.group, f.decimal = localeSeparators(f.locale)
		moneyFormats[code] = f
	}
}

// localeSeparators reads the grouping and decimal symbols of tag off a
// formatted sample, so amounts themselves never pass through float64.
func localeSeparators(tag language.Tag) (group, decimalSep string) {
	sample := message.NewPrinter(tag).Sprint(number.Decimal(12345.5, number.Scale(1)))
	i := strings.Index(sample, "12")
	j := strings.Index(sample, "345")
	k := strings.LastIndex(sample, "5")
	if i < 0 || j < i+2 || k < j+3 {
		return ",", "."
	}
	return sample[i+2 : j], sample[j+3 : k]
}

// groupThousands inserts sep between every three digits from the right
func groupThousands(digits, sep string) string {
	if len(digits) <= 3 || sep == "" {
		return digits
	}
	var b strings.Builder
	head := len(digits) % 3
	if head == 0 {
		head = 3
	}
	b.WriteString(digits[:head])
	for i := head; i < len(digits); i += 3 {
		b.WriteString(sep)
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// FormatMoney renders amount in the conventions of the currency's home locale.
// Currencies outside the table use en-US grouping with the ISO code as prefix.
// Digits come from the decimal itself, so large amounts keep full precision.
func FormatMoney(amount decimal.Decimal, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	format, ok := moneyFormats[code]
	if !ok {
		format = moneyFormat{symbol: code + " ", group: fallbackGroup, decimal: fallbackDecimal}
	}

	scale := Scale(code)
	rounded := amount.Round(scale)
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Neg()
	}

	whole, frac, _ := strings.Cut(rounded.StringFixed(scale), ".")
	digits := groupThousands(whole, format.group)
	if frac != "" {
		digits += format.decimal + frac
	}

	if format.suffix {
		return sign + digits + " " + format.symbol
	}
	return sign + format.symbol + digits
}
