package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// moneyExpr matches a bare decimal number with an optional scale suffix,
// after currency symbols, commas, and whitespace are stripped.
var moneyExpr = regexp.MustCompile(`^([0-9]*\.?[0-9]+)\s*(k|thousand|m|mm|million|b|billion)?$`)

// suffixZeros maps a scale suffix to its power of ten.
var suffixZeros = map[string]int{
	"":         0,
	"k":        3,
	"thousand": 3,
	"m":        6,
	"mm":       6,
	"million":  6,
	"b":        9,
	"billion":  9,
}

// Money canonicalizes a tolerant monetary expression ("$1.5m", "50k",
// "2,000,000") to a fixed-point decimal string with exactly two fraction
// digits. The arithmetic is decimal-string based; no binary floats, so
// "1.5m" is exactly "1500000.00". ok is false when the expression is not
// recognizably monetary.
func Money(s string) (string, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(s))
	cleaned = strings.ReplaceAll(cleaned, ",", "")
	cleaned = strings.ReplaceAll(cleaned, "$", "")
	cleaned = strings.TrimSpace(cleaned)

	m := moneyExpr.FindStringSubmatch(cleaned)
	if m == nil {
		return "", false
	}
	cents, ok := scaleToCents(m[1], suffixZeros[m[2]])
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d.%02d", cents/100, cents%100), true
}

// scaleToCents turns a decimal literal times 10^zeros into integer cents,
// rounding half away from zero on truncated fraction digits.
func scaleToCents(numeric string, zeros int) (int64, bool) {
	intPart, fracPart, _ := strings.Cut(numeric, ".")
	digits := strings.TrimLeft(intPart+fracPart, "0")
	if digits == "" {
		return 0, true
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	exp := zeros + 2 - len(fracPart)
	for ; exp > 0; exp-- {
		if n > math.MaxInt64/10 {
			return 0, false
		}
		n *= 10
	}
	if exp < 0 {
		scale := int64(1)
		for ; exp < 0; exp++ {
			if scale > math.MaxInt64/10 {
				return 0, false
			}
			scale *= 10
		}
		rem := n % scale
		n /= scale
		if rem*2 >= scale {
			n++
		}
	}
	return n, true
}
