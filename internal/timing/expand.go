package timing

import (
	"regexp"
	"strconv"
	"strings"
)

// number matches a plain integer or one with comma-separated thousand groups.
const number = `(?:\d{1,3}(?:,\d{3})+|\d+)`

var (
	currencyRe = regexp.MustCompile(`\$(` + number + `(?:\.\d+)?)`)
	percentRe  = regexp.MustCompile(`(` + number + `(?:\.\d+)?)%`)
	// The integer part of a decimal like 2019.5 still reads as a year, and its
	// fraction digits run into it ("twenty nineteenfive").
	yearRe     = regexp.MustCompile(`\b(19|20)(\d{2})\b`)
	decimalRe  = regexp.MustCompile(`(` + number + `)\.(\d+)`)
	integerRe  = regexp.MustCompile(number)
	unspokenRe = regexp.MustCompile(`[^a-z0-9\s]`)
	spaceRe    = regexp.MustCompile(`\s+`)
)

// Expand rewrites text the way a narrator would read it aloud, for timing
// purposes only. Rules apply in a fixed order: currency, percent, years,
// decimals, remaining integers, then punctuation stripping and whitespace
// collapsing. Years and decimals must run before plain integers so their
// digits are not consumed first.
func Expand(text string) string {
	s := strings.TrimSpace(strings.ToLower(text))
	if s == "" {
		return ""
	}

	s = currencyRe.ReplaceAllString(s, "$1 us dollars")
	s = percentRe.ReplaceAllString(s, "$1 percent")
	s = yearRe.ReplaceAllStringFunc(s, func(m string) string {
		return yearWords(m[:2], m[2:])
	})
	s = decimalRe.ReplaceAllStringFunc(s, func(m string) string {
		sub := decimalRe.FindStringSubmatch(m)
		return integerWords(sub[1]) + " point " + fractionWords(sub[2])
	})
	s = integerRe.ReplaceAllStringFunc(s, integerWords)

	s = unspokenRe.ReplaceAllString(s, "")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// yearWords reads a 19xx/20xx year as two pairs ("twenty twenty five").
// Round centuries and the first decade of a century read the conventional
// way: 1900 "nineteen hundred", 1905 "nineteen oh five", 2000 "two thousand",
// 2007 "two thousand seven".
func yearWords(century, rest string) string {
	c, _ := strconv.ParseInt(century, 10, 64)
	r, _ := strconv.ParseInt(rest, 10, 64)
	switch {
	case c == 20 && r < 10:
		if r == 0 {
			return "two thousand"
		}
		return "two thousand " + NumberToWords(r)
	case r == 0:
		return NumberToWords(c) + " hundred"
	case r < 10:
		return NumberToWords(c) + " oh " + NumberToWords(r)
	}
	return NumberToWords(c) + " " + NumberToWords(r)
}

// integerWords spells a possibly comma-grouped integer. Values too large
// for int64 are read digit by digit.
func integerWords(s string) string {
	digits := strings.ReplaceAll(s, ",", "")
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return digitWords(digits)
	}
	return NumberToWords(n)
}

// fractionWords reads the digits after a decimal point. Leading zeros are
// read individually so 0.05 becomes "zero point zero five".
func fractionWords(s string) string {
	trimmed := strings.TrimLeft(s, "0")
	lead := digitWords(s[:len(s)-len(trimmed)])
	if trimmed == "" {
		return lead
	}
	rest := integerWords(trimmed)
	if lead == "" {
		return rest
	}
	return lead + " " + rest
}
