package timing

import "strings"

var (
	ones  = []string{"", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}
	teens = []string{"ten", "eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen", "eighteen", "nineteen"}
	tens  = []string{"", "", "twenty", "thirty", "forty", "fifty", "sixty", "seventy", "eighty", "ninety"}
)

// NumberToWords spells out a non-negative integer in English words.
//
// Groupings go up to millions; anything larger is expressed as a multiple
// of a million ("one thousand million"). A hundreds group followed by a
// non-zero remainder gets an "and" ("one hundred and five"), while the
// thousand and million groups never do ("two thousand five").
func NumberToWords(n int64) string {
	if n <= 0 {
		return "zero"
	}
	var parts []string
	if n >= 1_000_000 {
		parts = append(parts, NumberToWords(n/1_000_000), "million")
		n %= 1_000_000
	}
	if n >= 1000 {
		parts = append(parts, NumberToWords(n/1000), "thousand")
		n %= 1000
	}
	if n >= 100 {
		parts = append(parts, ones[n/100], "hundred")
		n %= 100
		if n > 0 {
			parts = append(parts, "and")
		}
	}
	if n >= 20 {
		parts = append(parts, tens[n/10])
		n %= 10
	}
	if n >= 10 {
		parts = append(parts, teens[n-10])
		n = 0
	}
	if n > 0 {
		parts = append(parts, ones[n])
	}
	return strings.Join(parts, " ")
}

// digitWords spells every digit of s individually ("007" -> "zero zero seven").
// Non-digit runes are skipped.
func digitWords(s string) string {
	var parts []string
	for _, r := range s {
		if r < '0' || r > '9' {
			continue
		}
		if r == '0' {
			parts = append(parts, "zero")
			continue
		}
		parts = append(parts, ones[r-'0'])
	}
	return strings.Join(parts, " ")
}
