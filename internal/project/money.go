package project

import "github.com/dustin/go-humanize"

// FormatMoney renders v with two decimals and thousands separators.
func FormatMoney(v float64) string {
	return humanize.FormatFloat("#,###.##", v)
}

// FormatCount renders n with thousands separators.
func FormatCount(n int) string {
	return humanize.Comma(int64(n))
}
