// Package utils provides shared utility functions.
package utils

import (
	"fmt"
	"strings"
)

// FormatUSDT formats a USDT amount with thousands separators and two
// decimal places, e.g. "12,345.67 USDT".
func FormatUSDT(amount float64) string {
	return groupThousands(amount) + " USDT"
}

// FormatEUR formats a euro amount, e.g. "1,234.56 €".
func FormatEUR(amount float64) string {
	return groupThousands(amount) + " €"
}

func groupThousands(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	str := fmt.Sprintf("%.2f", amount)
	parts := strings.Split(str, ".")
	intPart := parts[0]
	decPart := parts[1]

	n := len(intPart)
	if n > 3 {
		var groups []string
		for n > 3 {
			groups = append([]string{intPart[n-3:]}, groups...)
			intPart = intPart[:n-3]
			n = len(intPart)
		}
		groups = append([]string{intPart}, groups...)
		intPart = strings.Join(groups, ",")
	}

	result := intPart + "." + decPart
	if negative {
		result = "-" + result
	}
	return result
}

// FormatPercent formats a percentage with an explicit sign for gains.
func FormatPercent(value float64) string {
	sign := ""
	if value > 0 {
		sign = "+"
	}
	return fmt.Sprintf("%s%.2f%%", sign, value)
}

// FormatPnL formats a signed PnL amount with an explicit sign for gains.
func FormatPnL(pnl float64) string {
	formatted := FormatUSDT(pnl)
	if pnl > 0 {
		return "+" + formatted
	}
	return formatted
}
