package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTo12Hour renders an "HH:MM" or "HH:MM:SS" time of day as "h:MM AM/PM".
// Input that does not parse is returned unchanged.
func FormatTo12Hour(t string) string {
	t = strings.TrimSpace(t)
	if t == "" {
		return ""
	}
	parts := strings.Split(t, ":")
	if len(parts) < 2 {
		return t
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return t
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 || len(parts[1]) != 2 {
		return t
	}
	ampm := "AM"
	if h >= 12 {
		ampm = "PM"
	}
	h %= 12
	if h == 0 {
		h = 12
	}
	return fmt.Sprintf("%d:%s %s", h, parts[1], ampm)
}

// RoundMoney rounds an amount to two decimals.
func RoundMoney(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// FormatRupees renders an amount with two decimals and the rupee sign.
func FormatRupees(amount float64) string {
	return fmt.Sprintf("₹%.2f", RoundMoney(amount))
}
