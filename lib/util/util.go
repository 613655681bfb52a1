// Package util contains helper functions used around the code.
package util

import (
	"strconv"
	"strings"
)

// LamportsPerSol is the number of lamports in one SOL.
const LamportsPerSol uint64 = 1_000_000_000

// In returns true if s is found in ss, false otherwise
func In(ss []string, s string) bool {
	for _, v := range ss {
		if s == v {
			return true
		}
	}

	return false
}

// FormatLamports returns the amount in SOL with up to 9 decimals, trimming trailing zeroes.
func FormatLamports(lamports uint64) string {
	whole := strconv.FormatUint(lamports/LamportsPerSol, 10)

	frac := lamports % LamportsPerSol
	if frac == 0 {
		return whole
	}

	f := strconv.FormatUint(frac, 10)
	f = strings.Repeat("0", 9-len(f)) + f

	return whole + "." + strings.TrimRight(f, "0")
}
