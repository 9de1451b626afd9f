// Package codec maps session join codes to integer ordinals and back.
//
// A code is five characters, alternating letters and digits starting with a
// letter (e.g. "A2B3C"). The alphabets exclude visually ambiguous symbols,
// so codes are safe to read out loud or type from a phone screen. The
// mapping is a bijection between codes and [0, MaxCode).
package codec

import (
	"fmt"
	"strings"
)

const (
	// letters omits I and O, digits omits 0 and 1.
	letters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digits  = "23456789"

	// CodeLength is the fixed width of every session code.
	CodeLength = 5

	// MaxCode is one past the largest encodable ordinal: letter, digit,
	// letter, digit, letter.
	MaxCode = 24 * 8 * 24 * 8 * 24
)

// EncodeSessionCode converts an ordinal into its five character code.
// Positions alternate letter/digit with the most significant digit first.
func EncodeSessionCode(n int) (string, error) {
	if n < 0 || n >= MaxCode {
		return "", fmt.Errorf("session code ordinal %d out of range", n)
	}

	chars := make([]byte, CodeLength)
	for i := CodeLength - 1; i >= 0; i-- {
		alphabet := letters
		if i%2 == 1 {
			alphabet = digits
		}
		base := len(alphabet)
		chars[i] = alphabet[n%base]
		n /= base
	}

	return string(chars), nil
}

// DecodeSessionCode converts a five character code back into its ordinal.
func DecodeSessionCode(code string) (int, error) {
	if len(code) != CodeLength {
		return 0, fmt.Errorf("session code %q must be %d characters", code, CodeLength)
	}

	n := 0
	for i := 0; i < CodeLength; i++ {
		alphabet := letters
		if i%2 == 1 {
			alphabet = digits
		}
		idx := strings.IndexByte(alphabet, code[i])
		if idx < 0 {
			return 0, fmt.Errorf("session code %q has invalid character %q at position %d", code, code[i], i)
		}
		n = n*len(alphabet) + idx
	}

	return n, nil
}
