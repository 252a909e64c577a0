// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package natsort computes natural-ordering sort keys for filenames, so
// that "page2" sorts before "page10" regardless of digit-run width.
package natsort

import (
	"math/big"
	"strings"
	"unicode"
)

// token is one run of a key: either a digit run (num set) or a text run.
type token struct {
	text string
	num  *big.Int
}

func (t token) isNumber() bool { return t.num != nil }

// Key is a comparable natural-ordering key derived from a string.
type Key []token

// NewKey splits s into alternating text and digit runs. Text runs are
// lower-cased; digit runs become arbitrary-precision integers so that very
// long digit sequences cannot overflow.
func NewKey(s string) Key {
	var key Key
	runes := []rune(s)
	for i := 0; i < len(runes); {
		j := i
		if unicode.IsDigit(runes[i]) {
			for j < len(runes) && unicode.IsDigit(runes[j]) {
				j++
			}
			// Non-ASCII digit runs fail to parse and stay textual.
			if n, ok := new(big.Int).SetString(string(runes[i:j]), 10); ok {
				key = append(key, token{num: n})
			} else {
				key = append(key, token{text: strings.ToLower(string(runes[i:j]))})
			}
		} else {
			for j < len(runes) && !unicode.IsDigit(runes[j]) {
				j++
			}
			key = append(key, token{text: strings.ToLower(string(runes[i:j]))})
		}
		i = j
	}
	return key
}

// Compare orders two keys token by token and returns -1, 0, or 1. A key
// that is a strict prefix of the other sorts first. When a number token
// meets a text token, the number sorts first.
func Compare(a, b Key) int {
	for i := 0; i < len(a) && i < len(b); i++ {
		ta, tb := a[i], b[i]
		switch {
		case ta.isNumber() && tb.isNumber():
			if c := ta.num.Cmp(tb.num); c != 0 {
				return c
			}
		case !ta.isNumber() && !tb.isNumber():
			if c := strings.Compare(ta.text, tb.text); c != 0 {
				return c
			}
		case ta.isNumber():
			return -1
		default:
			return 1
		}
	}
	switch {
	case len(a) < len(b):
		return -1
	case len(a) > len(b):
		return 1
	}
	return 0
}

// Less reports whether a sorts before b under natural ordering.
func Less(a, b string) bool {
	return Compare(NewKey(a), NewKey(b)) < 0
}
