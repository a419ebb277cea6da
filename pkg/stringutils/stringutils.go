// Package stringutils has small string-formatting helpers shared across
// log lines and CLI output.
package stringutils

import "strings"

// LeftJust pads s with pad on the right until it reaches width.
func LeftJust(s string, pad string, width int) string {
	if len(s) >= width || pad == "" {
		return s
	}
	return s + strings.Repeat(pad, width-len(s))
}

// LowerAll returns a new slice with every element lowercased.
func LowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.ToLower(v)
	}
	return out
}

// LowerAllGroups lowercases every string inside a slice-of-slices (used for
// the matcher's AND-of-OR groups).
func LowerAllGroups(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, group := range in {
		out[i] = LowerAll(group)
	}
	return out
}
