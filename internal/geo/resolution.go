package geo

import "strings"

// NormalizeResolution canonicalizes a "WxH" resolution label by stripping
// ".0" decimal suffixes and space characters. Different enumeration paths
// describe the same panel as "3440x1440", "3440.0x1440.0" or "3440 x 1440";
// after normalization they compare equal.
//
// This is deliberately syntactic. A label with a legitimately fractional
// dimension (say "1512.5x982") would be corrupted by the ".0" strip; no such
// label has been observed, and profile matching only needs labels produced by
// the same normalization on both sides. Known limitation, not a bug.
func NormalizeResolution(s string) string {
	s = strings.ReplaceAll(s, ".0", "")
	return strings.ReplaceAll(s, " ", "")
}

// EquivalentResolution reports whether two resolution labels describe the
// same dimensions after normalization.
func EquivalentResolution(a, b string) bool {
	return NormalizeResolution(a) == NormalizeResolution(b)
}
