// Package itemcode derives deterministic item codes from the descriptive
// attributes of an item. The same inputs always produce the same code, which
// is what the bulk importer relies on to detect collisions with existing
// records.
package itemcode

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// Generate builds an item code from category, optional qualifier, optional
// size (mm) and optional grammage. Example: ("Raw Materials", "Coated", 210,
// 80) -> "RAW-CO-210-80G".
func Generate(categoryName, qualifier string, sizeMM, gsm *float64) (string, error) {
	prefix := alphaPrefix(categoryName, 3)
	if prefix == "" {
		return "", fmt.Errorf("category name %q has no usable characters", categoryName)
	}

	parts := []string{prefix}
	if q := alphaPrefix(qualifier, 2); q != "" {
		parts = append(parts, q)
	}
	if sizeMM != nil {
		parts = append(parts, formatQty(*sizeMM))
	}
	if gsm != nil {
		parts = append(parts, formatQty(*gsm)+"G")
	}
	return strings.Join(parts, "-"), nil
}

// alphaPrefix returns up to n leading letters/digits of s, uppercased.
func alphaPrefix(s string, n int) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() >= n {
				break
			}
		}
	}
	return b.String()
}

func formatQty(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
