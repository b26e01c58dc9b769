// Package utils provides shared utility functions for ethbind.
package utils

import "strings"

// SanitizeName replaces characters that are unsafe in artifact file names
// (colons, slashes, dots, whitespace) with hyphens.
func SanitizeName(s string) string {
	r := strings.NewReplacer(
		":", "-",
		"/", "-",
		".", "-",
		" ", "-",
		"\t", "-",
	)
	return r.Replace(s)
}
