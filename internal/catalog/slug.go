package catalog

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and collapses every run of non-alphanumerics into a
// single hyphen, trimming hyphens at both ends.
func Slugify(s string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	return b.String()
}

// CloneHandle derives a handle distinct from the master's: the master handle
// (or its slugified title) followed by the slugified serial.
func CloneHandle(masterHandle, masterTitle, serial string) string {
	base := Slugify(masterHandle)
	if base == "" {
		base = Slugify(masterTitle)
	}
	suffix := Slugify(serial)
	switch {
	case base == "":
		return suffix
	case suffix == "":
		return base
	}
	return base + "-" + suffix
}
