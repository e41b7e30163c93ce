package store

import (
	"encoding/base64"
	"strings"
)

// Slugify turns a target name into a filesystem-safe filename (spec §6
// "Filename slugification"), for callers that write one file per cache
// entry rather than using BadgerStore's single logical log-structured
// store (e.g. cmd/quiche-cache-dump's --export-dir).
//
// The result is a safe subset of ASCII, followed by "_", followed by a
// URL-safe (unpadded) base64 encoding of the UTF-8 bytes of name, so the
// original name is always recoverable even when the safe subset collapses
// two different names to the same prefix.
//
// The safe-subset transform replaces every maximal run of characters
// outside [A-Za-z0-9] with a single "-"; a leading or trailing unsafe run
// becomes a leading or trailing "-".
func Slugify(name string) string {
	var safe strings.Builder
	runes := []rune(name)
	i := 0
	for i < len(runes) {
		if isSlugSafe(runes[i]) {
			safe.WriteRune(runes[i])
			i++
			continue
		}
		for i < len(runes) && !isSlugSafe(runes[i]) {
			i++
		}
		safe.WriteByte('-')
	}

	encoded := base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString([]byte(name))
	return safe.String() + "_" + encoded
}

func isSlugSafe(r rune) bool {
	return (r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}
