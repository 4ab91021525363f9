package service

import (
	"regexp"
	"strings"

	"github.com/rs/xid"
)

const slugSuffixLen = 6

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and collapses every run of other characters into a
// single dash, trimming dashes at both ends.
func Slugify(s string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// teamSlug builds the shareable team code: the slugified name plus a
// six character suffix from a fresh xid. xid encodes to [0-9a-v], so the
// suffix always matches [a-z0-9]{6}.
func teamSlug(name string) string {
	id := xid.New().String()
	suffix := id[len(id)-slugSuffixLen:]

	base := Slugify(name)
	if base == "" {
		base = "team"
	}
	return base + "-" + suffix
}
