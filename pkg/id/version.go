package id

import (
	"regexp"
	"time"
)

// VersionTagType classifies the lexical form of a version tag.
type VersionTagType string

const (
	SemVer     VersionTagType = "SEM_VER"
	Sequential VersionTagType = "SEQUENTIAL"
	Timestamp  VersionTagType = "TIMESTAMP"
	Generic    VersionTagType = "GENERIC"
)

var (
	semVerPattern     = regexp.MustCompile(`^\d+\.\d+\.(\*|\d+)`)
	sequentialPattern = regexp.MustCompile(`^\d+$`)
)

// timestampLayouts are the date forms recognized as TIMESTAMP tags.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2006-01",
	"20060102T150405",
	"2006-01-02 15:04:05",
}

// ClassifyVersionTag returns the first matching class in the order
// SEM_VER, SEQUENTIAL, TIMESTAMP; anything else is GENERIC.
func ClassifyVersionTag(tag string) VersionTagType {
	switch {
	case semVerPattern.MatchString(tag):
		return SemVer
	case sequentialPattern.MatchString(tag):
		return Sequential
	case isTimestamp(tag):
		return Timestamp
	default:
		return Generic
	}
}

func isTimestamp(tag string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, tag); err == nil {
			return true
		}
	}
	return false
}
