// Package negotiation converts syntactic representations to and from
// model MIME codes and picks the best representation for an Accept header.
package negotiation

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/munnerz/goautoneg"
)

// ErrNotAcceptable is returned when no offered representation satisfies the
// Accept header.
var ErrNotAcceptable = errors.New("no acceptable representation")

// MediaRange is one clause of an Accept header.
type MediaRange struct {
	Type    string
	SubType string
	Q       float64
	Params  map[string]string
}

// String renders the range with its parameters in sorted order.
func (m MediaRange) String() string {
	var b strings.Builder
	b.WriteString(m.Type + "/" + m.SubType)
	keys := make([]string, 0, len(m.Params))
	for k := range m.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, ";%s=%s", k, m.Params[k])
	}
	return b.String()
}

func (m MediaRange) specificity() int {
	switch {
	case m.Type == "*":
		return 0
	case m.SubType == "*":
		return 1
	default:
		return 2 + len(m.Params)
	}
}

// matches reports whether an offered type falls in the range. Every
// parameter of the range must be present on the offer; charset compares
// case-insensitively.
func (m MediaRange) matches(offer MediaRange) bool {
	if m.Type != "*" && !strings.EqualFold(m.Type, offer.Type) {
		return false
	}
	if m.SubType != "*" && !strings.EqualFold(m.SubType, offer.SubType) {
		return false
	}
	for k, v := range m.Params {
		got, ok := offer.Params[k]
		if !ok {
			return false
		}
		if k == "charset" {
			if !strings.EqualFold(got, v) {
				return false
			}
		} else if got != v {
			return false
		}
	}
	return true
}

// ParseAccept parses an Accept header into ranges ordered by weight, then
// specificity, then position in the header. Malformed clauses are skipped.
// An empty header accepts anything.
func ParseAccept(header string) []MediaRange {
	if strings.TrimSpace(header) == "" {
		return []MediaRange{{Type: "*", SubType: "*", Q: 1}}
	}

	var ranges []MediaRange
	for _, clause := range strings.Split(header, ",") {
		// goautoneg reorders clauses of equal weight, so each clause is
		// parsed on its own to keep header order.
		for _, a := range goautoneg.ParseAccept(strings.TrimSpace(clause)) {
			ranges = append(ranges, MediaRange{
				Type:    strings.ToLower(a.Type),
				SubType: strings.ToLower(a.SubType),
				Q:       roundQ(a.Q),
				Params:  a.Params,
			})
		}
	}

	sort.SliceStable(ranges, func(i, j int) bool {
		if ranges[i].Q != ranges[j].Q {
			return ranges[i].Q > ranges[j].Q
		}
		return ranges[i].specificity() > ranges[j].specificity()
	})
	return ranges
}

// roundQ undoes the float32 parse of goautoneg: q values carry at most three
// decimals.
func roundQ(q float64) float64 {
	return float64(int(q*1000+0.5)) / 1000
}

// Negotiate returns the offered media type preferred by the Accept header.
// Offers are tried in the order given for each range, so the caller's order
// breaks ties.
func Negotiate(accept string, offered []string) (string, error) {
	offers := make([]MediaRange, len(offered))
	for i, o := range offered {
		offers[i] = parseMediaType(o)
	}

	for _, r := range ParseAccept(accept) {
		if r.Q <= 0 {
			continue
		}
		for i, offer := range offers {
			if r.matches(offer) && !excluded(accept, offer) {
				return offered[i], nil
			}
		}
	}
	return "", fmt.Errorf("%w for %q", ErrNotAcceptable, accept)
}

// excluded reports whether the header rejects the offer with q=0.
func excluded(accept string, offer MediaRange) bool {
	for _, r := range ParseAccept(accept) {
		if r.Q <= 0 && r.Type != "*" && r.matches(offer) {
			return true
		}
	}
	return false
}

func parseMediaType(value string) MediaRange {
	parsed := goautoneg.ParseAccept(strings.TrimSpace(value))
	if len(parsed) == 0 {
		return MediaRange{}
	}
	a := parsed[0]
	return MediaRange{
		Type:    strings.ToLower(a.Type),
		SubType: strings.ToLower(a.SubType),
		Q:       1,
		Params:  a.Params,
	}
}
