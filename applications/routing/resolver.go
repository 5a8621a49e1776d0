// Package routing maps a declared district and tehsil to the district office
// that processes the application.
package routing

import "strings"

type override struct {
	district string
	tehsils  []string
	office   string
	special  bool
}

// overrides lists tehsils governed by an office other than their nominal
// district. Special marks designated remote sub-divisions that earn the
// special sub-division fee discount.
var overrides = []override{
	{district: "Chamba", tehsils: []string{"Pangi"}, office: "Pangi", special: true},
	{district: "Chamba", tehsils: []string{"Bharmour"}, office: "Bharmour"},
	{district: "Lahaul and Spiti", tehsils: []string{"Kaza", "Spiti"}, office: "Kaza"},
}

type key struct{ district, tehsil string }

type entry struct {
	office  string
	special bool
}

var table = buildTable(overrides)

func buildTable(list []override) map[key]entry {
	t := make(map[key]entry)
	for _, o := range list {
		for _, tehsil := range o.tehsils {
			t[key{normalize(o.district), normalize(tehsil)}] = entry{office: o.office, special: o.special}
		}
	}
	return t
}

// normalize folds case and collapses whitespace.
func normalize(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Resolve returns the responsible district, or the declared district
// (trimmed) when no override matches.
func Resolve(district, tehsil string) string {
	if e, ok := table[key{normalize(district), normalize(tehsil)}]; ok {
		return e.office
	}
	return strings.TrimSpace(district)
}

// IsSpecialSubdivision reports whether the pair lies in a designated remote sub-division.
func IsSpecialSubdivision(district, tehsil string) bool {
	e, ok := table[key{normalize(district), normalize(tehsil)}]
	return ok && e.special
}

// DistrictCode is the three-letter prefix used in application and
// certificate numbers.
func DistrictCode(district string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(district) {
		if r >= 'A' && r <= 'Z' {
			b.WriteRune(r)
			if b.Len() == 3 {
				break
			}
		}
	}
	code := b.String()
	for len(code) < 3 {
		code += "X"
	}
	return code
}
