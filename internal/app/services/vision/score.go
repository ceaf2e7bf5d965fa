package vision

import "strings"

// awardTable maps waste category keywords to their token values.
type award struct {
	Category string
	Tokens   int64
}

var awardTable = []award{
	{"Plastic", 1},
	{"Paper", 1},
	{"Glass", 2},
	{"Metal", 3},
	{"Organic", 1},
	{"Textile", 2},
	{"Electronic", 4},
	{"Wood", 2},
	{"Rubber", 3},
	{"Ceramic", 2},
	{"Composite", 2},
	{"Hazardous", 5},
	{"Medical", 4},
	{"Miscellaneous", 1},
}

// ScoreDescription sums the token values of every category keyword found
// in the description. The match is a case-sensitive substring test: a
// category name occurring inside another word still counts, and two
// categories sharing a substring both count. That sharpness is part of
// the award contract; do not tighten it.
func ScoreDescription(description string) int64 {
	var total int64
	for _, entry := range awardTable {
		if strings.Contains(description, entry.Category) {
			total += entry.Tokens
		}
	}
	return total
}
