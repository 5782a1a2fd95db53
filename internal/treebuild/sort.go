package treebuild

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/atlasgen/internal/doctree"
)

var digitRuns = regexp.MustCompile(`\d+`)

// SortSiblings orders records for numbering. Records with an explicit
// Number come first, ascending. The rest are ordered by the last integer
// in their DocNo, falling back to a plain string comparison when either
// side has no digits. Ties keep input order.
func SortSiblings(records []*doctree.Record) ([]*doctree.Record, error) {
	var numbered, rest []*doctree.Record
	for _, r := range records {
		if r.Number != nil {
			numbered = append(numbered, r)
		} else {
			rest = append(rest, r)
		}
	}

	sort.SliceStable(numbered, func(i, j int) bool {
		return *numbered[i].Number < *numbered[j].Number
	})

	if len(rest) > 1 {
		for _, r := range rest {
			if r.DocNo == "" {
				return nil, missingDocNo(r.ID)
			}
		}
	}
	sort.SliceStable(rest, func(i, j int) bool {
		return compareDocNo(rest[i].DocNo, rest[j].DocNo) < 0
	})

	return append(numbered, rest...), nil
}

func compareDocNo(a, b string) int {
	na := lastNumber(a)
	nb := lastNumber(b)
	if na == "" || nb == "" {
		return strings.Compare(a, b)
	}
	return compareDigits(na, nb)
}

func lastNumber(s string) string {
	runs := digitRuns.FindAllString(s, -1)
	if len(runs) == 0 {
		return ""
	}
	return runs[len(runs)-1]
}

// compareDigits compares two decimal digit strings by numeric value
// without parsing them, so arbitrarily long numbers still order.
func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}
