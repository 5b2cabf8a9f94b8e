package annotation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/populationgenomics/seqr/internal/domain"
)

// Interval is a 1-based inclusive genomic range on one chromosome.
type Interval struct {
	Chrom string
	Start int64
	End   int64
}

const chromEnd = 999_999_999

var intervalPattern = regexp.MustCompile(`^(?:chr)?([0-9]{1,2}|X|Y|M|MT)(?::([0-9]+)-([0-9]+))?$`)

// ParseIntervals parses "chrom" or "chrom:start-end" ranges. Every invalid
// entry is reported in one error.
func ParseIntervals(raw []string) ([]Interval, error) {
	var (
		out     []Interval
		invalid []string
	)
	for _, r := range raw {
		iv, ok := parseInterval(r)
		if !ok {
			invalid = append(invalid, r)
			continue
		}
		out = append(out, iv)
	}
	if len(invalid) > 0 {
		return nil, domain.ErrValidation("Invalid intervals: %s", strings.Join(invalid, ", "))
	}
	return out, nil
}

func parseInterval(s string) (Interval, bool) {
	m := intervalPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil || domain.ChromIndex(m[1]) == 0 {
		return Interval{}, false
	}
	iv := Interval{Chrom: m[1], Start: 1, End: chromEnd}
	if m[2] != "" {
		start, err1 := strconv.ParseInt(m[2], 10, 64)
		end, err2 := strconv.ParseInt(m[3], 10, 64)
		if err1 != nil || err2 != nil || start < 1 || end < start || end > chromEnd {
			return Interval{}, false
		}
		iv.Start, iv.End = start, end
	}
	return iv, true
}

// Contains reports whether a position lies in the interval.
func (i Interval) Contains(chrom string, pos int64) bool {
	return domain.ChromIndex(chrom) == domain.ChromIndex(i.Chrom) && pos >= i.Start && pos <= i.End
}

// XPosRange returns the interval as inclusive xpos bounds.
func (i Interval) XPosRange() (int64, int64) {
	return domain.XPos(i.Chrom, i.Start), domain.XPos(i.Chrom, i.End)
}
