package tessellate

import (
	"sort"
	"strconv"
	"strings"

	"roisplitter/internal/logger"
	"roisplitter/internal/models"
)

// ParseSelector reads a removal selector of 1-based tile positions in a grid
// of n tiles. Three forms are accepted, checked in this order: a
// comma-separated list ("2,4"), an inclusive hyphenated range ("3-6") and a
// single integer ("5"). Repeated positions are reported once. Bounds are
// checked before a range is expanded, so the cost never exceeds n.
func ParseSelector(input string, n int) ([]int, error) {
	text := strings.TrimSpace(input)
	fail := func(err error) ([]int, error) {
		return nil, &SelectorError{Input: input, Err: err}
	}
	inRange := func(p int) bool { return p >= 1 && p <= n }

	var positions []int
	switch {
	case strings.Contains(text, ","):
		for _, field := range strings.Split(text, ",") {
			p, err := strconv.Atoi(strings.TrimSpace(field))
			if err != nil {
				return fail(ErrMalformedSelector)
			}
			positions = append(positions, p)
		}

	case strings.Contains(text, "-"):
		bounds := strings.Split(text, "-")
		if len(bounds) != 2 {
			return fail(ErrMalformedSelector)
		}
		first, err := strconv.Atoi(strings.TrimSpace(bounds[0]))
		if err != nil {
			return fail(ErrMalformedSelector)
		}
		last, err := strconv.Atoi(strings.TrimSpace(bounds[1]))
		if err != nil || last < first {
			return fail(ErrMalformedSelector)
		}
		if !inRange(first) || !inRange(last) {
			return fail(ErrPositionOutOfRange)
		}
		for p := first; p <= last; p++ {
			positions = append(positions, p)
		}

	default:
		p, err := strconv.Atoi(text)
		if err != nil {
			return fail(ErrMalformedSelector)
		}
		positions = []int{p}
	}

	for _, p := range positions {
		if !inRange(p) {
			return fail(ErrPositionOutOfRange)
		}
	}
	return unique(positions), nil
}

// RemoveTiles returns a copy of the grid without the tiles at the selected
// 1-based positions. Positions are removed from the highest down so that
// earlier removals do not shift later ones. On any error the grid is left
// untouched and no tile is removed.
func RemoveTiles(g models.TileGrid, selector string) (models.TileGrid, error) {
	positions, err := ParseSelector(selector, g.Len())
	if err != nil {
		return g, err
	}

	sort.Sort(sort.Reverse(sort.IntSlice(positions)))
	out := g.Clone()
	for _, p := range positions {
		out.Corners = append(out.Corners[:p-1], out.Corners[p:]...)
	}

	logger.Debug("removed tiles %v, %d left", positions, out.Len())
	return out, nil
}

func unique(in []int) []int {
	seen := make(map[int]struct{}, len(in))
	out := make([]int, 0, len(in))
	for _, n := range in {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
