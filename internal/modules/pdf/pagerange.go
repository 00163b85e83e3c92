package pdf

import (
	"fmt"
	"strconv"
	"strings"
)

// ParsePageRange turns "1-3,5" into [1 2 3 5]. An empty expression selects
// every page. Duplicates are dropped, first occurrence wins.
func ParsePageRange(expr string, total int) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		pages := make([]int, total)
		for i := range pages {
			pages[i] = i + 1
		}
		return pages, nil
	}
	seen := make(map[int]struct{})
	var pages []int
	add := func(p int) error {
		if p < 1 || p > total {
			return fmt.Errorf("%w: page %d out of [1, %d]", ErrPageRange, p, total)
		}
		if _, ok := seen[p]; !ok {
			seen[p] = struct{}{}
			pages = append(pages, p)
		}
		return nil
	}
	for _, part := range strings.Split(expr, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return nil, fmt.Errorf("%w: empty segment in %q", ErrPageRange, expr)
		}
		from, to, isRange := strings.Cut(part, "-")
		start, err := strconv.Atoi(strings.TrimSpace(from))
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrPageRange, part)
		}
		end := start
		if isRange {
			end, err = strconv.Atoi(strings.TrimSpace(to))
			if err != nil {
				return nil, fmt.Errorf("%w: %q", ErrPageRange, part)
			}
		}
		if end < start {
			return nil, fmt.Errorf("%w: descending range %q", ErrPageRange, part)
		}
		for p := start; p <= end; p++ {
			if err := add(p); err != nil {
				return nil, err
			}
		}
	}
	return pages, nil
}

// Limit returns ErrTooManyPages when more than maxPages pages are selected.
func Limit(pages []int, maxPages int) error {
	if maxPages > 0 && len(pages) > maxPages {
		return fmt.Errorf("%w: %d selected, at most %d", ErrTooManyPages, len(pages), maxPages)
	}
	return nil
}
