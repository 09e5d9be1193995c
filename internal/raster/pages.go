package raster

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// ParsePageSelection parses a one-based selection like "1-3,5" into sorted,
// de-duplicated zero-based page indices. An empty selection yields nil (all pages).
func ParsePageSelection(sel string) ([]int, error) {
	sel = strings.TrimSpace(sel)
	if sel == "" {
		return nil, nil
	}

	seen := make(map[int]bool)
	var pages []int
	for _, part := range strings.Split(sel, ",") {
		tokenPages, err := parseRangeToken(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("invalid page selection %q: %w", sel, err)
		}
		for _, p := range tokenPages {
			if !seen[p] {
				seen[p] = true
				pages = append(pages, p)
			}
		}
	}
	slices.Sort(pages)
	return pages, nil
}

// parseRangeToken parses either "3" or "1-5" (one-based, inclusive).
func parseRangeToken(part string) ([]int, error) {
	if start, end, ok := strings.Cut(part, "-"); ok {
		s, err := strconv.Atoi(strings.TrimSpace(start))
		if err != nil {
			return nil, fmt.Errorf("invalid start page: %s", start)
		}
		e, err := strconv.Atoi(strings.TrimSpace(end))
		if err != nil {
			return nil, fmt.Errorf("invalid end page: %s", end)
		}
		if s < 1 || s > e {
			return nil, fmt.Errorf("invalid range %d-%d", s, e)
		}
		out := make([]int, 0, e-s+1)
		for i := s; i <= e; i++ {
			out = append(out, i-1)
		}
		return out, nil
	}
	p, err := strconv.Atoi(part)
	if err != nil {
		return nil, fmt.Errorf("invalid page number: %s", part)
	}
	if p < 1 {
		return nil, fmt.Errorf("page numbers start at 1, got %d", p)
	}
	return []int{p - 1}, nil
}
