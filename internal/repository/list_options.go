package repository

import "gorm.io/gorm"

// ListOptions carries the filter/sort/paginate surface of the list
// endpoints. Filter and Sort keys are JSON field names; each repository
// whitelists the ones it supports and silently drops the rest.
type ListOptions struct {
	Filter map[string]interface{}
	Sort   map[string]int // 1 ascending, -1 descending
	Limit  int
	Skip   int
}

func applyListOptions(q *gorm.DB, opts ListOptions, filterCols, sortCols map[string]string) *gorm.DB {
	for key, value := range opts.Filter {
		col, ok := filterCols[key]
		if !ok {
			continue
		}
		q = q.Where(col+" = ?", value)
	}

	sorted := false
	for key, dir := range opts.Sort {
		col, ok := sortCols[key]
		if !ok {
			continue
		}
		if dir < 0 {
			col += " DESC"
		}
		q = q.Order(col)
		sorted = true
	}
	if !sorted {
		q = q.Order("created_at DESC")
	}

	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Skip > 0 {
		q = q.Offset(opts.Skip)
	}
	return q
}
