// Package tableview searches, sorts and paginates an in-memory collection.
//
// An Engine never mutates the slice it was given. Filtering and sorting are
// recomputed lazily after any change to the data, the search term or the sort
// configuration.
package tableview

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	// ErrInvalidPageSize is returned for page sizes outside PageSizes.
	ErrInvalidPageSize = errors.New("invalid page size")
	// ErrUnknownColumn is returned when sorting by a column that wasn't declared.
	ErrUnknownColumn = errors.New("unknown column")
)

// PageSizes lists the allowed rows-per-page values.
var PageSizes = []int{5, 10, 20, 50, 100}

// DefaultPageSize is used when Options.PageSize is zero.
const DefaultPageSize = 10

// Direction is a sort direction.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection accepts "asc", "desc" and the empty string (ascending).
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("invalid sort direction %q", s)
	}
}

// Sort is the active sort configuration.
type Sort struct {
	Key string    `json:"key"`
	Dir Direction `json:"dir"`
}

// Accessor returns the value of one column of a record. Returning nil means
// the field is absent.
type Accessor[T any] func(T) any

// Options configures an Engine.
type Options[T any] struct {
	// Columns maps column names to accessors. Only declared columns can be
	// searched or sorted.
	Columns map[string]Accessor[T]
	// Searchable lists the columns the search term is matched against.
	Searchable []string
	// PageSize defaults to DefaultPageSize.
	PageSize int
	// Sort is the initial sort, if any.
	Sort *Sort
}

// Engine holds the view state over a collection.
type Engine[T any] struct {
	columns    map[string]Accessor[T]
	searchable []Accessor[T]

	data     []T
	search   string
	sort     *Sort
	page     int
	pageSize int

	dirty     bool
	processed []T
}

// New returns an Engine on page 1 with no search term.
func New[T any](data []T, opts Options[T]) (*Engine[T], error) {
	e := &Engine[T]{
		columns:  opts.Columns,
		data:     data,
		page:     1,
		pageSize: DefaultPageSize,
		dirty:    true,
	}
	for _, name := range opts.Searchable {
		acc, ok := opts.Columns[name]
		if !ok {
			return nil, fmt.Errorf("searchable %q: %w", name, ErrUnknownColumn)
		}
		e.searchable = append(e.searchable, acc)
	}
	if opts.PageSize != 0 {
		if err := e.SetPageSize(opts.PageSize); err != nil {
			return nil, err
		}
	}
	if opts.Sort != nil {
		if err := e.SetSort(opts.Sort.Key, opts.Sort.Dir); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// SetData replaces the collection. Search, sort, page size and the current
// page are kept.
func (e *Engine[T]) SetData(data []T) {
	e.data = data
	e.dirty = true
}

// Search sets the search term and goes back to page 1. An empty term
// disables filtering.
func (e *Engine[T]) Search(term string) {
	e.search = term
	e.page = 1
	e.dirty = true
}

// SearchTerm returns the current search term.
func (e *Engine[T]) SearchTerm() string {
	return e.search
}

// RequestSort toggles the sort on key: an ascending sort on the same key
// flips to descending, anything else sorts key ascending. It goes back to
// page 1.
func (e *Engine[T]) RequestSort(key string) error {
	dir := Ascending
	if e.sort != nil && e.sort.Key == key && e.sort.Dir == Ascending {
		dir = Descending
	}
	return e.SetSort(key, dir)
}

// SetSort sets the sort explicitly and goes back to page 1.
func (e *Engine[T]) SetSort(key string, dir Direction) error {
	if _, ok := e.columns[key]; !ok {
		return fmt.Errorf("sort %q: %w", key, ErrUnknownColumn)
	}
	if dir != Ascending && dir != Descending {
		return fmt.Errorf("invalid sort direction %q", dir)
	}
	e.sort = &Sort{Key: key, Dir: dir}
	e.page = 1
	e.dirty = true
	return nil
}

// ClearSort restores the original order of the data.
func (e *Engine[T]) ClearSort() {
	e.sort = nil
	e.page = 1
	e.dirty = true
}

// Sort returns the active sort, or nil.
func (e *Engine[T]) Sort() *Sort {
	if e.sort == nil {
		return nil
	}
	s := *e.sort
	return &s
}

// SortIndicator returns "▲" or "▼" for the active sort column and "" for
// every other column.
func (e *Engine[T]) SortIndicator(key string) string {
	if e.sort == nil || e.sort.Key != key {
		return ""
	}
	if e.sort.Dir == Descending {
		return "▼"
	}
	return "▲"
}

// SetPageSize changes the rows per page and goes back to page 1.
func (e *Engine[T]) SetPageSize(n int) error {
	if !slices.Contains(PageSizes, n) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, n)
	}
	e.pageSize = n
	e.page = 1
	return nil
}

// PageSize returns the rows per page.
func (e *Engine[T]) PageSize() int {
	return e.pageSize
}

// SetPage jumps to page p without clamping.
func (e *Engine[T]) SetPage(p int) {
	e.page = p
}

// CurrentPage returns the 1-based current page.
func (e *Engine[T]) CurrentPage() int {
	return e.page
}

// NextPage advances one page, never past the last one.
func (e *Engine[T]) NextPage() {
	e.page = max(min(e.page+1, e.TotalPages()), 1)
}

// PrevPage goes back one page, never before the first one.
func (e *Engine[T]) PrevPage() {
	e.page = max(e.page-1, 1)
}

// TotalItems returns the number of records after filtering.
func (e *Engine[T]) TotalItems() int {
	return len(e.rows())
}

// TotalPages returns ceil(TotalItems/PageSize).
func (e *Engine[T]) TotalPages() int {
	return (e.TotalItems() + e.pageSize - 1) / e.pageSize
}

// CanNextPage reports whether a page follows the current one.
func (e *Engine[T]) CanNextPage() bool {
	return e.page < e.TotalPages()
}

// CanPrevPage reports whether a page precedes the current one.
func (e *Engine[T]) CanPrevPage() bool {
	return e.page > 1
}

// Rows returns every record after filtering and sorting.
func (e *Engine[T]) Rows() []T {
	return slices.Clone(e.rows())
}

// Page returns the records of the current page. It is empty when the page is
// out of range.
func (e *Engine[T]) Page() []T {
	rows := e.rows()
	if e.page < 1 {
		return []T{}
	}
	start := (e.page - 1) * e.pageSize
	if start >= len(rows) {
		return []T{}
	}
	end := min(start+e.pageSize, len(rows))
	return slices.Clone(rows[start:end])
}

// View summarizes the state of an Engine for API responses.
type View struct {
	Page        int    `json:"page"`
	PageSize    int    `json:"pageSize"`
	TotalItems  int    `json:"totalItems"`
	TotalPages  int    `json:"totalPages"`
	CanNextPage bool   `json:"canNextPage"`
	CanPrevPage bool   `json:"canPrevPage"`
	Search      string `json:"search,omitempty"`
	Sort        *Sort  `json:"sort,omitempty"`
}

// Snapshot returns the current View.
func (e *Engine[T]) Snapshot() View {
	return View{
		Page:        e.page,
		PageSize:    e.pageSize,
		TotalItems:  e.TotalItems(),
		TotalPages:  e.TotalPages(),
		CanNextPage: e.CanNextPage(),
		CanPrevPage: e.CanPrevPage(),
		Search:      e.search,
		Sort:        e.Sort(),
	}
}

func (e *Engine[T]) rows() []T {
	if !e.dirty {
		return e.processed
	}
	out := e.filter()
	if e.sort != nil {
		acc := e.columns[e.sort.Key]
		desc := e.sort.Dir == Descending
		slices.SortStableFunc(out, func(a, b T) int {
			return compareNullsLast(acc(a), acc(b), desc)
		})
	}
	e.processed = out
	e.dirty = false
	return out
}

func (e *Engine[T]) filter() []T {
	if e.search == "" {
		return slices.Clone(e.data)
	}
	term := strings.ToLower(e.search)
	out := make([]T, 0, len(e.data))
	for _, rec := range e.data {
		for _, acc := range e.searchable {
			if matches(acc(rec), term) {
				out = append(out, rec)
				break
			}
		}
	}
	return out
}
