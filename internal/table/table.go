// Package table implements the reusable remote-collection contract every
// entity list on the terminal is built on: paging, single-field sorting,
// free-text search, per-page row selection and per-row actions, all driven by
// an injected fetch function. The table owns no entity knowledge.
package table

import (
	"context"
	"sync"
)

type SortDirection string

const (
	Asc  SortDirection = "asc"
	Desc SortDirection = "desc"
)

// Query is the complete remote-query state of one table instance. Every
// change to it triggers exactly one fetch.
type Query struct {
	Page          int // 0-based
	PageSize      int
	SortField     string
	SortDirection SortDirection
	Search        string
}

// Page is one fetched slice of the server-side result set.
type Page[T any] struct {
	Rows          []T
	TotalElements int64
	TotalPages    int
}

// FetchFunc is supplied by the caller and performs the remote query.
type FetchFunc[T any] func(ctx context.Context, q Query) (Page[T], error)

type State int

const (
	StateIdle State = iota
	StateLoading
	StateSuccess
	StateError
)

// Column describes one rendered column. Render may be nil for raw values.
type Column[T any] struct {
	Key      string
	Label    string
	Sortable bool
	Render   func(row T) string
}

// ActionView is the evaluated presentation of a row action: a pure projection
// of the row, computed once per row at render time.
type ActionView struct {
	Label   string
	Icon    string
	Variant string
	Hidden  bool
}

// Action is a per-row operation. View projects the row into its presentation;
// Do executes it.
type Action[T any] struct {
	Name string
	View func(row T) ActionView
	Do   func(ctx context.Context, row T) error
}

// Table is one remote-collection instance. All methods are safe for
// concurrent use; a stale fetch result (an older request resolving after a
// newer one) is detected by sequence token and discarded, never rendered.
type Table[T any] struct {
	mu sync.Mutex

	fetch   FetchFunc[T]
	columns []Column[T]
	actions []Action[T]

	query         Query
	state         State
	rows          []T
	totalElements int64
	totalPages    int
	err           error

	selected    map[int]bool
	onSelection func(rows []T)
	emptyText   string

	seq uint64
}

type Option[T any] func(*Table[T])

func WithColumns[T any](cols ...Column[T]) Option[T] {
	return func(t *Table[T]) { t.columns = cols }
}

func WithActions[T any](actions ...Action[T]) Option[T] {
	return func(t *Table[T]) { t.actions = actions }
}

func WithPageSize[T any](size int) Option[T] {
	return func(t *Table[T]) { t.query.PageSize = size }
}

// WithEmptyText sets the message rendered for an empty (but successful) page.
func WithEmptyText[T any](text string) Option[T] {
	return func(t *Table[T]) { t.emptyText = text }
}

// WithSelectionChanged registers the callback fired after every selection
// change, receiving the currently selected rows.
func WithSelectionChanged[T any](fn func(rows []T)) Option[T] {
	return func(t *Table[T]) { t.onSelection = fn }
}

func New[T any](fetch FetchFunc[T], opts ...Option[T]) *Table[T] {
	t := &Table[T]{
		fetch:     fetch,
		query:     Query{PageSize: 20, SortDirection: Asc},
		state:     StateIdle,
		selected:  map[int]bool{},
		emptyText: "Sin resultados",
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Load performs the initial fetch.
func (t *Table[T]) Load(ctx context.Context) error {
	return t.reload(ctx)
}

// Retry re-enters Loading with the same query after an error.
func (t *Table[T]) Retry(ctx context.Context) error {
	return t.reload(ctx)
}

// SetPage navigates to a 0-based page. Selection does not survive paging.
func (t *Table[T]) SetPage(ctx context.Context, page int) error {
	if page < 0 {
		page = 0
	}
	return t.changeQuery(ctx, func(q *Query) { q.Page = page })
}

// SetPageSize changes the page size and resets to page 0.
func (t *Table[T]) SetPageSize(ctx context.Context, size int) error {
	if size < 1 {
		size = 1
	}
	return t.changeQuery(ctx, func(q *Query) {
		q.PageSize = size
		q.Page = 0
	})
}

// SetSearch replaces the free-text query and resets to page 0. No debounce
// happens here: every call fetches, callers debounce upstream if they need to.
func (t *Table[T]) SetSearch(ctx context.Context, search string) error {
	return t.changeQuery(ctx, func(q *Query) {
		q.Search = search
		q.Page = 0
	})
}

// ToggleSort sorts by the given column: a repeated field flips the direction,
// a new field starts ascending. Non-sortable columns are ignored.
func (t *Table[T]) ToggleSort(ctx context.Context, field string) error {
	if !t.sortable(field) {
		return nil
	}
	return t.changeQuery(ctx, func(q *Query) {
		if q.SortField == field {
			if q.SortDirection == Asc {
				q.SortDirection = Desc
			} else {
				q.SortDirection = Asc
			}
			return
		}
		q.SortField = field
		q.SortDirection = Asc
	})
}

func (t *Table[T]) sortable(field string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.columns) == 0 {
		return true
	}
	for _, col := range t.columns {
		if col.Key == field {
			return col.Sortable
		}
	}
	return false
}

func (t *Table[T]) changeQuery(ctx context.Context, mutate func(*Query)) error {
	t.mu.Lock()
	mutate(&t.query)
	hadSelection := len(t.selected) > 0
	t.clearSelectionLocked()
	fn := t.onSelection
	t.mu.Unlock()
	if hadSelection && fn != nil {
		fn(nil)
	}
	return t.reload(ctx)
}

// reload runs one fetch for the current query. The sequence token taken under
// the lock fences the apply phase: only the most recently triggered request
// may publish its result.
func (t *Table[T]) reload(ctx context.Context) error {
	t.mu.Lock()
	t.seq++
	token := t.seq
	t.state = StateLoading
	query := t.query
	fetch := t.fetch
	t.mu.Unlock()

	page, err := fetch(ctx, query)

	t.mu.Lock()
	defer t.mu.Unlock()
	if token != t.seq {
		// A newer request was triggered while this one was in flight.
		return nil
	}
	if err != nil {
		t.state = StateError
		t.err = err
		t.rows = nil
		return err
	}
	t.state = StateSuccess
	t.err = nil
	t.rows = page.Rows
	t.totalElements = page.TotalElements
	t.totalPages = page.TotalPages
	return nil
}

// ── Read accessors ───────────────────────────────────────────────────────────

func (t *Table[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Err returns the last fetch error, or nil outside StateError.
func (t *Table[T]) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

func (t *Table[T]) Query() Query {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.query
}

// Rows returns a copy of the currently loaded page.
func (t *Table[T]) Rows() []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]T(nil), t.rows...)
}

func (t *Table[T]) TotalElements() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalElements
}

func (t *Table[T]) TotalPages() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.totalPages
}

// EmptyText is the caller-supplied message for an empty successful page.
func (t *Table[T]) EmptyText() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.emptyText
}

func (t *Table[T]) Columns() []Column[T] { return t.columns }

// RowActions evaluates every action's view projection for one row.
func (t *Table[T]) RowActions(row T) []ActionView {
	views := make([]ActionView, 0, len(t.actions))
	for _, a := range t.actions {
		if a.View != nil {
			views = append(views, a.View(row))
		} else {
			views = append(views, ActionView{Label: a.Name})
		}
	}
	return views
}

// ── Selection ────────────────────────────────────────────────────────────────

// ToggleRow flips the selection of a row on the visible page.
func (t *Table[T]) ToggleRow(index int) {
	t.mu.Lock()
	if index < 0 || index >= len(t.rows) {
		t.mu.Unlock()
		return
	}
	if t.selected[index] {
		delete(t.selected, index)
	} else {
		t.selected[index] = true
	}
	rows, fn := t.selectedRowsLocked()
	t.mu.Unlock()
	if fn != nil {
		fn(rows)
	}
}

// SelectAllVisible selects every row currently loaded — only the visible
// page, never the whole server-side result set.
func (t *Table[T]) SelectAllVisible() {
	t.mu.Lock()
	for i := range t.rows {
		t.selected[i] = true
	}
	rows, fn := t.selectedRowsLocked()
	t.mu.Unlock()
	if fn != nil {
		fn(rows)
	}
}

func (t *Table[T]) ClearSelection() {
	t.mu.Lock()
	t.clearSelectionLocked()
	rows, fn := t.selectedRowsLocked()
	t.mu.Unlock()
	if fn != nil {
		fn(rows)
	}
}

// Selected returns the selected rows of the visible page.
func (t *Table[T]) Selected() []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	rows, _ := t.selectedRowsLocked()
	return rows
}

func (t *Table[T]) clearSelectionLocked() {
	t.selected = map[int]bool{}
}

func (t *Table[T]) selectedRowsLocked() ([]T, func(rows []T)) {
	rows := make([]T, 0, len(t.selected))
	for i := range t.rows {
		if t.selected[i] {
			rows = append(rows, t.rows[i])
		}
	}
	return rows, t.onSelection
}
