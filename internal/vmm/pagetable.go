package vmm

import (
	"fmt"

	"github.com/vmmsim/vmmsim/internal/vmmerr"
)

// PageEntry is the bookkeeping record for one page number. Entries are
// not created lazily: NewPageTable allocates a zero-valued (invalid)
// entry for every page number up front. No entry is ever removed;
// invalidation only clears Valid.
type PageEntry struct {
	Valid          bool
	Referenced     bool
	Modified       bool
	Frame          int
	AccessCount    uint64
	LastAccessTick uint64
}

// PageTable maps page numbers to PageEntry records. Every method is
// called from inside the VMM's single critical section, so the table
// itself does not need its own lock; it is not safe to call from
// multiple goroutines without that external serialization.
type PageTable struct {
	entries    []PageEntry
	totalPages int
}

// NewPageTable allocates a table sized for totalPages pages, all
// initially invalid.
func NewPageTable(totalPages int) *PageTable {
	return &PageTable{
		entries:    make([]PageEntry, totalPages),
		totalPages: totalPages,
	}
}

func (t *PageTable) checkRange(page int) error {
	if page < 0 || page >= t.totalPages {
		return fmt.Errorf("%w: page %d not in [0, %d)", vmmerr.ErrOutOfRange, page, t.totalPages)
	}

	return nil
}

// Get returns a copy of the entry for page.
func (t *PageTable) Get(page int) (PageEntry, error) {
	if err := t.checkRange(page); err != nil {
		return PageEntry{}, err
	}

	return t.entries[page], nil
}

// RecordAccess sets Referenced, increments AccessCount and updates
// LastAccessTick for page, atomically with respect to any observer
// holding the same external lock as the caller.
func (t *PageTable) RecordAccess(page int, tick uint64) error {
	if err := t.checkRange(page); err != nil {
		return err
	}

	e := &t.entries[page]
	e.Referenced = true
	e.AccessCount++
	e.LastAccessTick = tick

	return nil
}

// Install marks page valid and binds it to frame, clearing Modified.
func (t *PageTable) Install(page, frame int) error {
	if err := t.checkRange(page); err != nil {
		return err
	}

	e := &t.entries[page]
	e.Valid = true
	e.Frame = frame
	e.Modified = false

	return nil
}

// Invalidate clears Valid for page, retaining its statistics.
func (t *PageTable) Invalidate(page int) error {
	if err := t.checkRange(page); err != nil {
		return err
	}

	t.entries[page].Valid = false

	return nil
}

// SetModified sets the dirty bit for page.
func (t *PageTable) SetModified(page int) error {
	if err := t.checkRange(page); err != nil {
		return err
	}

	t.entries[page].Modified = true

	return nil
}

// ClearReferenced clears the soft reference bit for page, used by the
// CLOCK sweep.
func (t *PageTable) ClearReferenced(page int) error {
	if err := t.checkRange(page); err != nil {
		return err
	}

	t.entries[page].Referenced = false

	return nil
}

// ValidPages returns a snapshot of currently resident page numbers.
func (t *PageTable) ValidPages() []int {
	pages := make([]int, 0, t.totalPages)

	for p, e := range t.entries {
		if e.Valid {
			pages = append(pages, p)
		}
	}

	return pages
}

// TotalPages returns the configured page count.
func (t *PageTable) TotalPages() int {
	return t.totalPages
}
