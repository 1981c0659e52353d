package client

import "context"

// RecordBrowser pages through one patient's clinical history a single record
// at a time. Changing the sort mode re-fetches and resets to the first page.
type RecordBrowser[T any] struct {
	fetch    func(ctx context.Context, sortMode string) ([]T, error)
	sortMode string
	records  []T
	page     int
}

// NewRecordBrowser builds a browser over fetch. Call Load before reading.
func NewRecordBrowser[T any](fetch func(ctx context.Context, sortMode string) ([]T, error), sortMode string) *RecordBrowser[T] {
	return &RecordBrowser[T]{fetch: fetch, sortMode: sortMode}
}

// StrokeBrowser pages the patient's stroke records.
func (c *Client) StrokeBrowser(patientUUID string) *RecordBrowser[StrokeRecord] {
	return NewRecordBrowser(func(ctx context.Context, sortMode string) ([]StrokeRecord, error) {
		return c.StrokeRecordsByPatient(ctx, patientUUID, sortMode)
	}, SortNewest)
}

// ComplicationBrowser pages the patient's complication records.
func (c *Client) ComplicationBrowser(patientUUID string) *RecordBrowser[ComplicationRecord] {
	return NewRecordBrowser(func(ctx context.Context, sortMode string) ([]ComplicationRecord, error) {
		return c.ComplicationRecordsByPatient(ctx, patientUUID, sortMode)
	}, SortNewest)
}

// Load fetches the records for the current sort mode and resets to the first
// page.
func (b *RecordBrowser[T]) Load(ctx context.Context) error {
	records, err := b.fetch(ctx, b.sortMode)
	if err != nil {
		return err
	}
	b.records = records
	b.page = 0
	return nil
}

// SetSort switches the sort mode, re-fetches, and resets to the first page.
// A failed re-fetch restores the previous mode so the reported mode always
// matches the loaded records.
func (b *RecordBrowser[T]) SetSort(ctx context.Context, sortMode string) error {
	prev := b.sortMode
	b.sortMode = sortMode
	if err := b.Load(ctx); err != nil {
		b.sortMode = prev
		return err
	}
	return nil
}

// SortMode returns the active sort mode.
func (b *RecordBrowser[T]) SortMode() string {
	return b.sortMode
}

// Len returns the number of loaded records.
func (b *RecordBrowser[T]) Len() int {
	return len(b.records)
}

// Page returns the zero-based current page.
func (b *RecordBrowser[T]) Page() int {
	return b.page
}

// Current returns the record on the current page. ok is false when no
// records are loaded.
func (b *RecordBrowser[T]) Current() (record T, ok bool) {
	if len(b.records) == 0 {
		return record, false
	}
	return b.records[b.page], true
}

// HasNext reports whether a later record exists.
func (b *RecordBrowser[T]) HasNext() bool {
	return b.page < len(b.records)-1
}

// HasPrev reports whether an earlier record exists.
func (b *RecordBrowser[T]) HasPrev() bool {
	return len(b.records) > 0 && b.page > 0
}

// Next advances one record, reporting whether it moved.
func (b *RecordBrowser[T]) Next() bool {
	if !b.HasNext() {
		return false
	}
	b.page++
	return true
}

// Prev steps back one record, reporting whether it moved.
func (b *RecordBrowser[T]) Prev() bool {
	if !b.HasPrev() {
		return false
	}
	b.page--
	return true
}
