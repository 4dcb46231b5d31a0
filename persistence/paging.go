package persistence

// RawSQL is a caller-composed SQL fragment: a WHERE predicate, an ORDER BY clause or a select list.
//
// Engines splice RawSQL verbatim into generated statements; there is no parsing,
// escaping or parameterization. Callers own safe composition: never build a
// RawSQL from unvalidated user input.
type RawSQL string

// IsEmpty reports whether the fragment is blank.
func (r RawSQL) IsEmpty() bool {
	return r == ""
}

// NoSkip marks PagingParams without an OFFSET.
const NoSkip int64 = -1

// PagingParams controls GetPageByFilter.
//
// Take <= 0 means "use the configured maximum page size"; larger values are clamped to it.
// A negative Skip omits the OFFSET clause.
type PagingParams struct {
	Skip      int64
	Take      int64
	WantTotal bool
}

// NewPagingParams builds PagingParams.
func NewPagingParams(skip, take int64, wantTotal bool) PagingParams {
	return PagingParams{Skip: skip, Take: take, WantTotal: wantTotal}
}

// HasSkip reports whether an OFFSET should be applied.
func (p PagingParams) HasSkip() bool {
	return p.Skip >= 0
}

// EffectiveTake returns Take defaulted to and clamped at maxPageSize.
func (p PagingParams) EffectiveTake(maxPageSize int64) int64 {
	if p.Take <= 0 || p.Take > maxPageSize {
		return maxPageSize
	}

	return p.Take
}

// Page is one page of records. Total is only set when it was requested.
type Page[T any] struct {
	Items []T
	Total *int64
}

// HasTotal reports whether Total was computed.
func (p Page[T]) HasTotal() bool {
	return p.Total != nil
}
