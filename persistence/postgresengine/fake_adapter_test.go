package postgresengine_test

import (
	"context"
	"strings"
	"sync"

	"github.com/AntonStoeckl/relational-persistence-go/persistence/connection"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/adapters"
	"github.com/AntonStoeckl/relational-persistence-go/persistence/internal/testseam"
)

// fakeAdapter answers statements from scripted responses, matched by substring in registration order.
type fakeAdapter struct {
	mu        sync.Mutex
	responses []fakeResponse
	calls     []fakeCall
}

type fakeResponse struct {
	contains string
	rows     []map[string]any
	affected int64
	err      error
}

type fakeCall struct {
	query string
	args  []any
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{}
}

// borrowed returns an open, borrowed connection manager around the fake.
func (f *fakeAdapter) borrowed() *connection.Manager {
	return borrowedManager(f, true)
}

func borrowedManager(adapter adapters.DBAdapter, open bool) *connection.Manager {
	return testseam.ManagerFromAdapter(adapter, open).(*connection.Manager)
}

func (f *fakeAdapter) onQuery(contains string, rows ...map[string]any) *fakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses = append(f.responses, fakeResponse{contains: contains, rows: rows})

	return f
}

func (f *fakeAdapter) onExec(contains string, affected int64) *fakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses = append(f.responses, fakeResponse{contains: contains, affected: affected})

	return f
}

func (f *fakeAdapter) onError(contains string, err error) *fakeAdapter {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.responses = append(f.responses, fakeResponse{contains: contains, err: err})

	return f
}

// tableExists scripts the existence check Open runs before creating the schema.
func (f *fakeAdapter) tableExists(exists bool) *fakeAdapter {
	if exists {
		return f.onQuery("to_regclass", map[string]any{"regclass": "notes"})
	}

	return f.onQuery("to_regclass", map[string]any{})
}

func (f *fakeAdapter) Query(_ context.Context, query string, args ...any) (adapters.DBRows, error) {
	response := f.record(query, args)
	if response.err != nil {
		return nil, response.err
	}

	return &fakeRows{rows: response.rows, index: -1}, nil
}

func (f *fakeAdapter) Exec(_ context.Context, query string, args ...any) (adapters.DBResult, error) {
	response := f.record(query, args)
	if response.err != nil {
		return nil, response.err
	}

	return fakeResult(response.affected), nil
}

func (f *fakeAdapter) Ping(context.Context) error {
	return nil
}

func (f *fakeAdapter) Close() error {
	return nil
}

func (f *fakeAdapter) record(query string, args []any) fakeResponse {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, fakeCall{query: query, args: args})

	for _, response := range f.responses {
		if strings.Contains(query, response.contains) {
			return response
		}
	}

	return fakeResponse{}
}

func (f *fakeAdapter) getCalls() []fakeCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	calls := make([]fakeCall, len(f.calls))
	copy(calls, f.calls)

	return calls
}

// lastCall returns the last statement containing the given substring.
func (f *fakeAdapter) lastCall(contains string) (fakeCall, bool) {
	calls := f.getCalls()
	for i := len(calls) - 1; i >= 0; i-- {
		if strings.Contains(calls[i].query, contains) {
			return calls[i], true
		}
	}

	return fakeCall{}, false
}

func (f *fakeAdapter) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = nil
}

type fakeRows struct {
	rows  []map[string]any
	index int
}

func (r *fakeRows) Next() bool {
	r.index++
	return r.index < len(r.rows)
}

func (r *fakeRows) Record() (map[string]any, error) {
	record := make(map[string]any, len(r.rows[r.index]))
	for key, value := range r.rows[r.index] {
		record[key] = value
	}

	return record, nil
}

func (r *fakeRows) Err() error {
	return nil
}

func (r *fakeRows) Close() error {
	return nil
}

type fakeResult int64

func (r fakeResult) RowsAffected() (int64, error) {
	return int64(r), nil
}
