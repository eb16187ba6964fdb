package vars

import (
	"fmt"
	"sync"

	"github.com/vk/sequenceengine/internal/exprlang"
	"github.com/vk/sequenceengine/internal/result"
	"github.com/zclconf/go-cty/cty"
)

// ErrProtectedWrite is returned when a Variable node attempts to write a
// name owned by the built-in or constant namespace (§7's ProtectedWrite).
var ErrProtectedWrite = fmt.Errorf("vars: protected name")

const (
	nameResults  = "results"
	nameLogger   = "logger"
	nameWrappers = "wrappers"
)

// Store holds the three namespaces of §3. All mutating methods are meant
// to be called from a single goroutine (the scheduler's coordinator, per
// §5); the mutex below guards concurrent Snapshot calls made by worker
// goroutines evaluating expressions while the coordinator keeps writing.
type Store struct {
	mu sync.RWMutex

	constants map[string]cty.Value
	onTheFly  map[string]cty.Value
	results   map[int]result.Result
	logger    cty.Value
}

// New creates a Store seeded with the run's constants and log sink.
func New(constants map[string]cty.Value, loggerValue cty.Value) *Store {
	c := make(map[string]cty.Value, len(constants))
	for k, v := range constants {
		c[k] = v
	}
	return &Store{
		constants: c,
		onTheFly:  make(map[string]cty.Value),
		results:   make(map[int]result.Result),
		logger:    loggerValue,
	}
}

// isProtected reports whether name is owned by a namespace on-the-fly
// writes may not touch.
func (s *Store) isProtected(name string) bool {
	if name == nameResults || name == nameLogger || name == nameWrappers {
		return true
	}
	_, isConst := s.constants[name]
	return isConst
}

// SetOnTheFly writes name into the on-the-fly namespace (§4.5). It is an
// error to target a built-in or constant name.
func (s *Store) SetOnTheFly(name string, value cty.Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isProtected(name) {
		return fmt.Errorf("%w: %q", ErrProtectedWrite, name)
	}
	s.onTheFly[name] = value
	return nil
}

// SetResult commits the most recent Result for a Function node (§3:
// "overwritten in place on each node completion").
func (s *Store) SetResult(id int, r result.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[id] = r
}

// Result returns the last-recorded result for a node, if any.
func (s *Store) Result(id int) (result.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[id]
	return r, ok
}

// AllResults returns a snapshot copy of every recorded result, keyed by
// node id. The scheduler collects failed tests itself and does not call it.
func (s *Store) AllResults() map[int]result.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int]result.Result, len(s.results))
	for k, v := range s.results {
		out[k] = v
	}
	return out
}

// Snapshot returns a cheap immutable view of the whole environment for one
// expression evaluation, merged with lookup precedence built-in > constant
// > on-the-fly (§3, §4.1).
func (s *Store) Snapshot() exprlang.Env {
	s.mu.RLock()
	defer s.mu.RUnlock()

	merged := make(map[string]cty.Value, len(s.constants)+len(s.onTheFly)+2)
	for k, v := range s.onTheFly {
		merged[k] = v
	}
	for k, v := range s.constants {
		merged[k] = v
	}
	merged[nameResults] = resultsObject(s.results)
	merged[nameLogger] = s.logger
	return exprlang.NewEnv(merged)
}

// resultsObject projects the result map into the heterogeneous object the
// expression language indexes as results[id] (§6). A cty.Object is used
// instead of a cty.Map because different node results generally have
// different "returned" types, which a Map's uniform element type forbids.
func resultsObject(results map[int]result.Result) cty.Value {
	if len(results) == 0 {
		return cty.EmptyObjectVal
	}
	attrs := make(map[string]cty.Value, len(results))
	for id, r := range results {
		attrs[fmt.Sprintf("%d", id)] = r.CtyValue()
	}
	return cty.ObjectVal(attrs)
}
