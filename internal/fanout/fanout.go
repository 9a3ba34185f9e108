// Package fanout runs one task per work item concurrently and aggregates
// per-item outcomes without letting one item's failure abort its siblings.
package fanout

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/opentrade-labs/mobridge/pkg/errors"
)

// Outcome is the result of one item's task: a value or an error, never both.
type Outcome[R any] struct {
	Value R
	Err   error
}

// Results maps each item's stable key to its outcome. The collection always
// contains exactly one entry per input item, regardless of completion order.
type Results[R any] map[string]Outcome[R]

// Failed returns the keys whose tasks produced an error.
func (r Results[R]) Failed() []string {
	keys := make([]string, 0)

	for key, outcome := range r {
		if outcome.Err != nil {
			keys = append(keys, key)
		}
	}

	return keys
}

// Run executes task for every item on a bounded worker pool and joins all
// tasks before returning. A task error or panic becomes that item's failure
// entry only. Keys must be stable per item; a duplicate key is a caller
// error and is kept distinct by suffixing rather than silently merged.
// Limit bounds in-flight tasks; non-positive means GOMAXPROCS.
func Run[T, R any](items []T, limit int, key func(T) string, task func(T) (R, error)) Results[R] {
	results := make(Results[R], len(items))
	if len(items) == 0 {
		return results
	}

	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}

	if limit > len(items) {
		limit = len(items)
	}

	var mu sync.Mutex

	p := pool.New().WithMaxGoroutines(limit)

	for _, item := range items {
		item := item

		p.Go(func() {
			k := key(item)
			value, err := runGuarded(item, task)

			mu.Lock()
			defer mu.Unlock()

			for i := 2; ; i++ {
				if _, taken := results[k]; !taken {
					break
				}

				k = fmt.Sprintf("%s#%d", key(item), i)
			}

			results[k] = Outcome[R]{Value: value, Err: err}
		})
	}

	p.Wait()

	return results
}

// runGuarded converts a task panic into an error so one bad item never
// takes down the batch.
func runGuarded[T, R any](item T, task func(T) (R, error)) (value R, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf(errors.ErrCodeUnknown, "task panicked: %v", r)
		}
	}()

	return task(item)
}
