package mgmt

import "sync"

// maxInspected is the number of most recent REPL values kept
// available for inspection by id.
const maxInspected = 256

// inspector is the process-wide state of the inspection channel.
// It starts empty, lives as long as the process and is written
// by PrintReplValue only.
type inspector struct {
	mu     sync.Mutex
	next   int64
	values map[int64]interface{}
	last   interface{}
}

var replState = newInspector()

func newInspector() *inspector {
	return &inspector{next: 1, values: make(map[int64]interface{})}
}

func (in *inspector) register(v interface{}) int64 {
	in.mu.Lock()
	defer in.mu.Unlock()

	id := in.next
	in.next++

	in.values[id] = v
	delete(in.values, id-maxInspected)

	in.last = v

	return id
}

func (in *inspector) lookup(id int64) (interface{}, bool) {
	in.mu.Lock()
	defer in.mu.Unlock()

	v, ok := in.values[id]

	return v, ok
}

func (in *inspector) lastValue() interface{} {
	in.mu.Lock()
	defer in.mu.Unlock()

	return in.last
}

// LastReplValue returns the last non-nil value published
// with PrintReplValue, or nil if there was none.
func LastReplValue() interface{} {
	return replState.lastValue()
}

// Inspect returns the value published under the object link id.
func Inspect(id int64) (interface{}, bool) {
	return replState.lookup(id)
}
