package navigation

import (
	"fmt"
	"sync"
)

// Journal is an in-process domain.NavigationSource: a history stack with
// back/forward traversal. Hosts without a real router (the CLI, tests)
// use it as their navigation wiring.
type Journal struct {
	mu          sync.Mutex
	entries     []string
	index       int
	subscribers map[int]func(path string)
	nextSubID   int
}

// NewJournal creates a journal positioned at initialPath.
func NewJournal(initialPath string) *Journal {
	return &Journal{
		entries:     []string{initialPath},
		index:       0,
		subscribers: map[int]func(path string){},
	}
}

// Push appends path to the history, truncating any forward entries.
func (j *Journal) Push(path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries = append(j.entries[:j.index+1], path)
	j.index = len(j.entries) - 1
	return nil
}

// Replace swaps the current entry for path.
func (j *Journal) Replace(path string) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.entries[j.index] = path
	return nil
}

// Back moves one entry backwards and fires subscribers, mirroring a
// browser back event. Errors at the start of history.
func (j *Journal) Back() error {
	j.mu.Lock()
	if j.index == 0 {
		j.mu.Unlock()
		return fmt.Errorf("already at start of history")
	}
	j.index--
	path := j.entries[j.index]
	subs := j.snapshotSubscribers()
	j.mu.Unlock()

	for _, sub := range subs {
		sub(path)
	}
	return nil
}

// Forward moves one entry forwards and fires subscribers.
func (j *Journal) Forward() error {
	j.mu.Lock()
	if j.index >= len(j.entries)-1 {
		j.mu.Unlock()
		return fmt.Errorf("already at end of history")
	}
	j.index++
	path := j.entries[j.index]
	subs := j.snapshotSubscribers()
	j.mu.Unlock()

	for _, sub := range subs {
		sub(path)
	}
	return nil
}

// Subscribe registers a handler for back/forward traversal events.
func (j *Journal) Subscribe(handler func(path string)) (cancel func()) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id := j.nextSubID
	j.nextSubID++
	j.subscribers[id] = handler

	return func() {
		j.mu.Lock()
		defer j.mu.Unlock()
		delete(j.subscribers, id)
	}
}

// Current returns the path at the journal's cursor.
func (j *Journal) Current() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.entries[j.index]
}

// snapshotSubscribers copies the subscriber set. Caller must hold mu.
func (j *Journal) snapshotSubscribers() []func(path string) {
	subs := make([]func(path string), 0, len(j.subscribers))
	for _, sub := range j.subscribers {
		subs = append(subs, sub)
	}
	return subs
}
