package downloader

import "sync"

// Task is one queued page URL.
type Task struct {
	URL  string
	Name string // display name, set for related chapters
	// Related tasks were discovered from another job and do not look for
	// related chapters themselves.
	Related bool
}

// Queue is a FIFO of tasks that never holds the same URL twice, including
// URLs that were already taken out.
type Queue struct {
	mu    sync.Mutex
	tasks []Task
	seen  map[string]struct{}
}

func NewQueue() *Queue {
	return &Queue{seen: make(map[string]struct{})}
}

// Add enqueues t unless its URL was queued before. It reports whether t
// was added.
func (q *Queue) Add(t Task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, dup := q.seen[t.URL]; dup {
		return false
	}
	q.seen[t.URL] = struct{}{}
	q.tasks = append(q.tasks, t)
	return true
}

// Next removes and returns the oldest task.
func (q *Queue) Next() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return Task{}, false
	}
	t := q.tasks[0]
	q.tasks = q.tasks[1:]
	return t, true
}

// Len is the number of tasks still waiting.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}
