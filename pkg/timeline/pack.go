package timeline

import (
	"container/heap"
	"sort"

	"github.com/matzehuels/tracetower/pkg/trace"
)

// =============================================================================
// Interval Packer
// =============================================================================

// RowAssignment maps a task (by its index in the thread's original task
// order) to a lane-local row. Rows are numbered from 0 and guarantee that
// no two tasks in the same row overlap in time; touching endpoints are
// allowed.
type RowAssignment struct {
	TaskIndex int `json:"task_index" bson:"task_index"`
	Row       int `json:"row" bson:"row"`
}

// Pack assigns each task to the smallest possible row such that no two
// tasks in the same row overlap. The returned rowCount is minimal: it
// equals the maximum number of tasks simultaneously active at any
// instant (interval-graph coloring).
//
// Tasks are processed sorted by (start asc, end asc); the end tie-break
// considers the shorter of two tasks starting together first, which
// stabilizes row reuse. A min-heap keyed by each row's current end time
// finds the reusable row in O(log r), so the whole pass is O(n log r)
// after the sort.
//
// Zero-length tasks are valid: a row whose end time equals the next
// task's start is immediately reusable (the comparison is ≤, not <).
func Pack(tasks []trace.Task) (assigned []RowAssignment, rowCount int) {
	if len(tasks) == 0 {
		return nil, 0
	}

	order := make([]int, len(tasks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ta, tb := tasks[order[a]], tasks[order[b]]
		if ta.Start != tb.Start {
			return ta.Start < tb.Start
		}
		return ta.End < tb.End
	})

	assigned = make([]RowAssignment, 0, len(tasks))
	rows := &rowHeap{}

	for _, idx := range order {
		t := tasks[idx]
		var row int
		if rows.Len() > 0 && (*rows)[0].end <= t.Start {
			// Reuse the row that frees up earliest.
			row = (*rows)[0].row
			(*rows)[0].end = t.End
			heap.Fix(rows, 0)
		} else {
			row = rows.Len()
			heap.Push(rows, rowEnd{end: t.End, row: row})
		}
		assigned = append(assigned, RowAssignment{TaskIndex: idx, Row: row})
	}

	return assigned, rows.Len()
}

// rowEnd tracks the time at which a row becomes free again.
type rowEnd struct {
	end float64
	row int
}

// rowHeap is a min-heap of rows ordered by current end time.
type rowHeap []rowEnd

func (h rowHeap) Len() int            { return len(h) }
func (h rowHeap) Less(i, j int) bool  { return h[i].end < h[j].end }
func (h rowHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *rowHeap) Push(x any)         { *h = append(*h, x.(rowEnd)) }
func (h *rowHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
