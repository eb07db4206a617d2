// Package trace defines the trace document model consumed by the
// preprocessing pipeline and the viewer.
//
// A trace document groups time-stamped tasks into threads (lanes). Times
// are microseconds expressed as float64; the unit is never interpreted
// beyond tick formatting, so any monotonic unit works. Documents are
// immutable once ingested: preprocessing derives row assignments, density
// bins and geometry from them but never mutates the source tasks.
//
// The canonical on-disk format is JSON:
//
//	{
//	  "global_start": 0,
//	  "global_end": 1000,
//	  "threads": [
//	    {"id": "main", "tasks": [{"start": 0, "end": 10, "args": "init"}]}
//	  ]
//	}
//
// global_start/global_end are optional; when absent they are derived as
// the min task start / max task end across all threads.
package trace

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/matzehuels/tracetower/pkg/errors"
)

// =============================================================================
// Document - Trace Serialization Format
// =============================================================================

// Document is the canonical serialization format for traces.
// Used for ingestion, storage, and API requests.
type Document struct {
	// GlobalStart/GlobalEnd bound the trace time range. Optional; when nil
	// the range is derived from the tasks (see Range).
	GlobalStart *float64 `json:"global_start,omitempty" bson:"global_start,omitempty"`
	GlobalEnd   *float64 `json:"global_end,omitempty" bson:"global_end,omitempty"`

	Threads []Thread `json:"threads" bson:"threads"`
}

// Thread is a lane: a named group of tasks rendered as a horizontal band.
// The ID is the stable join key between preprocessing output and viewer
// state (visibility map, collapse toggles).
type Thread struct {
	ID    string `json:"id" bson:"id"`
	Tasks []Task `json:"tasks" bson:"tasks"`
}

// Task is a single time interval on a thread.
// Invariant: End ≥ Start. Zero-length tasks (End == Start) are valid.
type Task struct {
	Start float64 `json:"start" bson:"start"`
	End   float64 `json:"end" bson:"end"`

	// Args is the display label (free-form text).
	Args string `json:"args,omitempty" bson:"args,omitempty"`

	// Color is an optional deterministic color hint. When nil the fill
	// color is derived from Args (see FillColor).
	Color *int64 `json:"color,omitempty" bson:"color,omitempty"`

	// Overheads are secondary intervals attached to this task, rendered
	// adjacent to it to denote auxiliary cost.
	Overheads []Overhead `json:"overheads,omitempty" bson:"overheads,omitempty"`

	// OverheadDurationUs, when set and no explicit Overheads entry covers
	// it, causes the layout builder to synthesize a fragment of this
	// duration immediately after End.
	OverheadDurationUs *float64 `json:"overhead_duration_us,omitempty" bson:"overhead_duration_us,omitempty"`
}

// Overhead is a secondary interval attached to a task.
type Overhead struct {
	Start float64 `json:"start" bson:"start"`
	End   float64 `json:"end" bson:"end"`
	Args  string  `json:"args,omitempty" bson:"args,omitempty"`
}

// Duration returns the task's time span.
func (t *Task) Duration() float64 { return t.End - t.Start }

// Duration returns the overhead's time span.
func (o *Overhead) Duration() float64 { return o.End - o.Start }

// TaskCount returns the total number of tasks across all threads.
func (d *Document) TaskCount() int {
	n := 0
	for _, th := range d.Threads {
		n += len(th.Tasks)
	}
	return n
}

// =============================================================================
// Range Derivation
// =============================================================================

// Range returns the global time range of the document.
//
// Explicit global_start/global_end take precedence. Absent bounds are
// derived as the min task start / max task end across all threads; a
// document with no tasks defaults to [0, 1]. A degenerate range
// (end ≤ start) is widened to a span of 1 time unit so that coordinate
// mapping never divides by zero.
func (d *Document) Range() (start, end float64) {
	derivedStart, derivedEnd, any := d.taskExtent()

	switch {
	case d.GlobalStart != nil:
		start = *d.GlobalStart
	case any:
		start = derivedStart
	default:
		start = 0
	}

	switch {
	case d.GlobalEnd != nil:
		end = *d.GlobalEnd
	case any:
		end = derivedEnd
	default:
		end = 1
	}

	if end <= start {
		end = start + 1
	}
	return start, end
}

// taskExtent computes the min start and max end over all tasks.
func (d *Document) taskExtent() (minStart, maxEnd float64, any bool) {
	for _, th := range d.Threads {
		for _, t := range th.Tasks {
			if !any {
				minStart, maxEnd, any = t.Start, t.End, true
				continue
			}
			if t.Start < minStart {
				minStart = t.Start
			}
			if t.End > maxEnd {
				maxEnd = t.End
			}
		}
	}
	return minStart, maxEnd, any
}

// =============================================================================
// Validation
// =============================================================================

// Validate checks range sanity and lane identifiers.
//
// Deeper semantic validation (nesting, causality, clock skew) is a
// non-goal; only conditions that would break layout math are rejected.
func (d *Document) Validate() error {
	seen := make(map[string]bool, len(d.Threads))
	for _, th := range d.Threads {
		if err := errors.ValidateLaneID(th.ID); err != nil {
			return err
		}
		if seen[th.ID] {
			return errors.New(errors.ErrCodeInvalidTrace, "duplicate thread id %q", th.ID)
		}
		seen[th.ID] = true

		for i, t := range th.Tasks {
			if t.End < t.Start {
				return errors.New(errors.ErrCodeInvalidRange,
					"thread %q task %d: end %v before start %v", th.ID, i, t.End, t.Start)
			}
			for j, ov := range t.Overheads {
				if ov.End < ov.Start {
					return errors.New(errors.ErrCodeInvalidRange,
						"thread %q task %d overhead %d: end %v before start %v", th.ID, i, j, ov.End, ov.Start)
				}
			}
		}
	}
	return nil
}

// =============================================================================
// Serialization API
// =============================================================================

// Unmarshal deserializes JSON bytes into a Document and validates it.
func Unmarshal(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIngestion, err, "unmarshal trace document")
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Marshal serializes a Document to pretty-printed JSON bytes.
func Marshal(d *Document) ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ReadFile reads and validates a trace document from a JSON file.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "read %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeIngestion, err, "read %s", path)
	}
	return Unmarshal(data)
}

// WriteFile writes a Document to a JSON file.
func WriteFile(d *Document, path string) error {
	data, err := Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal trace: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
