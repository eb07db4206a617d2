package trace

import (
	"strings"
	"testing"

	"github.com/matzehuels/tracetower/pkg/errors"
)

func fp(v float64) *float64 { return &v }

func TestRangeExplicit(t *testing.T) {
	d := &Document{
		GlobalStart: fp(50),
		GlobalEnd:   fp(500),
		Threads: []Thread{
			{ID: "main", Tasks: []Task{{Start: 100, End: 900}}},
		},
	}

	start, end := d.Range()
	if start != 50 || end != 500 {
		t.Errorf("Range() = [%v, %v], want [50, 500]", start, end)
	}
}

func TestRangeDerivedFromTasks(t *testing.T) {
	d := &Document{
		Threads: []Thread{
			{ID: "a", Tasks: []Task{{Start: 400, End: 900}}},
			{ID: "b", Tasks: []Task{{Start: 100, End: 300}}},
		},
	}

	start, end := d.Range()
	if start != 100 || end != 900 {
		t.Errorf("derived Range() = [%v, %v], want [100, 900]", start, end)
	}
}

func TestRangeEmptyDocument(t *testing.T) {
	d := &Document{}
	start, end := d.Range()
	if start != 0 || end != 1 {
		t.Errorf("empty Range() = [%v, %v], want [0, 1]", start, end)
	}
}

func TestRangeDegenerateSpanWidened(t *testing.T) {
	d := &Document{
		Threads: []Thread{
			{ID: "a", Tasks: []Task{{Start: 42, End: 42}}},
		},
	}

	start, end := d.Range()
	if start != 42 || end != 43 {
		t.Errorf("degenerate Range() = [%v, %v], want [42, 43]", start, end)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		doc      Document
		wantCode errors.Code
	}{
		{
			name: "valid",
			doc: Document{Threads: []Thread{
				{ID: "main", Tasks: []Task{{Start: 0, End: 10}, {Start: 5, End: 5}}},
			}},
		},
		{
			name: "end before start",
			doc: Document{Threads: []Thread{
				{ID: "main", Tasks: []Task{{Start: 10, End: 5}}},
			}},
			wantCode: errors.ErrCodeInvalidRange,
		},
		{
			name: "bad overhead range",
			doc: Document{Threads: []Thread{
				{ID: "main", Tasks: []Task{{Start: 0, End: 10, Overheads: []Overhead{{Start: 20, End: 15}}}}},
			}},
			wantCode: errors.ErrCodeInvalidRange,
		},
		{
			name:     "empty lane id",
			doc:      Document{Threads: []Thread{{ID: ""}}},
			wantCode: errors.ErrCodeInvalidLane,
		},
		{
			name: "duplicate lane id",
			doc: Document{Threads: []Thread{
				{ID: "main"}, {ID: "main"},
			}},
			wantCode: errors.ErrCodeInvalidTrace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.doc.Validate()
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if errors.GetCode(err) != tt.wantCode {
				t.Errorf("code = %q, want %q", errors.GetCode(err), tt.wantCode)
			}
		})
	}
}

func TestUnmarshalRoundTrip(t *testing.T) {
	input := `{
		"global_start": 10,
		"global_end": 200,
		"threads": [
			{"id": "io", "tasks": [
				{"start": 10, "end": 50, "args": "read", "color": 3},
				{"start": 60, "end": 80, "overhead_duration_us": 5}
			]}
		]
	}`

	d, err := Unmarshal([]byte(input))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(d.Threads) != 1 || len(d.Threads[0].Tasks) != 2 {
		t.Fatalf("unexpected structure: %+v", d)
	}
	if d.Threads[0].Tasks[0].Color == nil || *d.Threads[0].Tasks[0].Color != 3 {
		t.Error("color hint not preserved")
	}
	if ov := d.Threads[0].Tasks[1].OverheadDurationUs; ov == nil || *ov != 5 {
		t.Error("overhead_duration_us not preserved")
	}

	out, err := Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	back, err := Unmarshal(out)
	if err != nil {
		t.Fatalf("re-Unmarshal: %v", err)
	}
	if back.TaskCount() != 2 {
		t.Errorf("TaskCount after round trip = %d, want 2", back.TaskCount())
	}
}

func TestUnmarshalMalformed(t *testing.T) {
	_, err := Unmarshal([]byte(`{"threads": [`))
	if err == nil {
		t.Fatal("malformed JSON should fail")
	}
	if errors.GetCode(err) != errors.ErrCodeIngestion {
		t.Errorf("code = %q, want %q", errors.GetCode(err), errors.ErrCodeIngestion)
	}
}

func TestColorDeterminism(t *testing.T) {
	if ColorFromInt(7) != ColorFromInt(7) {
		t.Error("ColorFromInt should be deterministic")
	}
	if ColorFromString("alloc") != ColorFromString("alloc") {
		t.Error("ColorFromString should be deterministic")
	}
	if ColorFromString("alloc") == ColorFromString("free") {
		t.Error("distinct labels should normally produce distinct colors")
	}
	if !strings.HasPrefix(ColorFromInt(7), "hsl(") {
		t.Errorf("unexpected color format: %s", ColorFromInt(7))
	}
}

func TestFillColorPrecedence(t *testing.T) {
	hint := int64(12)
	withHint := Task{Args: "label", Color: &hint}
	if withHint.FillColor(0) != ColorFromInt(12) {
		t.Error("integer hint should win over label hash")
	}

	labeled := Task{Args: "label"}
	if labeled.FillColor(0) != ColorFromString("label") {
		t.Error("labeled task should hash its label")
	}

	anon := Task{}
	if anon.FillColor(3) != ColorFromString("3") {
		t.Error("anonymous task should fall back to its ordinal")
	}
}
