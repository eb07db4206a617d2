package viewport

// =============================================================================
// Lane Visibility
// =============================================================================

// VisibilityMap tracks which lanes are expanded. Lanes absent from the
// map are visible: collapsing is the recorded exception, so a fresh map
// shows everything.
type VisibilityMap map[string]bool

// NewVisibilityMap returns an empty map (all lanes expanded).
func NewVisibilityMap() VisibilityMap {
	return VisibilityMap{}
}

// Visible reports whether the lane is expanded. Unknown lanes default
// to visible.
func (v VisibilityMap) Visible(laneID string) bool {
	collapsed, ok := v[laneID]
	if !ok {
		return true
	}
	return !collapsed
}

// Toggle flips one lane between expanded and collapsed.
func (v VisibilityMap) Toggle(laneID string) {
	v[laneID] = !v[laneID]
}

// CollapseAll collapses every given lane.
func (v VisibilityMap) CollapseAll(laneIDs []string) {
	for _, id := range laneIDs {
		v[id] = true
	}
}

// ExpandAll expands every lane by clearing the recorded exceptions.
func (v VisibilityMap) ExpandAll() {
	for id := range v {
		delete(v, id)
	}
}
