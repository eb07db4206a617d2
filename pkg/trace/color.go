package trace

import "fmt"

// Fill colors are deterministic so re-rendering a trace is stable: an
// integer hint maps through a multiplicative mix into HSL, and unlabeled
// hints fall back to an FNV-1a hash of the task label.

// knuthMix is the multiplicative hash constant (2654435761 = 2^32/phi).
const knuthMix = 2654435761

// FNV-1a 64-bit parameters.
const (
	fnvOffset = 1469598103934665603
	fnvPrime  = 1099511628211
)

// ColorFromInt maps an integer color hint to an HSL color string.
// Saturation stays in 60..79% and lightness in 45..54% so neighboring
// hues remain readable against both light and dark lane bands.
func ColorFromInt(x uint32) string {
	h := (uint64(x) * knuthMix) & 0xFFFFFFFF
	hue := h % 360
	sat := 60 + (h>>8)%20
	light := 45 + (h>>16)%10
	return fmt.Sprintf("hsl(%d %d%% %d%%)", hue, sat, light)
}

// ColorFromString hashes a label with FNV-1a and maps it through
// ColorFromInt.
func ColorFromString(s string) string {
	var h uint64 = fnvOffset
	for _, ch := range []byte(s) {
		h ^= uint64(ch)
		h *= fnvPrime
	}
	return ColorFromInt(uint32(h & 0xFFFFFFFF))
}

// FillColor resolves the task's fill color. The integer hint wins when
// present; otherwise the label is hashed, and an unlabeled task falls
// back to its ordinal so two anonymous tasks still differ.
func (t *Task) FillColor(ordinal int) string {
	if t.Color != nil {
		return ColorFromInt(uint32(uint64(*t.Color) & 0xFFFFFFFF))
	}
	if t.Args != "" {
		return ColorFromString(t.Args)
	}
	return ColorFromString(fmt.Sprintf("%d", ordinal))
}
