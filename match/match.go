// Package match implements keyword containment checks over recognized text.
package match

import "strings"

// Statuses maps each configured keyword (verbatim, as configured) to whether
// it was found in a piece of text. The key set always equals the deduplicated
// keyword list, so serializers can rely on lookups never missing.
type Statuses map[string]bool

// Count returns the number of keywords marked as found.
func (s Statuses) Count() int {
	n := 0
	for _, found := range s {
		if found {
			n++
		}
	}
	return n
}

// Text checks every keyword against the text using case-insensitive
// contiguous substring containment. Both sides are lowered, so "INV-2024"
// matches "inv-2024 approved". There is no tokenization or normalization
// beyond lowering; "car" matches "scarf".
//
// Any text (including empty) and any keyword slice (including empty) are
// valid. Duplicate keywords collapse into a single map entry.
func Text(text string, keywords []string) Statuses {
	lowered := strings.ToLower(text)
	statuses := make(Statuses, len(keywords))
	for _, keyword := range keywords {
		statuses[keyword] = strings.Contains(lowered, strings.ToLower(keyword))
	}
	return statuses
}
