package entity

import (
	"encoding/json"
	"fmt"
)

// SelectorTable holds the built-in ordered fallback locators per role.
type SelectorTable map[Role][]Locator

// SelectorSet maps roles to user-calibrated locators. A role is either
// present with a non-empty locator or absent.
type SelectorSet struct {
	locators map[Role]Locator
}

func NewSelectorSet() SelectorSet {
	return SelectorSet{locators: make(map[Role]Locator)}
}

func (s SelectorSet) Get(role Role) (Locator, bool) {
	loc, ok := s.locators[role]
	return loc, ok
}

// Set records a locator. An empty locator unsets the role.
func (s *SelectorSet) Set(role Role, loc Locator) {
	if s.locators == nil {
		s.locators = make(map[Role]Locator)
	}
	if loc.IsEmpty() {
		delete(s.locators, role)
		return
	}
	s.locators[role] = loc
}

func (s SelectorSet) Len() int { return len(s.locators) }

func (s SelectorSet) Has(roles ...Role) bool {
	for _, r := range roles {
		if _, ok := s.locators[r]; !ok {
			return false
		}
	}
	return true
}

// Merge returns a copy of s overlaid with every role present in other.
func (s SelectorSet) Merge(other SelectorSet) SelectorSet {
	out := NewSelectorSet()
	for r, l := range s.locators {
		out.locators[r] = l
	}
	for r, l := range other.locators {
		out.locators[r] = l
	}
	return out
}

// Candidates returns the custom locator for role (if any) followed by the
// table defaults, in order.
func (s SelectorSet) Candidates(role Role, table SelectorTable) []Locator {
	custom, _ := s.Get(role)
	return MergeLocators(custom, table[role])
}

// MergeLocators puts custom in front of defaults when it is set.
func MergeLocators(custom Locator, defaults []Locator) []Locator {
	if custom.IsEmpty() {
		return append([]Locator(nil), defaults...)
	}
	out := make([]Locator, 0, len(defaults)+1)
	out = append(out, custom)
	return append(out, defaults...)
}

// MarshalJSON emits every fixed role, with null for unset ones.
func (s SelectorSet) MarshalJSON() ([]byte, error) {
	raw := make(map[string]*string, len(Roles))
	for _, r := range Roles {
		if loc, ok := s.locators[r]; ok {
			v := string(loc)
			raw[string(r)] = &v
		} else {
			raw[string(r)] = nil
		}
	}
	return json.Marshal(raw)
}

func (s *SelectorSet) UnmarshalJSON(data []byte) error {
	var raw map[string]*string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode selector set: %w", err)
	}
	*s = NewSelectorSet()
	for k, v := range raw {
		r := Role(k)
		if !r.Valid() || v == nil {
			continue
		}
		s.Set(r, Locator(*v))
	}
	return nil
}
