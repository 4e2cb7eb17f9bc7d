// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/productreco/backend

package schema

import "sort"

// Status reports which of a domain's slots are filled and which remain,
// ordered by priority (HIGH first) so the caller can ask about the
// highest-value missing slot next.
type Status struct {
	Filled  map[string]string
	Missing []Slot
}

// SlotStatus analyzes the current filters/preferences against a domain's
// slot set.
func SlotStatus(domain Domain, filters, preferences map[string]string) Status {
	slots := make([]Slot, len(domain.Slots))
	copy(slots, domain.Slots)
	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Priority < slots[j].Priority })

	status := Status{Filled: make(map[string]string)}
	for _, slot := range slots {
		var value string
		if slot.FilterKey != "" {
			value = filters[slot.FilterKey]
			for i := 0; value == "" && i < len(slot.FilterKeyAlts); i++ {
				value = filters[slot.FilterKeyAlts[i]]
			}
		} else if slot.PreferenceKey != "" {
			value = preferences[slot.PreferenceKey]
		}
		if value != "" {
			status.Filled[slot.DisplayName] = value
		} else {
			status.Missing = append(status.Missing, slot)
		}
	}
	return status
}

// NextSlot returns the highest-priority missing slot, or nil if every slot
// is filled.
func (s Status) NextSlot() *Slot {
	if len(s.Missing) == 0 {
		return nil
	}
	slot := s.Missing[0]
	return &slot
}
