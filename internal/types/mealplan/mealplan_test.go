package mealplan

import "testing"

func TestValidSlot(t *testing.T) {
	for _, s := range []Slot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack} {
		if !ValidSlot(s) {
			t.Errorf("ValidSlot(%s) = false, want true", s)
		}
	}

	for _, s := range []Slot{"", "brunch", "BREAKFAST"} {
		if ValidSlot(s) {
			t.Errorf("ValidSlot(%q) = true, want false", s)
		}
	}
}
