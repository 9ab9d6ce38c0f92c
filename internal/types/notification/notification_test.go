package notification

import "testing"

func TestNextCategoryWalksFullCycle(t *testing.T) {
	c := CategoryMeal
	seen := map[Category]bool{}
	for i := 0; i < len(RotationOrder); i++ {
		if seen[c] {
			t.Fatalf("category %s repeated before the cycle completed", c)
		}
		seen[c] = true
		c = NextCategory(c)
	}

	if c != CategoryMeal {
		t.Errorf("expected cycle to wrap back to %s, got %s", CategoryMeal, c)
	}
	if len(seen) != len(RotationOrder) {
		t.Errorf("expected %d distinct categories, saw %d", len(RotationOrder), len(seen))
	}
}

func TestNextCategoryWrapsFromSystem(t *testing.T) {
	if got := NextCategory(CategorySystem); got != CategoryMeal {
		t.Errorf("NextCategory(system) = %s, want %s", got, CategoryMeal)
	}
}

func TestNextCategoryUnknownRestartsCycle(t *testing.T) {
	if got := NextCategory(Category("bogus")); got != CategoryMeal {
		t.Errorf("NextCategory(bogus) = %s, want %s", got, CategoryMeal)
	}
}
