package utils

import "testing"

func TestLevelFromPoints(t *testing.T) {
	cases := []struct {
		points int
		level  int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{599, 3},
		{600, 4},
		{5500, 10},
		{999999, 10},
	}

	for _, c := range cases {
		if got := LevelFromPoints(c.points); got != c.level {
			t.Errorf("LevelFromPoints(%d) = %d, want %d", c.points, got, c.level)
		}
	}
}

func TestLevelFromPointsMonotonic(t *testing.T) {
	prev := LevelFromPoints(0)
	for p := 1; p <= 6000; p++ {
		cur := LevelFromPoints(p)
		if cur < prev {
			t.Fatalf("level decreased from %d to %d at %d points", prev, cur, p)
		}
		prev = cur
	}
}

func TestPointsForNextLevel(t *testing.T) {
	if got := PointsForNextLevel(0); got != 100 {
		t.Errorf("PointsForNextLevel(0) = %d, want 100", got)
	}
	if got := PointsForNextLevel(150); got != 300 {
		t.Errorf("PointsForNextLevel(150) = %d, want 300", got)
	}
	if got := PointsForNextLevel(5500); got != -1 {
		t.Errorf("PointsForNextLevel(5500) = %d, want -1", got)
	}
}
