package utils

// LevelThresholds are inclusive lower bounds of lifetime points for each
// level. Index i unlocks level i+1, so 0 points is level 1.
var LevelThresholds = []int{0, 100, 300, 600, 1000, 1500, 2200, 3000, 4000, 5500}

// LevelFromPoints derives the level for a lifetime point total. It is pure
// and monotonic non-decreasing in totalPoints.
func LevelFromPoints(totalPoints int) int {
	level := 1
	for i, threshold := range LevelThresholds {
		if totalPoints >= threshold {
			level = i + 1
		} else {
			break
		}
	}
	return level
}

// PointsForNextLevel returns the threshold of the next level, or -1 when
// the user is already at the top of the table.
func PointsForNextLevel(totalPoints int) int {
	for _, threshold := range LevelThresholds {
		if totalPoints < threshold {
			return threshold
		}
	}
	return -1
}
