package spacedrep

// Intervals defines the expanding review ladder in days, indexed by the
// number of correct answers minus one. Past the end the last entry holds.
var Intervals = []int{1, 3, 7, 14, 30}

// ResetIntervalDays is the interval after an incorrect answer.
const ResetIntervalDays = 1

// IntervalDays returns the review interval for an item that has just been
// answered, given its updated correct count.
func IntervalDays(timesCorrect int, wasCorrect bool) int {
	if !wasCorrect || timesCorrect < 1 {
		return ResetIntervalDays
	}
	if timesCorrect > len(Intervals) {
		return Intervals[len(Intervals)-1]
	}
	return Intervals[timesCorrect-1]
}
