package queue

// Direction selects which neighbour the advance algorithm moves towards.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Advance computes the target index for a skip in dir.
// A result equal to current means "restart the current track".
// Shuffle picks uniformly from the whole queue with no repeat avoidance.
func Advance(dir Direction, current, length int, mode RepeatMode, shuffle bool, intn func(int) int) int {
	if length <= 0 {
		return current
	}
	if mode == RepeatOne {
		return current
	}
	if shuffle {
		return intn(length)
	}

	target := current + int(dir)
	if target >= 0 && target < length {
		return target
	}
	if mode == RepeatAll {
		if dir == Forward {
			return 0
		}
		return length - 1
	}
	return current
}
