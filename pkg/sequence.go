package pkg

import "strconv"

// SequenceNumber returns the value of the first maximal run of decimal
// digits in name. ok is false when name has no digits, or when the run does
// not fit in an int64.
func SequenceNumber(name string) (n int64, ok bool) {
	start := -1
	for i := 0; i < len(name); i++ {
		if isDigit(name[i]) {
			start = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	end := start
	for end < len(name) && isDigit(name[end]) {
		end++
	}
	n, err := strconv.ParseInt(name[start:end], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
