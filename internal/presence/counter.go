package presence

import "fmt"

// number of other participants and a readable label for it
func Count(others []Other) (int, string) {
	n := len(others)

	switch n {
	case 0:
		return 0, "just you"
	case 1:
		return 1, "1 other here"
	default:
		return n, fmt.Sprintf("%d others here", n)
	}
}
