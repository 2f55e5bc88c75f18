package bot

import "time"

// RobustExecute calls f up to n times with delay d between attempts until f
// reports success.
func RobustExecute(n int, d time.Duration, f func() bool) bool {
	for i := 0; i < n; i++ {
		if f() {
			return true
		}
		if i < n-1 {
			time.Sleep(d)
		}
	}
	return false
}
