// Package bitutil holds small bit manipulation helpers shared by the ring based queues.
package bitutil

// PowerOfTwo reports whether n is a positive power of two.
func PowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
