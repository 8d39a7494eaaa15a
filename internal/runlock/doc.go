// Package runlock keeps deliveries sharing a state directory from running at
// the same time. The lock is a flock(2) on a file, so it is released by the
// kernel if the process dies.
package runlock
