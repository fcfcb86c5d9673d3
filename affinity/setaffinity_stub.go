//go:build !linux

// setaffinity_stub.go — no-op fallback for non-Linux builds.

package affinity

func setAffinity(cpu int) {}
