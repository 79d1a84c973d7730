//go:build windows

package volume

// freeBytes has no portable statvfs equivalent on Windows; a short write is
// always reported as a plain IoError rather than distinguished as NoSpace.
func freeBytes(path string) (uint64, error) {
	return ^uint64(0), nil
}
