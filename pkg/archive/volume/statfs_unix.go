//go:build !windows

package volume

import (
	"golang.org/x/sys/unix"
)

// freeBytes reports the free space on the filesystem holding path, mirroring
// archio.c's fstatvfs64 call used to distinguish a genuine no-space
// condition from a generic short write.
func freeBytes(path string) (uint64, error) {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0, err
	}
	return uint64(stat.Bavail) * uint64(stat.Bsize), nil
}
