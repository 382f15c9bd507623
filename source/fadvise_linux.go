//go:build linux

package source

import "golang.org/x/sys/unix"

// fadviseSequential hints to the kernel that the file will be read
// sequentially, doubling readahead. Best-effort: errors are ignored.
func fadviseSequential(fd int, offset, length int64) {
	_ = unix.Fadvise(fd, offset, length, unix.FADV_SEQUENTIAL)
}

// madviseSequential is the mapping counterpart of fadviseSequential.
func madviseSequential(data []byte) {
	if len(data) == 0 {
		return
	}
	_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
}
