//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package delivery

import "golang.org/x/sys/unix"

// mapShared creates an anonymous shared mapping of n bytes.
func mapShared(n int) ([]byte, func([]byte) error, error) {
	data, err := unix.Mmap(-1, 0, n, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_SHARED)
	if err != nil {
		return nil, nil, err
	}
	return data, unix.Munmap, nil
}
