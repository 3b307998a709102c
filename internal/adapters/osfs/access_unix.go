//go:build unix

package osfs

import "golang.org/x/sys/unix"

func canWrite(name string) bool {
	return unix.Access(name, unix.W_OK) == nil
}
