//go:build linux

package pipeline

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"
)

// probeDiskHint best-effort determines whether root's backing block device
// is rotational, by resolving its device number via stat(2) and reading
// the sysfs "rotational" attribute. Any failure (virtual filesystem,
// partition device with no direct queue node, unreadable sysfs,
// permission) falls back to diskUnknown rather than erroring the whole
// run — this is a tuning hint, not a correctness requirement.
func probeDiskHint(root string) string {
	var st unix.Stat_t
	if err := unix.Stat(root, &st); err != nil {
		return diskUnknown
	}

	major := unix.Major(uint64(st.Dev))
	minor := unix.Minor(uint64(st.Dev))

	path := fmt.Sprintf("/sys/dev/block/%d:%d/queue/rotational", major, minor)
	data, err := os.ReadFile(path)
	if err != nil {
		return diskUnknown
	}

	switch strings.TrimSpace(string(data)) {
	case "0":
		return diskSSD
	case "1":
		return diskRotational
	default:
		return diskUnknown
	}
}
