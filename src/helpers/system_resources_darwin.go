//go:build darwin

package helpers

import (
	"os/exec"
	"strconv"
	"strings"
)

// GetTotalSystemMemoryMB asks sysctl for hw.memsize and converts the byte
// count to MB. Returns 0 when sysctl is unavailable or unparsable.
func GetTotalSystemMemoryMB() int {
	out, err := exec.Command("sysctl", "-n", "hw.memsize").Output()
	if err != nil {
		return 0
	}

	totalBytes, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0
	}

	return int(totalBytes / 1024 / 1024)
}
