//go:build linux

package helpers

import (
	"bufio"
	"os"
	"strconv"
	"strings"
)

// GetTotalSystemMemoryMB reads the MemTotal line from /proc/meminfo and
// converts it to MB. Returns 0 when the value cannot be determined.
func GetTotalSystemMemoryMB() int {
	meminfo, err := os.Open("/proc/meminfo")
	if err != nil {
		return 0
	}
	defer meminfo.Close()

	scanner := bufio.NewScanner(meminfo)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "MemTotal:") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return 0
		}
		kb, err := strconv.Atoi(fields[1])
		if err != nil {
			return 0
		}
		return kb / 1024
	}
	return 0
}
