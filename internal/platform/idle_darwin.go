//go:build darwin

package platform

import (
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"time"
)

var hidIdlePattern = regexp.MustCompile(`"HIDIdleTime"\s*=\s*(\d+)`)

type ioregIdleProvider struct{}

func newIdleProvider() IdleProvider {
	return ioregIdleProvider{}
}

func (ioregIdleProvider) IdleDuration() (time.Duration, error) {
	output, err := exec.Command("ioreg", "-c", "IOHIDSystem", "-d", "4").Output()
	if err != nil {
		return 0, fmt.Errorf("ioreg: %w", err)
	}
	return parseHIDIdle(string(output))
}

func parseHIDIdle(output string) (time.Duration, error) {
	match := hidIdlePattern.FindStringSubmatch(output)
	if match == nil {
		return 0, ErrIdleUnsupported
	}
	nanos, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse HIDIdleTime: %w", err)
	}
	return time.Duration(nanos), nil
}
