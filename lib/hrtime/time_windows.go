//go:build windows
// +build windows

// High-resolution time for Windows.

package hrtime

// References:
// https://github.com/golang/go/issues/31160
// https://learn.microsoft.com/en-us/windows/win32/sysinfo/acquiring-high-resolution-time-stamps

import (
	"errors"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	// Load windows dynamic link library.
	kernel32 = windows.NewLazyDLL("kernel32.dll")
	// Find windows dynamic link library functions.
	procQPF = kernel32.NewProc("QueryPerformanceFrequency")
	procQPC = kernel32.NewProc("QueryPerformanceCounter")
)

// https://learn.microsoft.com/en-us/windows/win32/api/profileapi/nf-profileapi-queryperformancefrequency
func getFrequency() (int64, bool) {
	var freq int64
	r1, _, err := procQPF.Call(uintptr(unsafe.Pointer(&freq)))
	if err != nil && !errors.Is(err, windows.SEVERITY_SUCCESS) {
		return 0, false
	}
	return freq, r1 == 1
}

// https://learn.microsoft.com/en-us/windows/win32/api/profileapi/nf-profileapi-queryperformancecounter
// In multi-cores CPU, the counter may not be monotonic.
func getCounter() (int64, bool) {
	var counter int64
	r1, _, err := procQPC.Call(uintptr(unsafe.Pointer(&counter)))
	if err != nil && !errors.Is(err, windows.SEVERITY_SUCCESS) {
		return 0, false
	}
	return counter, r1 == 1
}

type qpcClock struct {
	baseFreq    int64
	baseCounter int64
}

func (c *qpcClock) MonotonicElapsed() time.Duration {
	counter, _ := getCounter()
	return time.Duration(counter-c.baseCounter) * time.Second / (time.Duration(c.baseFreq) * time.Nanosecond)
}

var DefaultClock = newQPCClockOrFallback()

func newQPCClockOrFallback() Clock {
	counter, ok := getCounter()
	if !ok {
		return GoMonotonicClock
	}
	freq, ok := getFrequency()
	if !ok || freq <= 0 {
		return GoMonotonicClock
	}
	return &qpcClock{baseFreq: freq, baseCounter: counter}
}
