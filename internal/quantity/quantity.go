// Package quantity converts cluster-native resource quantity strings into
// the two canonical units the accounting engine works in: millicores for
// CPU and MiB for memory.
//
// Parsing is deliberately permissive: a malformed value resolves to 0 so
// that one broken annotation never aborts a whole report. Failures are
// still counted and logged at verbosity 2 so they stay diagnosable; see
// Failures. Callers that need to distinguish "zero" from "unset" must
// check presence before calling; an empty string always yields 0.
package quantity

import (
	"strconv"
	"strings"
	"sync/atomic"

	"k8s.io/klog/v2"
)

var failureCount atomic.Int64

// Failures returns how many unparseable quantity strings have resolved
// to 0 since process start. Empty strings do not count: absence is "no
// declared amount", not a failure.
func Failures() int64 {
	return failureCount.Load()
}

func fail(kind, s string) float64 {
	failureCount.Add(1)
	klog.V(2).InfoS("unparseable quantity treated as 0", "kind", kind, "value", s)
	return 0
}

// BareUnit selects how a memory value with no recognized suffix is
// interpreted. The two conventions are not interchangeable: API object
// quantities serialize bare numbers as bytes, while tooling output and
// config files mean MiB. Every call site picks one explicitly.
type BareUnit int

const (
	// BareBytes treats a suffix-less number as bytes (raw API quantities).
	BareBytes BareUnit = iota
	// BareMiB treats a suffix-less number as MiB (top output, config files).
	BareMiB
)

// memMultipliers maps a memory suffix (with the trailing 'i' stripped) to
// the factor that converts its numeric prefix to MiB. The decimal forms
// K/M/G/T are treated as aliases of the binary forms; every reported sum
// relies on that equivalence, so no 1000-based scaling is applied.
var memMultipliers = map[string]float64{
	"K": 1.0 / 1024,
	"M": 1,
	"G": 1024,
	"T": 1024 * 1024,
}

// suffix probe order: longest unit names are single letters here, but the
// map iteration order is not stable, so probe explicitly.
var memSuffixes = []string{"K", "M", "G", "T"}

// ParseCPU converts a CPU quantity string ("500m", "1", "0.5") to
// millicores. Empty input and parse failures yield 0.
func ParseCPU(s string) float64 {
	if s == "" {
		return 0
	}
	if strings.HasSuffix(s, "m") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "m"), 64)
		if err != nil {
			return fail("cpu", s)
		}
		return v
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fail("cpu", s)
	}
	return v * 1000
}

// ParseMemory converts a memory quantity string ("1Gi", "256Mi", "512K")
// to MiB. Suffix-less numbers follow the bare convention of the call
// site. Empty input and parse failures yield 0.
func ParseMemory(s string, bare BareUnit) float64 {
	if s == "" {
		return 0
	}
	// Normalize "Gi" -> "G" etc. so one table covers both variants.
	trimmed := strings.ReplaceAll(s, "i", "")
	for _, suf := range memSuffixes {
		if !strings.HasSuffix(trimmed, suf) {
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSuffix(trimmed, suf), 64)
		if err != nil {
			return fail("memory", s)
		}
		return v * memMultipliers[suf]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fail("memory", s)
	}
	if bare == BareBytes {
		return v / (1024 * 1024)
	}
	return v
}
