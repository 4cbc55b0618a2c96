// Package device describes the processor the networks run on. Training always
// runs on the CPU.
package device

import "runtime"

import "github.com/klauspost/cpuid/v2"

// Info describes the host processor.
type Info struct {
	Brand         string
	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	AVX512        bool
	FMA           bool
}

// Describe reports the host processor.
func Describe() Info {
	return Info{
		Brand:         cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:        cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
		FMA:           cpuid.CPU.Supports(cpuid.FMA3),
	}
}

// Threads resolves a requested thread count, 0 meaning one per physical core.
func Threads(requested int) int {
	if requested > 0 {
		return requested
	}
	if n := cpuid.CPU.PhysicalCores; n > 0 {
		return n
	}
	return runtime.NumCPU()
}
