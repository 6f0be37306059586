package backend

import (
	"fmt"
	"strings"

	"github.com/samcharles93/vkautotune/internal/device"
)

const (
	CPU    = "cpu"
	Vulkan = "vulkan"
	Auto   = "auto"
)

// Normalize validates a backend name.
func Normalize(name string) (string, error) {
	backend := strings.ToLower(strings.TrimSpace(name))
	if backend == "" {
		return Auto, nil
	}
	switch backend {
	case CPU, Vulkan, Auto:
		return backend, nil
	default:
		return "", fmt.Errorf("unknown backend %q (expected auto, cpu, or vulkan)", backend)
	}
}

// NeedsKernel reports whether the named backend executes a kernel binary.
func NeedsKernel(name string) bool {
	return name == Vulkan
}

// Resolve maps auto to the best compiled-in backend.
func Resolve(name string) (string, error) {
	backend, err := Normalize(name)
	if err != nil {
		return "", err
	}
	if backend != Auto {
		return backend, nil
	}
	if vulkanEnabled {
		return Vulkan, nil
	}
	return CPU, nil
}

// Open initializes the named backend. name must already be resolved.
func Open(name string, opts device.Options) (device.Device, error) {
	switch name {
	case CPU:
		return newCPU(opts)
	case Vulkan:
		return newVulkan(opts)
	default:
		return nil, fmt.Errorf("backend %q must be resolved before open", name)
	}
}
