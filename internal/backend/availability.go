package backend

import "strings"

// Available returns a comma-separated list of available backends.
func Available() string {
	entries := []string{CPU}
	if Has(Vulkan) {
		entries = append(entries, Vulkan)
	}
	return strings.Join(entries, ",")
}

// Has reports whether the named backend is compiled in.
func Has(name string) bool {
	switch name {
	case Vulkan:
		return vulkanEnabled
	default:
		return name == CPU
	}
}
