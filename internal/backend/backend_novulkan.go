//go:build !vulkan

package backend

import (
	"fmt"

	"github.com/samcharles93/vkautotune/internal/backend/cpu"
	"github.com/samcharles93/vkautotune/internal/device"
)

const vulkanEnabled = false

func newCPU(opts device.Options) (device.Device, error) {
	dev, err := cpu.Open(opts)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

func newVulkan(device.Options) (device.Device, error) {
	return nil, fmt.Errorf("vulkan backend is not available in this build: %w", device.ErrUnavailable)
}
