//go:build vulkan

package backend

import (
	"github.com/samcharles93/vkautotune/internal/backend/cpu"
	"github.com/samcharles93/vkautotune/internal/backend/vulkan"
	"github.com/samcharles93/vkautotune/internal/device"
)

const vulkanEnabled = true

func newCPU(opts device.Options) (device.Device, error) {
	dev, err := cpu.Open(opts)
	if err != nil {
		return nil, err
	}
	return dev, nil
}

func newVulkan(opts device.Options) (device.Device, error) {
	dev, err := vulkan.Open(opts)
	if err != nil {
		return nil, err
	}
	return dev, nil
}
