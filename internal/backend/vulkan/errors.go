//go:build vulkan

package vulkan

import "fmt"

// ResultError is a failed Vulkan call.
type ResultError struct {
	Op   string
	Code int
}

func (e *ResultError) Error() string {
	return fmt.Sprintf("vulkan: %s: %s (%d)", e.Op, resultName(e.Code), e.Code)
}

// Is matches any ResultError carrying the same code.
func (e *ResultError) Is(target error) bool {
	t, ok := target.(*ResultError)
	return ok && t.Code == e.Code
}

func newResultError(op string, code int) error {
	if code == 0 {
		return nil
	}
	return &ResultError{Op: op, Code: code}
}

func resultName(code int) string {
	switch code {
	case 1:
		return "VK_NOT_READY"
	case 2:
		return "VK_TIMEOUT"
	case -1:
		return "VK_ERROR_OUT_OF_HOST_MEMORY"
	case -2:
		return "VK_ERROR_OUT_OF_DEVICE_MEMORY"
	case -3:
		return "VK_ERROR_INITIALIZATION_FAILED"
	case -4:
		return "VK_ERROR_DEVICE_LOST"
	case -8:
		return "VK_ERROR_FEATURE_NOT_PRESENT"
	case -9:
		return "VK_ERROR_INCOMPATIBLE_DRIVER"
	case -13:
		return "VK_ERROR_UNKNOWN"
	case -1000012000:
		return "VK_ERROR_INVALID_SHADER_NV"
	default:
		return "VkResult"
	}
}
