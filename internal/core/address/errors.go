package address

import "errors"

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrMalformedAddress 地址缺少冒号、主机或端口，或端口不是合法数字
	ErrMalformedAddress = errors.New("malformed address")

	// ErrAddressTooLong 主机或端口段超过长度上限
	ErrAddressTooLong = errors.New("address too long")

	// ErrResolutionFailure 主机名无法解析
	ErrResolutionFailure = errors.New("failed to resolve host name")
)
