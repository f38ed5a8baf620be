package graph

import "math"

// MaxSafeInteger 是 float64 能精确表示的最大整数 (2^53 - 1)
const MaxSafeInteger = 1<<53 - 1

// Narrow 将数据库数值收窄为 float64。
// int64 只有在安全范围内才会转换；非数值或超出范围时 ok 为 false。
func Narrow(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return 0, false
		}
		return n, true
	case float32:
		return Narrow(float64(n))
	case int64:
		return narrowInt(n)
	case int:
		return narrowInt(int64(n))
	case int32:
		return float64(n), true
	case int16:
		return float64(n), true
	case int8:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		if n > MaxSafeInteger {
			return 0, false
		}
		return float64(n), true
	default:
		return 0, false
	}
}

func narrowInt(n int64) (float64, bool) {
	if n > MaxSafeInteger || n < -MaxSafeInteger {
		return 0, false
	}
	return float64(n), true
}

// IsNumeric 判断值是否为数值类型 (不论是否在安全范围内)
func IsNumeric(v any) bool {
	switch v.(type) {
	case float64, float32, int64, int, int32, int16, int8, uint64, uint32:
		return true
	default:
		return false
	}
}
