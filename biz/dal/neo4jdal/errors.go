package neo4jdal

import "errors"

// ErrUnexpectedResult 表示事务返回了非预期的结果类型
var ErrUnexpectedResult = errors.New("neo4jdal: unexpected result type")
