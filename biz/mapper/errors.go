package mapper

import "errors"

// ErrMapping 表示图元素的值形状与样式配置不符，映射时已回退为默认值
var ErrMapping = errors.New("mapper: cannot map element")
