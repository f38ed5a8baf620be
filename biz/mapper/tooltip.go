package mapper

import (
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/spf13/cast"
)

// Tooltip 把所有属性拼接为 "<strong>key:</strong> value<br>"。
// Go 的 map 没有插入顺序，这里按键名字典序输出。
func Tooltip(props map[string]any, escape bool) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		key, val := k, FormatValue(props[k])
		if escape {
			key, val = html.EscapeString(key), html.EscapeString(val)
		}
		b.WriteString("<strong>")
		b.WriteString(key)
		b.WriteString(":</strong> ")
		b.WriteString(val)
		b.WriteString("<br>")
	}
	return b.String()
}

// FormatValue 把属性值格式化为字符串，列表以逗号连接
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			if item == nil {
				continue
			}
			parts[i] = FormatValue(item)
		}
		return strings.Join(parts, ",")
	case []string:
		return strings.Join(val, ",")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + ": " + FormatValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case fmt.Stringer:
		return val.String()
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return s
}
