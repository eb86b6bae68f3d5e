package pathutil

import "strings"

// Separator 插件目录路径使用的分隔符
const Separator = "/"

// RemoveMultiSeparator 将路径中连续出现的分隔符折叠为一个，容忍拼接不规范的配置路径
func RemoveMultiSeparator(path string) string {
	if !strings.Contains(path, Separator+Separator) {
		return path
	}

	var b strings.Builder
	b.Grow(len(path))
	lastSep := false
	for i := 0; i < len(path); i++ {
		c := path[i]
		if c == '/' {
			if lastSep {
				continue
			}
			lastSep = true
		} else {
			lastSep = false
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Join 以分隔符拼接各段后再做分隔符折叠
func Join(elem ...string) string {
	return RemoveMultiSeparator(strings.Join(elem, Separator))
}
