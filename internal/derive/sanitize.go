package derive

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strictPolicy 拒绝一切 HTML 元素，线程安全，整个包共享一份。
var strictPolicy = bluemonday.StrictPolicy()

// StripTags 去掉字符串中的全部 HTML 标签并裁剪首尾空白，
// 防止存储在标题或覆盖项里的标记穿透到公开列表。
func StripTags(s string) string {
	return strings.TrimSpace(strictPolicy.Sanitize(s))
}
