package derive

import "regexp"

// DefaultVersion 是标题中找不到版本号时的兜底值。
const DefaultVersion = "1.0.0"

// 版本号形如 N.N 或 N.N.N，按词边界匹配，保留原文中的前导零与分组。
var versionPattern = regexp.MustCompile(`\b\d+(?:\.\d+){1,2}\b`)

// DetectVersion 返回标题中最左侧的版本号 token；无匹配时返回 DefaultVersion。
// 不做任何数值归一化，匹配到什么就原样返回什么。
func DetectVersion(title string) string {
	if title == "" {
		return DefaultVersion
	}
	if match := versionPattern.FindString(title); match != "" {
		return match
	}
	return DefaultVersion
}
