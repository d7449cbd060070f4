package derive

import (
	"regexp"
	"strings"
	"unicode"
)

var hyphenRuns = regexp.MustCompile(`-{2,}`)

// StripVersion 从标题中移除第一个按词边界匹配的版本号子串（大小写不敏感），
// 并把残留的连续空白收敛为单个空格。版本号为空或等于默认值时标题原样保留。
func StripVersion(title, version string) string {
	if version == "" || version == DefaultVersion {
		return collapseSpaces(title)
	}

	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(version) + `\b`)
	if err != nil {
		return collapseSpaces(title)
	}
	loc := pattern.FindStringIndex(title)
	if loc == nil {
		return collapseSpaces(title)
	}
	return collapseSpaces(title[:loc[0]] + " " + title[loc[1]:])
}

// ArchiveName 按连字符约定生成压缩包文件名，例如 "Raid-Protection-2.1.0.zip"。
// 版本号非默认值时追加 -version 后缀，否则只追加 .zip。
func ArchiveName(title, version string) string {
	base := StripVersion(title, version)

	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' || r == '-' {
			b.WriteRune(r)
		}
	}

	name := strings.Join(strings.Fields(b.String()), "-")
	name = hyphenRuns.ReplaceAllString(name, "-")
	name = strings.Trim(name, "-")
	if name == "" {
		name = "product"
	}

	if version != "" && version != DefaultVersion {
		return name + "-" + version + ".zip"
	}
	return name + ".zip"
}

// SourceFileName 按 PascalCase 约定生成源码文件名，例如 "RaidProtection.cs"。
// 源码文件名不携带版本后缀，能从压缩包里恢复出来的名字是权威的。
func SourceFileName(title, version string) string {
	base := StripVersion(title, version)

	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}

	name := pascalJoin(strings.Fields(b.String()))
	if name == "" {
		name = "Product"
	}
	return name + ".cs"
}

// SanitizeFilename 清洗一个已经存在的文件名：含 - 或 _ 时去掉 .cs 扩展名、
// 把分隔符还原成空格并重新 PascalCase 拼接；不含分隔符的名字原样通过，
// 因此对已清洗的输入是幂等的。
func SanitizeFilename(filename string) string {
	if !strings.ContainsAny(filename, "-_") {
		return filename
	}

	ext := ""
	base := filename
	if len(base) > 3 && strings.EqualFold(base[len(base)-3:], ".cs") {
		ext = ".cs"
		base = base[:len(base)-3]
	}

	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)

	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			b.WriteRune(r)
		}
	}

	name := pascalJoin(strings.Fields(b.String()))
	if name == "" {
		name = "Product"
	}
	return name + ext
}

// pascalJoin 把单词序列转为首字母大写、其余小写的连写形式。
func pascalJoin(words []string) string {
	var b strings.Builder
	for _, word := range words {
		runes := []rune(word)
		b.WriteRune(unicode.ToUpper(runes[0]))
		b.WriteString(strings.ToLower(string(runes[1:])))
	}
	return b.String()
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
