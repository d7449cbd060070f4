package derive

// 两种历史上都出现过的兜底命名约定。部署时通过 FallbackNaming 二选一，
// 避免同一目录里混用两种风格。
func init() {
	MustRegisterConvention(Convention{
		Key:         "source",
		Description: "PascalCase source file name, e.g. RaidProtection.cs",
		Extension:   ".cs",
		Generate:    SourceFileName,
	})
	MustRegisterConvention(Convention{
		Key:         "archive",
		Description: "Hyphenated archive name with version suffix, e.g. Raid-Protection-2.1.0.zip",
		Extension:   ".zip",
		Generate:    ArchiveName,
	})
}
