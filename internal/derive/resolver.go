package derive

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
)

// DefaultAuthor 标识目录运营方，没有覆盖项时使用。
const DefaultAuthor = "RUSTMods"

// Item 是解析一条记录所需的最小目录数据。
type Item struct {
	ID        int64
	Title     string
	Permalink string
}

// Overrides 是管理员为单个条目提供的可选覆盖值，空字符串表示未设置。
type Overrides struct {
	Filename string
	Version  string
	Author   string
}

// Record 是对外返回的派生记录。版本字段按线上约定序列化为 "last"。
type Record struct {
	Filename string `json:"filename"`
	Name     string `json:"name"`
	Version  string `json:"last"`
	Author   string `json:"author"`
	URL      string `json:"url"`
}

// Inspector 尝试从条目的压缩包里恢复内嵌源码文件名。
// 任何失败都表现为 ok=false，解析器据此退回生成式命名。
type Inspector interface {
	ResolveSourceName(ctx context.Context, item Item) (string, bool)
}

// Resolver 组合版本探测、文件名归一化与压缩包巡检，产出派生记录。
type Resolver struct {
	Inspector  Inspector
	Author     string
	Convention Convention
	Logger     *logrus.Logger
}

// NewResolver 构造解析器。author 为空时退回 DefaultAuthor，
// conventionKey 无法解析时退回默认约定。
func NewResolver(inspector Inspector, author, conventionKey string, logger *logrus.Logger) *Resolver {
	if author == "" {
		author = DefaultAuthor
	}
	conv, ok := ResolveConvention(conventionKey)
	if !ok {
		conv, _ = ResolveConvention(DefaultConventionKey())
	}
	return &Resolver{
		Inspector:  inspector,
		Author:     author,
		Convention: conv,
		Logger:     logger,
	}
}

// Resolve 为单个条目派生记录。纯函数式：同样的条目、覆盖项与压缩包内容
// 一定得到同样的记录。
func (r *Resolver) Resolve(ctx context.Context, item Item, ov Overrides) Record {
	title := StripTags(item.Title)

	version := strings.TrimSpace(ov.Version)
	if version == "" {
		version = DetectVersion(title)
	}

	filename := ""
	if trimmed := strings.TrimSpace(ov.Filename); trimmed != "" {
		// 覆盖项优先于一切，巡检结果直接忽略。
		filename = SanitizeFilename(trimmed)
	} else {
		if r.Inspector != nil {
			if name, ok := r.Inspector.ResolveSourceName(ctx, item); ok {
				filename = name
			}
		}
		if filename == "" {
			filename = r.Convention.Generate(title, version)
		}
	}

	author := strings.TrimSpace(ov.Author)
	if author == "" {
		author = r.Author
	}

	name := StripVersion(title, version)

	return Record{
		Filename: StripTags(filename),
		Name:     StripTags(name),
		Version:  StripTags(version),
		Author:   StripTags(author),
		URL:      item.Permalink,
	}
}

// ResolveAll 顺序解析全部条目，保持输入顺序。单个条目的巡检失败只影响
// 它自己的文件名，不会中断整批解析。
func (r *Resolver) ResolveAll(ctx context.Context, inputs []ResolveInput) []Record {
	records := make([]Record, 0, len(inputs))
	for _, input := range inputs {
		record := r.Resolve(ctx, input.Item, input.Overrides)
		if r.Logger != nil {
			r.Logger.WithFields(logrus.Fields{
				"item_id":  input.Item.ID,
				"filename": record.Filename,
				"last":     record.Version,
			}).Debug("record resolved")
		}
		records = append(records, record)
	}
	return records
}

// ResolveInput 把条目与它的覆盖项捆绑在一起，由上层目录查询组装。
type ResolveInput struct {
	Item      Item
	Overrides Overrides
}
