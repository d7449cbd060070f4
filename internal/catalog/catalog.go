// Package catalog 持有目录条目与其键值元数据，是派生流水线唯一的
// 事实来源。所有写路径在事务提交后发出恰好一次条目变更通知。
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/rustmods/mod-hub/internal/derive"
)

// ErrNotFound 表示目录条目不存在。
var ErrNotFound = errors.New("catalog item not found")

// Item 是一个可发布的目录条目。DownloadURL 为空表示没有关联压缩包。
type Item struct {
	ID          int64
	Title       string
	Published   bool
	Permalink   string
	DownloadURL string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Download 是条目关联的可下载文件引用。
type Download struct {
	URL string
}

// Draft 是创建条目时的输入。
type Draft struct {
	Title       string
	Published   bool
	Permalink   string
	DownloadURL string
}

// Store 定义目录与元数据的读写契约。
type Store interface {
	CreateItem(ctx context.Context, draft Draft) (Item, error)
	UpdateItem(ctx context.Context, item Item) error
	SetDownload(ctx context.Context, itemID int64, url string) error
	Item(ctx context.Context, id int64) (Item, error)
	ListPublished(ctx context.Context) ([]Item, error)

	// 元数据键值存储：覆盖项与巡检缓存字段都存在这里。
	// GetMeta 对缺失的键返回空串而不是错误。
	GetMeta(ctx context.Context, itemID int64, key string) (string, error)
	SetMeta(ctx context.Context, itemID int64, key, value string) error
	DeleteMeta(ctx context.Context, itemID int64, key string) error

	Overrides(ctx context.Context, itemID int64) (derive.Overrides, error)
	SaveOverrides(ctx context.Context, itemID int64, ov derive.Overrides) error

	Close() error
}
