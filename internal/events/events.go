// Package events 把目录写路径上分散的生命周期钩子收敛为单一的
// "条目已变更" 通知：所有写路径各自发出恰好一次通知，由注册的处理器
// 统一完成缓存失效，避免同一 URL 换包后旧文件名存活。
package events

// Note 描述一次目录条目变更。DownloadsChanged 标记压缩包引用是否变化，
// 决定是否需要同时清掉巡检缓存。
type Note struct {
	ItemID           int64
	DownloadsChanged bool
}

// Handler 消费一条变更通知。处理器内部的失败不允许影响触发写入的成功。
type Handler func(Note)
