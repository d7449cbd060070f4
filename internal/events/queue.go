package events

import (
	"sort"
	"sync"

	"github.com/sirupsen/logrus"
)

// Queue 收集一次写事务内待通知的条目，事务提交后统一发出。
// 队列属于单个事务，不跨请求共享；同一条目多次入队会被合并，
// DownloadsChanged 只要出现过一次就保留。
type Queue struct {
	mu      sync.Mutex
	pending map[int64]Note
	logger  *logrus.Logger
}

// NewQueue 构造事务级通知队列。
func NewQueue(logger *logrus.Logger) *Queue {
	return &Queue{
		pending: make(map[int64]Note),
		logger:  logger,
	}
}

// Add 记录一条待发通知，与已有同条目通知合并。
func (q *Queue) Add(note Note) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if existing, ok := q.pending[note.ItemID]; ok {
		existing.DownloadsChanged = existing.DownloadsChanged || note.DownloadsChanged
		q.pending[note.ItemID] = existing
		return
	}
	q.pending[note.ItemID] = note
}

// Drain 把队列中的通知逐条交给所有注册处理器，然后清空队列。
// 处理器 panic 会被吞掉并记日志：失效/重建失败不允许波及触发写入。
func (q *Queue) Drain() {
	q.mu.Lock()
	notes := make([]Note, 0, len(q.pending))
	for _, note := range q.pending {
		notes = append(notes, note)
	}
	q.pending = make(map[int64]Note)
	q.mu.Unlock()

	sort.Slice(notes, func(i, j int) bool { return notes[i].ItemID < notes[j].ItemID })

	for _, note := range notes {
		registry.Range(func(key, value any) bool {
			handler, ok := value.(Handler)
			if !ok {
				return true
			}
			q.dispatch(key, handler, note)
			return true
		})
	}
}

func (q *Queue) dispatch(key any, handler Handler, note Note) {
	defer func() {
		if r := recover(); r != nil && q.logger != nil {
			q.logger.WithFields(logrus.Fields{
				"action":  "event_dispatch",
				"handler": key,
				"item_id": note.ItemID,
				"panic":   r,
			}).Warn("mutation handler panicked, ignored")
		}
	}()
	handler(note)
}
