// Package listing 把整份派生列表缓存在短期存储里（5 分钟 TTL），
// 并作为目录变更通知的唯一订阅者执行失效。
package listing

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustmods/mod-hub/internal/cache"
	"github.com/rustmods/mod-hub/internal/catalog"
	"github.com/rustmods/mod-hub/internal/derive"
	"github.com/rustmods/mod-hub/internal/events"
	"github.com/rustmods/mod-hub/internal/logging"
)

const listCacheKey = "modlist"

// HandlerName 是本服务在变更通知注册表中的名字。
const HandlerName = "listing"

// InspectionCache 暴露巡检缓存的失效入口，由 archive.Inspector 实现。
type InspectionCache interface {
	Forget(ctx context.Context, itemID int64)
}

// Service 提供读穿缓存的列表查询。并发的 miss 可能同时重建并先后写入
// 缓存，结果等价（解析是当前目录状态的纯函数），无需互斥。
type Service struct {
	store      catalog.Store
	flags      cache.Store
	resolver   *derive.Resolver
	inspection InspectionCache
	logger     *logrus.Logger
	ttl        time.Duration
	eager      bool
}

// NewService 构造列表服务。eager 为真时失效后立刻重建，
// 让下一次读取不用付解析成本。
func NewService(store catalog.Store, flags cache.Store, resolver *derive.Resolver, inspection InspectionCache, logger *logrus.Logger, ttl time.Duration, eager bool) *Service {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Service{
		store:      store,
		flags:      flags,
		resolver:   resolver,
		inspection: inspection,
		logger:     logger,
		ttl:        ttl,
		eager:      eager,
	}
}

// GetOrBuild 返回缓存中的列表；未命中时解析全部已发布条目并回填缓存。
// 永不失败：目录查询出错时返回空列表，错误只进日志。
func (s *Service) GetOrBuild(ctx context.Context) []derive.Record {
	if payload, err := s.flags.Get(listCacheKey); err == nil {
		var records []derive.Record
		if err := json.Unmarshal(payload, &records); err == nil {
			if s.logger != nil {
				s.logger.WithFields(logging.ListFields("list_read", len(records), true)).Debug("list served from cache")
			}
			return records
		}
		// 反序列化失败说明缓存损坏，丢掉重建。
		s.flags.Delete(listCacheKey)
	}

	records, err := s.rebuild(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.WithError(err).Error("list rebuild failed")
		}
		return []derive.Record{}
	}
	return records
}

// Invalidate 无条件删除缓存条目，而不是等它过期。
func (s *Service) Invalidate() {
	s.flags.Delete(listCacheKey)
}

// HandleItemMutated 消费条目变更通知：下载引用变化时先清巡检缓存，
// 然后删除列表缓存；配置了急切重建时顺手重建，失败只记日志。
func (s *Service) HandleItemMutated(note events.Note) {
	if note.DownloadsChanged && s.inspection != nil {
		s.inspection.Forget(context.Background(), note.ItemID)
	}
	s.Invalidate()

	if s.eager {
		if _, err := s.rebuild(context.Background()); err != nil && s.logger != nil {
			s.logger.WithError(err).Warn("eager rebuild failed, next read will rebuild")
		}
	}
}

// Register 把本服务挂到变更通知注册表上。
func (s *Service) Register() error {
	return events.Register(HandlerName, s.HandleItemMutated)
}

func (s *Service) rebuild(ctx context.Context) ([]derive.Record, error) {
	items, err := s.store.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	inputs := make([]derive.ResolveInput, 0, len(items))
	for _, item := range items {
		ov, err := s.store.Overrides(ctx, item.ID)
		if err != nil {
			// 单条覆盖项读取失败退回自动派生，不拖垮整批。
			if s.logger != nil {
				s.logger.WithFields(logging.ResolveFields(item.ID, item.Title)).WithError(err).Warn("overrides unavailable")
			}
			ov = derive.Overrides{}
		}
		inputs = append(inputs, derive.ResolveInput{
			Item: derive.Item{
				ID:        item.ID,
				Title:     catalog.ProductOf(item).DisplayName(),
				Permalink: item.Permalink,
			},
			Overrides: ov,
		})
	}

	records := s.resolver.ResolveAll(ctx, inputs)
	if records == nil {
		records = []derive.Record{}
	}

	if payload, err := json.Marshal(records); err == nil {
		if err := s.flags.Set(listCacheKey, payload, s.ttl); err != nil && s.logger != nil {
			s.logger.WithError(err).Warn("list cache write failed")
		}
	}

	if s.logger != nil {
		s.logger.WithFields(logging.ListFields("list_rebuild", len(records), false)).Info("list rebuilt")
	}
	return records, nil
}
