package archive

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rustmods/mod-hub/internal/cache"
	"github.com/rustmods/mod-hub/internal/catalog"
	"github.com/rustmods/mod-hub/internal/derive"
)

const sourceExtension = ".cs"

// Inspector 打开条目的压缩包，返回其中第一个源码条目的基础名。
// 结果缓存在条目元数据里，键上带着当时的来源 URL：URL 一变缓存即失效。
type Inspector struct {
	store        catalog.Store
	flags        cache.Store
	fetcher      Fetcher
	logger       *logrus.Logger
	fetchTimeout time.Duration
	rescanTTL    time.Duration

	// degraded 记录是否遇到过无法读取的来源，供诊断端提示运营方。
	degraded atomic.Bool
}

// NewInspector 构造压缩包巡检器。
func NewInspector(store catalog.Store, flags cache.Store, fetcher Fetcher, logger *logrus.Logger, fetchTimeout, rescanTTL time.Duration) *Inspector {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	if rescanTTL <= 0 {
		rescanTTL = 60 * time.Second
	}
	return &Inspector{
		store:        store,
		flags:        flags,
		fetcher:      fetcher,
		logger:       logger,
		fetchTimeout: fetchTimeout,
		rescanTTL:    rescanTTL,
	}
}

// ResolveSourceName 实现 derive.Inspector。任何失败（无下载、拉取失败、
// 包打不开、没有匹配条目）都表现为 ok=false，绝不向上抛错。
func (i *Inspector) ResolveSourceName(ctx context.Context, dItem derive.Item) (string, bool) {
	item, err := i.store.Item(ctx, dItem.ID)
	if err != nil {
		return "", false
	}

	downloads := catalog.ProductOf(item).Downloads()
	if len(downloads) == 0 {
		return "", false
	}
	sourceURL := downloads[0].URL

	if i.consumeRescanFlag(item.ID) {
		i.Forget(ctx, item.ID)
	}

	cachedName, _ := i.store.GetMeta(ctx, item.ID, catalog.MetaInspectedFilename)
	cachedURL, _ := i.store.GetMeta(ctx, item.ID, catalog.MetaInspectedSourceURL)
	if cachedName != "" && cachedURL != "" && cachedURL == sourceURL {
		return cachedName, true
	}

	name, ok := i.inspect(ctx, item.ID, sourceURL)
	if !ok {
		return "", false
	}

	name = derive.SanitizeFilename(name)
	if err := i.store.SetMeta(ctx, item.ID, catalog.MetaInspectedFilename, name); err != nil {
		i.warn(item.ID, "cache inspected filename", err)
	}
	if err := i.store.SetMeta(ctx, item.ID, catalog.MetaInspectedSourceURL, sourceURL); err != nil {
		i.warn(item.ID, "cache inspected source url", err)
	}
	return name, true
}

// inspect 打开压缩包并返回第一个 .cs 条目的基础名（按包内顺序）。
func (i *Inspector) inspect(ctx context.Context, itemID int64, sourceURL string) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, i.fetchTimeout)
	defer cancel()

	src, err := i.fetcher.Open(ctx, sourceURL)
	if err != nil {
		i.reportOpenFailure(itemID, sourceURL, err)
		return "", false
	}
	defer src.Close()

	reader, err := zip.NewReader(src.ReaderAt, src.Size)
	if err != nil {
		i.warn(itemID, "open zip", err)
		return "", false
	}

	for _, entry := range reader.File {
		if strings.HasSuffix(strings.ToLower(entry.Name), sourceExtension) {
			return path.Base(entry.Name), true
		}
	}
	return "", false
}

// Forget 清掉条目的巡检缓存，下次查询会重新打开压缩包。
func (i *Inspector) Forget(ctx context.Context, itemID int64) {
	if err := i.store.DeleteMeta(ctx, itemID, catalog.MetaInspectedFilename); err != nil {
		i.warn(itemID, "forget inspected filename", err)
	}
	if err := i.store.DeleteMeta(ctx, itemID, catalog.MetaInspectedSourceURL); err != nil {
		i.warn(itemID, "forget inspected source url", err)
	}
}

// RequestRescan 设置短期重扫标记，60 秒内的下一次查询会强制重新巡检。
func (i *Inspector) RequestRescan(itemID int64) {
	if err := i.flags.Set(rescanKey(itemID), []byte("1"), i.rescanTTL); err != nil {
		i.warn(itemID, "set rescan flag", err)
	}
}

// Degraded 表示曾经遇到无法读取的压缩包来源，需要运营方关注。
func (i *Inspector) Degraded() bool {
	return i.degraded.Load()
}

func (i *Inspector) consumeRescanFlag(itemID int64) bool {
	if _, err := i.flags.Get(rescanKey(itemID)); err != nil {
		return false
	}
	i.flags.Delete(rescanKey(itemID))
	return true
}

func (i *Inspector) reportOpenFailure(itemID int64, sourceURL string, err error) {
	unsupported := errors.Is(err, ErrUnsupportedScheme)
	if unsupported {
		// 读取能力缺失属于运营问题，列表会继续用生成式命名。
		i.degraded.Store(true)
	}
	if i.logger == nil {
		return
	}
	fields := logrus.Fields{
		"item_id": itemID,
		"source":  sourceURL,
	}
	if unsupported {
		i.logger.WithFields(fields).WithError(err).Warn("archive source unreadable, falling back to generated names")
		return
	}
	i.logger.WithFields(fields).WithError(err).Debug("archive open failed")
}

func (i *Inspector) warn(itemID int64, action string, err error) {
	if i.logger == nil {
		return
	}
	i.logger.WithFields(logrus.Fields{
		"item_id": itemID,
		"action":  action,
	}).WithError(err).Warn("archive inspector")
}

func rescanKey(itemID int64) string {
	return fmt.Sprintf("rescan:%d", itemID)
}
