package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/rustmods/mod-hub/internal/derive"
	"github.com/rustmods/mod-hub/internal/events"
)

// 元数据键。覆盖项由管理员维护，inspected_* 两个键是巡检缓存字段。
const (
	MetaOverrideFilename = "override_filename"
	MetaOverrideVersion  = "override_version"
	MetaOverrideAuthor   = "override_author"

	MetaInspectedFilename  = "inspected_filename"
	MetaInspectedSourceURL = "inspected_source_url"
)

// Overrides 读取条目的覆盖项，缺失的字段为空串。
func (s *sqliteStore) Overrides(ctx context.Context, itemID int64) (derive.Overrides, error) {
	var ov derive.Overrides
	var err error

	if ov.Filename, err = s.GetMeta(ctx, itemID, MetaOverrideFilename); err != nil {
		return derive.Overrides{}, err
	}
	if ov.Version, err = s.GetMeta(ctx, itemID, MetaOverrideVersion); err != nil {
		return derive.Overrides{}, err
	}
	if ov.Author, err = s.GetMeta(ctx, itemID, MetaOverrideAuthor); err != nil {
		return derive.Overrides{}, err
	}
	return ov, nil
}

// SaveOverrides 执行后台保存流程：值先裁剪并去除 HTML 标签，
// 空值删除对应覆盖项（回到自动派生），非空值原样保存。
// 保存完成后发出一次条目变更通知。
func (s *sqliteStore) SaveOverrides(ctx context.Context, itemID int64, ov derive.Overrides) error {
	return s.mutate(ctx, func(tx *sql.Tx, q *events.Queue) error {
		if _, err := itemInTx(ctx, tx, itemID); err != nil {
			return err
		}

		fields := map[string]string{
			MetaOverrideFilename: ov.Filename,
			MetaOverrideVersion:  ov.Version,
			MetaOverrideAuthor:   ov.Author,
		}
		for key, raw := range fields {
			value := derive.StripTags(strings.TrimSpace(raw))
			if value == "" {
				if _, err := tx.ExecContext(ctx, deleteMeta, itemID, key); err != nil {
					return fmt.Errorf("delete meta %s: %w", key, err)
				}
				continue
			}
			if _, err := tx.ExecContext(ctx, upsertMeta, itemID, key, value); err != nil {
				return fmt.Errorf("write meta %s: %w", key, err)
			}
		}

		q.Add(events.Note{ItemID: itemID})
		return nil
	})
}
