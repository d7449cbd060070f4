package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	_ "modernc.org/sqlite"

	"github.com/rustmods/mod-hub/internal/events"
)

const timeLayout = time.RFC3339

// NewStore 打开（必要时创建）SQLite 目录库并初始化表结构。
func NewStore(dbPath string, logger *logrus.Logger) (Store, error) {
	if dbPath == "" {
		return nil, errors.New("database path required")
	}

	dir := filepath.Dir(dbPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	for _, stmt := range []string{createItemsTable, createItemMetaTable} {
		if _, err := conn.Exec(stmt); err != nil {
			conn.Close()
			return nil, fmt.Errorf("create schema: %w", err)
		}
	}

	return &sqliteStore{conn: conn, logger: logger, now: time.Now}, nil
}

type sqliteStore struct {
	conn   *sql.DB
	logger *logrus.Logger
	now    func() time.Time
}

func (s *sqliteStore) Close() error {
	return s.conn.Close()
}

// mutate 在单个事务内执行写入，提交成功后才排空通知队列。
// 队列属于本次事务，写入失败时不会有任何通知泄漏到处理器。
func (s *sqliteStore) mutate(ctx context.Context, fn func(tx *sql.Tx, q *events.Queue) error) error {
	queue := events.NewQueue(s.logger)

	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(tx, queue); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}

	queue.Drain()
	return nil
}

func (s *sqliteStore) CreateItem(ctx context.Context, draft Draft) (Item, error) {
	now := s.now().UTC()
	item := Item{
		Title:       draft.Title,
		Published:   draft.Published,
		Permalink:   draft.Permalink,
		DownloadURL: draft.DownloadURL,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	err := s.mutate(ctx, func(tx *sql.Tx, q *events.Queue) error {
		result, err := tx.ExecContext(ctx, insertItem,
			item.Title, boolToInt(item.Published), item.Permalink, item.DownloadURL,
			now.Format(timeLayout), now.Format(timeLayout))
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("read item id: %w", err)
		}
		item.ID = id

		q.Add(events.Note{ItemID: id, DownloadsChanged: item.DownloadURL != ""})
		return nil
	})
	if err != nil {
		return Item{}, err
	}
	return item, nil
}

func (s *sqliteStore) UpdateItem(ctx context.Context, item Item) error {
	now := s.now().UTC()

	return s.mutate(ctx, func(tx *sql.Tx, q *events.Queue) error {
		previous, err := itemInTx(ctx, tx, item.ID)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, updateItem,
			item.Title, boolToInt(item.Published), item.Permalink, item.DownloadURL,
			now.Format(timeLayout), item.ID)
		if err != nil {
			return fmt.Errorf("update item: %w", err)
		}

		q.Add(events.Note{
			ItemID:           item.ID,
			DownloadsChanged: previous.DownloadURL != item.DownloadURL,
		})
		return nil
	})
}

// SetDownload 更换条目的压缩包引用。url 为空表示移除下载。
func (s *sqliteStore) SetDownload(ctx context.Context, itemID int64, url string) error {
	now := s.now().UTC()

	return s.mutate(ctx, func(tx *sql.Tx, q *events.Queue) error {
		if _, err := itemInTx(ctx, tx, itemID); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx, updateItemDownload, url, now.Format(timeLayout), itemID); err != nil {
			return fmt.Errorf("update download: %w", err)
		}

		// 同 URL 换包也要触发失效，否则旧的巡检结果会一直存活。
		q.Add(events.Note{ItemID: itemID, DownloadsChanged: true})
		return nil
	})
}

func (s *sqliteStore) Item(ctx context.Context, id int64) (Item, error) {
	row := s.conn.QueryRowContext(ctx, selectItem, id)
	return scanItem(row)
}

func (s *sqliteStore) ListPublished(ctx context.Context) ([]Item, error) {
	rows, err := s.conn.QueryContext(ctx, selectPublishedItems)
	if err != nil {
		return nil, fmt.Errorf("list published items: %w", err)
	}
	defer rows.Close()

	var items []Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (s *sqliteStore) GetMeta(ctx context.Context, itemID int64, key string) (string, error) {
	var value string
	err := s.conn.QueryRowContext(ctx, selectMeta, itemID, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read meta %s: %w", key, err)
	}
	return value, nil
}

func (s *sqliteStore) SetMeta(ctx context.Context, itemID int64, key, value string) error {
	if _, err := s.conn.ExecContext(ctx, upsertMeta, itemID, key, value); err != nil {
		return fmt.Errorf("write meta %s: %w", key, err)
	}
	return nil
}

func (s *sqliteStore) DeleteMeta(ctx context.Context, itemID int64, key string) error {
	if _, err := s.conn.ExecContext(ctx, deleteMeta, itemID, key); err != nil {
		return fmt.Errorf("delete meta %s: %w", key, err)
	}
	return nil
}

func itemInTx(ctx context.Context, tx *sql.Tx, id int64) (Item, error) {
	row := tx.QueryRowContext(ctx, selectItem, id)
	return scanItem(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (Item, error) {
	var (
		item      Item
		published int
		createdAt string
		updatedAt string
	)
	err := row.Scan(&item.ID, &item.Title, &published, &item.Permalink,
		&item.DownloadURL, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("scan item: %w", err)
	}

	item.Published = published != 0
	if t, err := time.Parse(timeLayout, createdAt); err == nil {
		item.CreatedAt = t
	}
	if t, err := time.Parse(timeLayout, updatedAt); err == nil {
		item.UpdatedAt = t
	}
	return item, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
