package catalog

const createItemsTable = `
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 0,
    permalink TEXT NOT NULL DEFAULT '',
    download_url TEXT NOT NULL DEFAULT '',
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_published ON items(published);
`

const createItemMetaTable = `
CREATE TABLE IF NOT EXISTS item_meta (
    item_id INTEGER NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (item_id, key)
);
`

const insertItem = `
INSERT INTO items (title, published, permalink, download_url, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)
`

const updateItem = `
UPDATE items
SET title = ?, published = ?, permalink = ?, download_url = ?, updated_at = ?
WHERE id = ?
`

const updateItemDownload = `
UPDATE items SET download_url = ?, updated_at = ? WHERE id = ?
`

const selectItem = `
SELECT id, title, published, permalink, download_url, created_at, updated_at
FROM items WHERE id = ?
`

const selectPublishedItems = `
SELECT id, title, published, permalink, download_url, created_at, updated_at
FROM items WHERE published = 1 ORDER BY id
`

const selectMeta = `
SELECT value FROM item_meta WHERE item_id = ? AND key = ?
`

const upsertMeta = `
INSERT INTO item_meta (item_id, key, value) VALUES (?, ?, ?)
ON CONFLICT (item_id, key) DO UPDATE SET value = excluded.value
`

const deleteMeta = `
DELETE FROM item_meta WHERE item_id = ? AND key = ?
`
