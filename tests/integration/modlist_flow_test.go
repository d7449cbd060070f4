package integration

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/rustmods/mod-hub/internal/archive"
	"github.com/rustmods/mod-hub/internal/cache"
	"github.com/rustmods/mod-hub/internal/catalog"
	"github.com/rustmods/mod-hub/internal/derive"
	"github.com/rustmods/mod-hub/internal/events"
	"github.com/rustmods/mod-hub/internal/listing"
	"github.com/rustmods/mod-hub/internal/server"
	"github.com/rustmods/mod-hub/internal/server/routes"
)

// archiveStub 提供带 Range 支持的压缩包下载端点，并统计访问次数。
type archiveStub struct {
	server *httptest.Server
	mu     sync.Mutex
	body   []byte
	hits   int
}

func newArchiveStub(t *testing.T, body []byte) *archiveStub {
	t.Helper()

	stub := &archiveStub{body: body}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		stub.mu.Lock()
		stub.hits++
		data := stub.body
		stub.mu.Unlock()
		http.ServeContent(w, r, "mod.zip", time.Now(), bytes.NewReader(data))
	}))
	t.Cleanup(stub.server.Close)
	return stub
}

func (s *archiveStub) URL() string { return s.server.URL + "/mod.zip" }

func (s *archiveStub) Hits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits
}

func (s *archiveStub) Replace(body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.body = body
}

func buildZip(t *testing.T, names ...string) []byte {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range names {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatalf("create zip entry: %v", err)
		}
		if _, err := fw.Write([]byte("plugin body")); err != nil {
			t.Fatalf("write zip entry: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

type env struct {
	app       *fiber.App
	store     catalog.Store
	inspector *archive.Inspector
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store, err := catalog.NewStore(filepath.Join(t.TempDir(), "catalog.db"), logger)
	if err != nil {
		t.Fatalf("store error: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	flags := cache.NewStore()
	fetcher := archive.NewFetcher(&http.Client{Timeout: 5 * time.Second})
	inspector := archive.NewInspector(store, flags, fetcher, logger, 5*time.Second, time.Minute)
	resolver := derive.NewResolver(inspector, "RUSTMods", "source", logger)
	listSvc := listing.NewService(store, flags, resolver, inspector, logger, time.Minute, false)

	if err := listSvc.Register(); err != nil {
		t.Fatalf("register error: %v", err)
	}
	t.Cleanup(func() { events.Unregister(listing.HandlerName) })

	app, err := server.NewApp(server.AppOptions{
		Logger:     logger,
		Listing:    listSvc,
		ListenPort: 5080,
	})
	if err != nil {
		t.Fatalf("app error: %v", err)
	}
	routes.RegisterDiagnosticsRoutes(app, inspector)

	return &env{app: app, store: store, inspector: inspector}
}

func (e *env) listMods(t *testing.T) []map[string]string {
	t.Helper()

	resp, err := e.app.Test(httptest.NewRequest("GET", "/v1/mods", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var records []map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return records
}

func TestModListFlow(t *testing.T) {
	stub := newArchiveStub(t, buildZip(t, "readme.txt", "plugins/my-plugin.cs"))
	e := newEnv(t)
	ctx := context.Background()

	inspected, err := e.store.CreateItem(ctx, catalog.Draft{
		Title:       "My Plugin 1.2.0",
		Published:   true,
		Permalink:   "https://mods.example/my-plugin",
		DownloadURL: stub.URL(),
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	if _, err := e.store.CreateItem(ctx, catalog.Draft{Title: "Simple Base", Published: true}); err != nil {
		t.Fatalf("create second item: %v", err)
	}
	if _, err := e.store.CreateItem(ctx, catalog.Draft{Title: "Hidden Draft"}); err != nil {
		t.Fatalf("create hidden item: %v", err)
	}

	// 首次请求：巡检压缩包、重建列表。
	records := e.listMods(t)
	if len(records) != 2 {
		t.Fatalf("expected 2 published records, got %d", len(records))
	}
	if records[0]["filename"] != "MyPlugin.cs" {
		t.Fatalf("inspected filename mismatch: %+v", records[0])
	}
	if records[0]["last"] != "1.2.0" || records[0]["name"] != "My Plugin" {
		t.Fatalf("unexpected first record: %+v", records[0])
	}
	if records[1]["filename"] != "SimpleBase.cs" {
		t.Fatalf("generated filename mismatch: %+v", records[1])
	}

	hitsAfterFirst := stub.Hits()
	if hitsAfterFirst == 0 {
		t.Fatal("archive stub never fetched")
	}

	// 缓存命中：不再访问压缩包。
	if got := e.listMods(t); len(got) != 2 {
		t.Fatalf("cached read returned %d records", len(got))
	}
	if stub.Hits() != hitsAfterFirst {
		t.Fatalf("cached read re-fetched the archive: %d -> %d", hitsAfterFirst, stub.Hits())
	}

	// 保存覆盖项会让列表缓存失效，下一次读取反映新值。
	err = e.store.SaveOverrides(ctx, inspected.ID, derive.Overrides{Filename: "renamed-plugin.cs"})
	if err != nil {
		t.Fatalf("save overrides: %v", err)
	}
	records = e.listMods(t)
	if records[0]["filename"] != "RenamedPlugin.cs" {
		t.Fatalf("override not reflected: %+v", records[0])
	}

	// 清掉覆盖项后回到巡检结果，且巡检缓存仍然有效。
	hitsBefore := stub.Hits()
	if err := e.store.SaveOverrides(ctx, inspected.ID, derive.Overrides{}); err != nil {
		t.Fatalf("clear overrides: %v", err)
	}
	records = e.listMods(t)
	if records[0]["filename"] != "MyPlugin.cs" {
		t.Fatalf("expected inspected name back: %+v", records[0])
	}
	if stub.Hits() != hitsBefore {
		t.Fatalf("inspection cache lost after override change: %d -> %d", hitsBefore, stub.Hits())
	}
}

func TestModListReinspectsAfterDownloadChange(t *testing.T) {
	stub := newArchiveStub(t, buildZip(t, "OldName.cs"))
	e := newEnv(t)
	ctx := context.Background()

	item, err := e.store.CreateItem(ctx, catalog.Draft{
		Title:       "Some Mod",
		Published:   true,
		DownloadURL: stub.URL(),
	})
	if err != nil {
		t.Fatalf("create item: %v", err)
	}

	records := e.listMods(t)
	if records[0]["filename"] != "OldName.cs" {
		t.Fatalf("unexpected initial filename: %+v", records[0])
	}

	// 换包：同一端点换了内容，SetDownload 必须强制重新巡检。
	stub.Replace(buildZip(t, "NewName.cs"))
	if err := e.store.SetDownload(ctx, item.ID, stub.URL()); err != nil {
		t.Fatalf("set download: %v", err)
	}

	records = e.listMods(t)
	if records[0]["filename"] != "NewName.cs" {
		t.Fatalf("expected re-inspected filename: %+v", records[0])
	}
}

func TestDiagnosticsEndpoints(t *testing.T) {
	e := newEnv(t)

	resp, err := e.app.Test(httptest.NewRequest("GET", "/-/health", nil))
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decode health payload: %v", err)
	}
	if payload["status"] != "ok" {
		t.Fatalf("unexpected health payload: %+v", payload)
	}
}
