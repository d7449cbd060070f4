// Package archive 负责打开条目关联的压缩包并从中恢复内嵌源码文件名。
// 远端压缩包通过 HTTP Range 请求随机访问，不必整包落盘；Range 不可用时
// httpreaderat 的后备存储会把正文缓冲到内存或临时文件，并在 Close 时清理。
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	bufra "github.com/avvmoto/buf-readerat"
	"github.com/snabb/httpreaderat"
)

// ErrUnsupportedScheme 表示来源 URL 的协议没有对应的读取能力。
var ErrUnsupportedScheme = errors.New("unsupported archive source scheme")

// 远端读取的缓冲窗口。压缩包中央目录在文件尾部，1MiB 足够覆盖
// 目录与首个源码条目的局部头。
const readBufferSize = 1024 * 1024

// Source 是一次已打开的压缩包来源，必须在每条退出路径上 Close。
type Source struct {
	ReaderAt io.ReaderAt
	Size     int64
	closers  []io.Closer
}

// Close 释放来源持有的全部资源（HTTP 后备存储或本地文件句柄）。
func (s *Source) Close() error {
	var firstErr error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Fetcher 把来源 URL 解析为可随机读取的字节流。
type Fetcher interface {
	Open(ctx context.Context, sourceURL string) (*Source, error)
}

// NewFetcher 构造默认 Fetcher：http/https 走 Range 请求，
// file 与裸路径直接打开本地文件。
func NewFetcher(client *http.Client) Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &fetcher{client: client}
}

type fetcher struct {
	client *http.Client
}

func (f *fetcher) Open(ctx context.Context, sourceURL string) (*Source, error) {
	parsed, err := url.Parse(sourceURL)
	if err != nil {
		return nil, fmt.Errorf("parse source url: %w", err)
	}

	switch parsed.Scheme {
	case "http", "https":
		return f.openRemote(ctx, sourceURL)
	case "file":
		return openLocal(parsed.Path)
	case "":
		return openLocal(sourceURL)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, parsed.Scheme)
	}
}

func (f *fetcher) openRemote(ctx context.Context, sourceURL string) (*Source, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	// 后备存储兜住不支持 Range 的服务端：正文先进内存，过大再落临时
	// 文件，Close 负责删掉临时文件。
	backing := httpreaderat.NewDefaultStore()

	remote, err := httpreaderat.New(f.client, req, backing)
	if err != nil {
		backing.Close()
		return nil, fmt.Errorf("open remote archive: %w", err)
	}

	return &Source{
		ReaderAt: bufra.NewBufReaderAt(remote, readBufferSize),
		Size:     remote.Size(),
		closers:  []io.Closer{backing},
	}, nil
}

func openLocal(path string) (*Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("empty archive path")
	}

	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open local archive: %w", err)
	}
	info, err := fh.Stat()
	if err != nil {
		fh.Close()
		return nil, fmt.Errorf("stat local archive: %w", err)
	}

	return &Source{
		ReaderAt: fh,
		Size:     info.Size(),
		closers:  []io.Closer{fh},
	}, nil
}
