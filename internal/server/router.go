package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rustmods/mod-hub/internal/derive"
)

// ListProvider describes the component serving the resolved mod list.
// It allows injecting fake providers during tests.
type ListProvider interface {
	GetOrBuild(ctx context.Context) []derive.Record
}

// ListProviderFunc adapts a function to the ListProvider interface.
type ListProviderFunc func(ctx context.Context) []derive.Record

// GetOrBuild makes ListProviderFunc satisfy ListProvider.
func (f ListProviderFunc) GetOrBuild(ctx context.Context) []derive.Record {
	return f(ctx)
}

// Diagnostics exposes operator-facing state for the /-/ endpoints.
type Diagnostics interface {
	Degraded() bool
}

// AppOptions controls how the Fiber application should behave.
type AppOptions struct {
	Logger     *logrus.Logger
	Listing    ListProvider
	ListenPort int
}

const contextKeyRequestID = "_modhub_request_id"

// NewApp builds a Fiber application with request-ID middleware and the
// public list endpoint wired in. 端点永远返回 200：空目录得到空数组，
// 解析层的降级对调用方不可见。
func NewApp(opts AppOptions) (*fiber.App, error) {
	if opts.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if opts.Listing == nil {
		return nil, errors.New("list provider is required")
	}
	if opts.ListenPort <= 0 {
		return nil, fmt.Errorf("invalid listen port: %d", opts.ListenPort)
	}

	app := fiber.New(fiber.Config{
		CaseSensitive: true,
	})

	app.Use(recover.New())
	app.Use(requestContextMiddleware())

	app.Get("/v1/mods", func(c fiber.Ctx) error {
		records := opts.Listing.GetOrBuild(c.Context())
		if records == nil {
			records = []derive.Record{}
		}
		opts.Logger.WithFields(logrus.Fields{
			"action":     "list_mods",
			"request_id": RequestID(c),
			"items":      len(records),
		}).Debug("mod list served")
		return c.JSON(records)
	})

	return app, nil
}

// requestContextMiddleware 负责生成请求 ID，便于跨日志行串联一次请求。
func requestContextMiddleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		reqID := uuid.NewString()
		c.Locals(contextKeyRequestID, reqID)
		c.Set("X-Request-ID", reqID)
		return c.Next()
	}
}

// RequestID returns the request identifier stored by the middleware.
func RequestID(c fiber.Ctx) string {
	if value := c.Locals(contextKeyRequestID); value != nil {
		if reqID, ok := value.(string); ok {
			return reqID
		}
	}
	return ""
}
