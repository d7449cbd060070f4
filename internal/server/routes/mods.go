package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rustmods/mod-hub/internal/derive"
	"github.com/rustmods/mod-hub/internal/server"
)

// RegisterDiagnosticsRoutes 暴露 /-/ 诊断端点，供运维查询健康状态
// 与已注册的命名约定。
func RegisterDiagnosticsRoutes(app *fiber.App, diag server.Diagnostics) {
	if app == nil {
		return
	}

	app.Get("/-/health", func(c fiber.Ctx) error {
		payload := fiber.Map{"status": "ok"}
		if diag != nil && diag.Degraded() {
			// 压缩包读取能力缺失：列表仍可用，但文件名全部来自生成式命名。
			payload["archive_inspection"] = "degraded"
		}
		return c.JSON(payload)
	})

	app.Get("/-/naming", func(c fiber.Ctx) error {
		conventions := derive.Conventions()
		encoded := make([]conventionPayload, 0, len(conventions))
		for _, conv := range conventions {
			encoded = append(encoded, conventionPayload{
				Key:         conv.Key,
				Description: conv.Description,
				Extension:   conv.Extension,
				Default:     conv.Key == derive.DefaultConventionKey(),
			})
		}
		return c.JSON(fiber.Map{"conventions": encoded})
	})
}

type conventionPayload struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Extension   string `json:"extension"`
	Default     bool   `json:"default"`
}
