package config

import (
	"errors"
	"strings"

	"github.com/rustmods/mod-hub/internal/derive"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := &c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.DatabasePath == "" {
		return newFieldError("Global.DatabasePath", "不能为空")
	}
	if g.ListCacheTTL.DurationValue() <= 0 {
		return newFieldError("Global.ListCacheTTL", "必须大于 0")
	}
	if g.RescanFlagTTL.DurationValue() <= 0 {
		return newFieldError("Global.RescanFlagTTL", "必须大于 0")
	}
	if g.FetchTimeout.DurationValue() <= 0 {
		return newFieldError("Global.FetchTimeout", "必须大于 0")
	}

	naming := strings.ToLower(strings.TrimSpace(g.FallbackNaming))
	if naming == "" {
		naming = derive.DefaultConventionKey()
	}
	if _, ok := derive.ResolveConvention(naming); !ok {
		return newFieldError("Global.FallbackNaming", "仅支持 "+strings.Join(derive.ConventionKeys(), "|"))
	}
	g.FallbackNaming = naming

	return nil
}
