package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// ResolveFields 提供单个条目解析过程的公共字段，供解析与巡检日志复用。
func ResolveFields(itemID int64, title string) logrus.Fields {
	return logrus.Fields{
		"item_id": itemID,
		"title":   title,
	}
}

// ListFields 描述一次列表构建的结果，供缓存层输出命中/重建日志。
func ListFields(action string, items int, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"action":    action,
		"items":     items,
		"cache_hit": cacheHit,
	}
}
