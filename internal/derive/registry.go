package derive

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

const defaultConventionKey = "source"

var globalRegistry = newRegistry()

// Convention 描述一种兜底文件名生成约定，供配置校验与诊断端使用。
type Convention struct {
	Key         string
	Description string
	Extension   string
	Generate    func(title, version string) string
}

type registry struct {
	mu          sync.RWMutex
	conventions map[string]Convention
}

func newRegistry() *registry {
	return &registry{conventions: make(map[string]Convention)}
}

// RegisterConvention 将命名约定加入全局注册表，重复键会返回错误。
func RegisterConvention(conv Convention) error {
	return globalRegistry.register(conv)
}

// MustRegisterConvention 在注册失败时 panic，适合 init() 中调用。
func MustRegisterConvention(conv Convention) {
	if err := RegisterConvention(conv); err != nil {
		panic(err)
	}
}

// ResolveConvention 返回指定键的命名约定。
func ResolveConvention(key string) (Convention, bool) {
	return globalRegistry.resolve(key)
}

// Conventions 返回按键排序的命名约定列表。
func Conventions() []Convention {
	return globalRegistry.list()
}

// ConventionKeys 返回所有已注册约定的键值，供配置报错与诊断使用。
func ConventionKeys() []string {
	items := Conventions()
	result := make([]string, len(items))
	for i, conv := range items {
		result[i] = conv.Key
	}
	return result
}

// DefaultConventionKey 返回内置默认约定的键值。
func DefaultConventionKey() string {
	return defaultConventionKey
}

func (r *registry) normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func (r *registry) register(conv Convention) error {
	key := r.normalizeKey(conv.Key)
	if key == "" {
		return fmt.Errorf("convention key is required")
	}
	if conv.Generate == nil {
		return fmt.Errorf("convention %s has no generator", key)
	}
	conv.Key = key

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.conventions[key]; exists {
		return fmt.Errorf("convention %s already registered", key)
	}
	r.conventions[key] = conv
	return nil
}

func (r *registry) resolve(key string) (Convention, bool) {
	if key == "" {
		return Convention{}, false
	}
	normalized := r.normalizeKey(key)

	r.mu.RLock()
	defer r.mu.RUnlock()

	conv, ok := r.conventions[normalized]
	return conv, ok
}

func (r *registry) list() []Convention {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.conventions) == 0 {
		return nil
	}

	keys := make([]string, 0, len(r.conventions))
	for key := range r.conventions {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	result := make([]Convention, 0, len(keys))
	for _, key := range keys {
		result = append(result, r.conventions[key])
	}
	return result
}
