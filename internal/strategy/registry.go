package strategy

import (
	"fmt"
	"sort"
	"strings"
)

// Registry 是策略的只读注册表（按 name 索引，大小写不敏感）。
// 策略数量极小，用 map 保持简单即可。
type Registry struct {
	byName map[string]Strategy
}

func NewRegistry(strategies ...Strategy) (Registry, error) {
	byName := make(map[string]Strategy, len(strategies))
	for _, s := range strategies {
		name := strings.ToLower(strings.TrimSpace(s.Name))
		if name == "" {
			return Registry{}, fmt.Errorf("strategy.Name 不能为空")
		}
		if s.Parse == nil {
			return Registry{}, fmt.Errorf("策略 %q 缺少 Parse", name)
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的策略：%q", name)
		}
		byName[name] = s
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Strategy, bool) {
	if r.byName == nil {
		return Strategy{}, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	s, ok := r.byName[name]
	return s, ok
}

// Names 返回已注册的策略名（已排序，便于帮助信息与错误提示）。
func (r Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
