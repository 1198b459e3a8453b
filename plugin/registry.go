package plugin

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/donutnomad/dissolvegen/internal/utils"
)

// Registry 生成器注册表，维护注解到生成器的一对一绑定
type Registry struct {
	mu          sync.RWMutex
	byName      map[string]Generator
	byAnnotation map[string]Generator
}

func NewRegistry() *Registry {
	return &Registry{
		byName:      make(map[string]Generator),
		byAnnotation: make(map[string]Generator),
	}
}

// Register 注册生成器，名称重复或注解已被绑定时返回错误，注册表保持不变
func (r *Registry) Register(gen Generator) error {
	name := gen.Name()
	if name == "" {
		return fmt.Errorf("生成器名称不能为空")
	}
	anns := gen.Annotations()
	if len(anns) == 0 {
		return fmt.Errorf("生成器 %q 没有声明任何注解", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byName[name]; ok {
		return fmt.Errorf("生成器 %q 已注册", name)
	}
	for _, ann := range anns {
		if ann == "" || strings.HasPrefix(ann, "@") {
			return fmt.Errorf("生成器 %q 的注解名 %q 无效，应为不带 @ 的标识符", name, ann)
		}
		if owner, ok := r.byAnnotation[ann]; ok {
			return fmt.Errorf("注解 @%s 已被生成器 %q 绑定，无法被 %q 再次绑定", ann, owner.Name(), name)
		}
	}

	r.byName[name] = gen
	for _, ann := range anns {
		r.byAnnotation[ann] = gen
	}
	return nil
}

func (r *Registry) MustRegister(gen Generator) {
	if err := r.Register(gen); err != nil {
		panic(err)
	}
}

// Unregister 移除生成器及其注解绑定
func (r *Registry) Unregister(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	gen, ok := r.byName[name]
	if !ok {
		return fmt.Errorf("生成器 %q 未注册", name)
	}
	for _, ann := range gen.Annotations() {
		delete(r.byAnnotation, ann)
	}
	delete(r.byName, name)
	return nil
}

func (r *Registry) GetByAnnotation(annotation string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.byAnnotation[annotation]
	return gen, ok
}

func (r *Registry) GetByName(name string) (Generator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	gen, ok := r.byName[name]
	return gen, ok
}

// Generators 按名称排序
func (r *Registry) Generators() []Generator {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Generator, 0, len(r.byName))
	for _, name := range utils.SortedKeys(r.byName) {
		out = append(out, r.byName[name])
	}
	return out
}

// Annotations 按名称排序
func (r *Registry) Annotations() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return utils.SortedKeys(r.byAnnotation)
}

func (r *Registry) IsRegistered(annotation string) bool {
	_, ok := r.GetByAnnotation(annotation)
	return ok
}

// DispatchTargets 按生成器名分组扫描结果
// 目标的种类不在生成器 SupportedTargets 中时不分发；同一生成器的多个注解只分发一次
func (r *Registry) DispatchTargets(result *ScanResult) map[string][]*AnnotatedTarget {
	r.mu.RLock()
	defer r.mu.RUnlock()

	dispatch := make(map[string][]*AnnotatedTarget)
	for _, target := range result.All() {
		var seen []string
		for _, ann := range target.Annotations {
			gen, ok := r.byAnnotation[ann.Name]
			if !ok || slices.Contains(seen, gen.Name()) || !slices.Contains(gen.SupportedTargets(), target.Target.Kind) {
				continue
			}
			seen = append(seen, gen.Name())
			dispatch[gen.Name()] = append(dispatch[gen.Name()], target)
		}
	}
	return dispatch
}

var globalRegistry = NewRegistry()

// Global 全局注册表，命令行使用
func Global() *Registry {
	return globalRegistry
}

func Register(gen Generator) error {
	return globalRegistry.Register(gen)
}

func MustRegister(gen Generator) {
	globalRegistry.MustRegister(gen)
}
