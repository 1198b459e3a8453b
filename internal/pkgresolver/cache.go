package pkgresolver

import "sync"

// PackageNameCache 导入路径 → 包名，并发安全
type PackageNameCache struct {
	mu    sync.RWMutex
	names map[string]string
}

func NewPackageNameCache() *PackageNameCache {
	return &PackageNameCache{names: make(map[string]string)}
}

func (c *PackageNameCache) Get(importPath string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	name, ok := c.names[importPath]
	return name, ok
}

// Set 推断出的名字也会缓存，避免对找不到的包反复查找模块缓存
func (c *PackageNameCache) Set(importPath, pkgName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.names[importPath] = pkgName
}

func (c *PackageNameCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.names)
}
