package structparse

import (
	"os"
	"path/filepath"
)

// moduleRoot 从 dir 向上查找包含 go.mod 的目录，结果按目录缓存，调用方持有 c.mu
func (c *ParseContext) moduleRoot(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return ""
	}

	var visited []string
	root := ""
	for d := abs; ; d = filepath.Dir(d) {
		if cached, ok := c.roots[d]; ok {
			root = cached
			break
		}
		visited = append(visited, d)
		if info, err := os.Stat(filepath.Join(d, "go.mod")); err == nil && !info.IsDir() {
			root = d
			break
		}
		if filepath.Dir(d) == d {
			break
		}
	}

	for _, d := range visited {
		c.roots[d] = root
	}
	return root
}
