package pkgresolver

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"golang.org/x/mod/semver"
)

// PackageNameResolver 将导入路径解析为 package 子句中的真实包名
//
// 生成代码引用外部类型时需要知道包名，目录名与包名不一致（如 yaml.v3、gg → g2）时
// 只能读取磁盘上的源文件。查找顺序：标准库、当前模块、vendor、模块缓存、GOPATH。
type PackageNameResolver struct {
	cache       *PackageNameCache
	stdLib      *StdLibScanner
	reader      *PackageFileReader
	projectRoot string // 包含 go.mod 的目录

	modOnce    sync.Once
	modulePath string
}

func NewPackageNameResolver(projectRoot string) *PackageNameResolver {
	return &PackageNameResolver{
		cache:       NewPackageNameCache(),
		stdLib:      NewStdLibScanner(),
		reader:      &PackageFileReader{},
		projectRoot: projectRoot,
	}
}

// GetPackageName 获取导入路径对应的包名，找不到源码时按路径推断，不返回错误
//
//	"net/http"                → "http"
//	"gopkg.in/yaml.v3"        → "yaml"
//	"github.com/foo/bar/v2"   → "bar"
//	".../testdata/gg"         → "g2" (package 声明为 g2)
func (r *PackageNameResolver) GetPackageName(importPath string) (string, error) {
	if name, ok := r.cache.Get(importPath); ok {
		return name, nil
	}

	name := GuessPackageName(importPath)
	if dir, err := r.resolveDiskPath(importPath); err == nil {
		if real, err := r.reader.ReadPackageName(dir); err == nil {
			name = real
		}
	}

	r.cache.Set(importPath, name)
	return name, nil
}

// resolveDiskPath 将导入路径解析为磁盘目录
func (r *PackageNameResolver) resolveDiskPath(importPath string) (string, error) {
	if isStd, err := r.stdLib.IsStdLib(importPath); err == nil && isStd {
		return r.stdLib.GetStdLibPath(importPath)
	}

	if r.projectRoot != "" {
		if mod := r.module(); mod != "" {
			if rel, ok := strings.CutPrefix(importPath, mod); ok && (rel == "" || rel[0] == '/') {
				return filepath.Join(r.projectRoot, filepath.FromSlash(strings.TrimPrefix(rel, "/"))), nil
			}
		}
		vendored := filepath.Join(r.projectRoot, "vendor", filepath.FromSlash(importPath))
		if isDir(vendored) {
			return vendored, nil
		}
	}

	return findThirdPartyPackage(importPath)
}

// module 当前模块路径，go.mod 缺失或无法解析时为空
func (r *PackageNameResolver) module() string {
	r.modOnce.Do(func() {
		r.modulePath, _ = readModulePath(r.projectRoot)
	})
	return r.modulePath
}

// IsStdLib 判断是否是标准库
func (r *PackageNameResolver) IsStdLib(importPath string) (bool, error) {
	return r.stdLib.IsStdLib(importPath)
}

func readModulePath(projectRoot string) (string, error) {
	content, err := os.ReadFile(filepath.Join(projectRoot, "go.mod"))
	if err != nil {
		return "", err
	}
	mod := modfile.ModulePath(content)
	if mod == "" {
		return "", fmt.Errorf("未在 go.mod 中找到模块名称")
	}
	return mod, nil
}

// GuessPackageName 只根据导入路径推断包名
// 去掉主版本后缀 /vN 与 gopkg.in 风格的 .vN，并把 '-' 和 '.' 换成 '_'
func GuessPackageName(importPath string) string {
	if importPath == "" {
		return ""
	}
	elem := path.Base(importPath)
	if prefix, _, ok := module.SplitPathVersion(importPath); ok && prefix != importPath && !strings.HasPrefix(importPath, "gopkg.in/") {
		elem = path.Base(prefix)
	}
	if i := strings.Index(elem, ".v"); i > 0 && isDigits(elem[i+2:]) {
		elem = elem[:i]
	}
	elem = strings.TrimPrefix(elem, "go-")
	return strings.NewReplacer("-", "_", ".", "_").Replace(elem)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func isDir(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.IsDir()
}

// modCacheDir GOMODCACHE，未设置时为 $GOPATH/pkg/mod
func modCacheDir() (cache, goPath string, err error) {
	goPath = os.Getenv("GOPATH")
	if cache = os.Getenv("GOMODCACHE"); cache != "" {
		return cache, goPath, nil
	}
	if goPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", "", fmt.Errorf("无法获取用户主目录: %w", err)
		}
		goPath = filepath.Join(home, "go")
	}
	// GOPATH 可能是列表，模块缓存位于第一个
	first := filepath.SplitList(goPath)[0]
	return filepath.Join(first, "pkg", "mod"), goPath, nil
}

// findThirdPartyPackage 在模块缓存中查找包目录，从最长的模块路径开始尝试
func findThirdPartyPackage(importPath string) (string, error) {
	cache, goPath, err := modCacheDir()
	if err != nil {
		return "", err
	}

	parts := strings.Split(importPath, "/")
	for i := len(parts); i >= 1; i-- {
		modPath := strings.Join(parts[:i], "/")
		escaped, err := module.EscapePath(modPath)
		if err != nil {
			continue
		}
		matches, _ := filepath.Glob(filepath.Join(cache, filepath.FromSlash(escaped)+"@*"))
		root := latestVersionDir(matches)
		if root == "" {
			continue
		}
		dir := filepath.Join(root, filepath.FromSlash(strings.Join(parts[i:], "/")))
		if isDir(dir) {
			return dir, nil
		}
	}

	for _, p := range filepath.SplitList(goPath) {
		dir := filepath.Join(p, "src", filepath.FromSlash(importPath))
		if isDir(dir) {
			return dir, nil
		}
	}

	return "", fmt.Errorf("未找到第三方包 %s", importPath)
}

// latestVersionDir 按语义化版本选出最高版本的 "module@version" 目录
func latestVersionDir(dirs []string) string {
	best, bestVer := "", ""
	for _, d := range dirs {
		_, ver, ok := strings.Cut(filepath.Base(d), "@")
		if !ok || !semver.IsValid(ver) {
			continue
		}
		if best == "" || semver.Compare(ver, bestVer) > 0 {
			best, bestVer = d, ver
		}
	}
	return best
}
