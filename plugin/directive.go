package plugin

import (
	"fmt"
	"go/ast"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// PackageConfig 包级输出配置，来自源文件中的 go:dissolve: 指令
//
//	//go:dissolve: -output `$FILE_dissolve`
//	//go:dissolve: plugin:dissolvegen -output `dissolved`
//	//go:dissolve: -output `all_gen` plugin:dissolvegen -output `$TYPE_dissolved`
//
// plugin:<name> 之后的 -output 只对该生成器生效，之前的对所有生成器生效。
type PackageConfig struct {
	PackageDir    string
	DefaultOutput string
	PluginOutputs map[string]string // 生成器名（小写）→ 输出路径
}

// GetPluginOutput 生成器自己的配置优先，其次是包默认配置
func (c *PackageConfig) GetPluginOutput(pluginName string) string {
	if c == nil {
		return ""
	}
	if output, ok := c.PluginOutputs[strings.ToLower(pluginName)]; ok {
		return output
	}
	return c.DefaultOutput
}

// directivePrefix 指令前缀，"//go:dissolve:" 与 "// go:dissolve:" 均可
const directivePrefix = "go:dissolve:"

var directiveRegex = regexp.MustCompile(`^go:dissolve:\s*(.*)$`)

// parsePackageConfig 读取文件中的 go:dissolve: 指令
// 同一文件出现多条指令时无法判断意图，全部忽略并给出警告
func parsePackageConfig(file *ast.File, filePath string) *PackageConfig {
	var lines []string
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			text := strings.TrimSuffix(strings.TrimPrefix(strings.TrimPrefix(c.Text, "//"), "/*"), "*/")
			if m := directiveRegex.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
				lines = append(lines, m[1])
			}
		}
	}

	switch len(lines) {
	case 0:
		return nil
	case 1:
		cfg, warnings := parseDirectiveLine(lines[0], filePath)
		for _, w := range warnings {
			fmt.Printf("警告: %s: %s\n", filePath, w)
		}
		return cfg
	default:
		fmt.Printf("警告: 文件 %s 定义了多个 go:dissolve: 指令，将被忽略\n", filePath)
		return nil
	}
}

// parseDirectiveLine 解析指令参数，返回配置与无法识别的部分
func parseDirectiveLine(line string, filePath string) (*PackageConfig, []string) {
	cfg := &PackageConfig{
		PackageDir:    filepath.Dir(filePath),
		PluginOutputs: make(map[string]string),
	}

	var (
		warnings []string
		plugin   string
	)
	args := splitDirectiveArgs(line)
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case strings.HasPrefix(arg, "plugin:"):
			plugin = strings.ToLower(strings.TrimPrefix(arg, "plugin:"))
		case arg == "-output":
			if i+1 >= len(args) {
				warnings = append(warnings, "-output 缺少路径")
				continue
			}
			i++
			if plugin == "" {
				cfg.DefaultOutput = trimQuotes(args[i])
			} else {
				cfg.PluginOutputs[plugin] = trimQuotes(args[i])
			}
		default:
			warnings = append(warnings, fmt.Sprintf("无法识别的 go:dissolve 参数 %q", arg))
		}
	}

	if cfg.DefaultOutput == "" && len(cfg.PluginOutputs) == 0 {
		return nil, warnings
	}
	return cfg, warnings
}

// splitDirectiveArgs 按空白分割，引号内的空白保留，引号本身也保留
func splitDirectiveArgs(line string) []string {
	var (
		args  []string
		cur   strings.Builder
		quote byte
	)
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case quote != 0:
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '`' || c == '"' || c == '\'':
			quote = c
			cur.WriteByte(c)
		case c == ' ' || c == '\t':
			if cur.Len() > 0 {
				args = append(args, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		args = append(args, cur.String())
	}
	return args
}

// trimQuotes 去掉成对的引号，双引号内的转义按 Go 语法处理
func trimQuotes(s string) string {
	if len(s) < 2 || s[0] != s[len(s)-1] {
		return s
	}
	switch s[0] {
	case '"':
		if v, err := strconv.Unquote(s); err == nil {
			return v
		}
		return s[1 : len(s)-1]
	case '`', '\'':
		return s[1 : len(s)-1]
	}
	return s
}

// mergePackageConfig 合并同一包中多个文件的配置，后合并的覆盖先前的
func mergePackageConfig(configs map[string]*PackageConfig, cfg *PackageConfig) {
	existing, ok := configs[cfg.PackageDir]
	if !ok {
		configs[cfg.PackageDir] = cfg
		return
	}
	if cfg.DefaultOutput != "" {
		if existing.DefaultOutput != "" && existing.DefaultOutput != cfg.DefaultOutput {
			fmt.Printf("警告: 包 %s 中存在多个不同的 go:dissolve 默认输出配置，使用后发现的配置\n", cfg.PackageDir)
		}
		existing.DefaultOutput = cfg.DefaultOutput
	}
	for name, output := range cfg.PluginOutputs {
		if prev, ok := existing.PluginOutputs[name]; ok && prev != output {
			fmt.Printf("警告: 包 %s 中插件 %s 存在多个不同的输出配置，使用后发现的配置\n", cfg.PackageDir, name)
		}
		existing.PluginOutputs[name] = output
	}
}
