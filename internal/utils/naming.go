package utils

import (
	"go/token"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/samber/lo"
)

// initialisms 与 GORM 命名策略一致的缩略词表，转换前先把 HTTP 变成 Http
var initialisms = strings.NewReplacer(lo.FlatMap([]string{
	"API", "ASCII", "CPU", "CSS", "DNS", "EOF", "GUID", "HTML", "HTTP", "HTTPS",
	"ID", "IP", "JSON", "LHS", "QPS", "RAM", "RHS", "RPC", "SLA", "SMTP",
	"SSH", "TLS", "TTL", "UID", "UI", "UUID", "URI", "URL", "UTF8", "VM",
	"XML", "XSRF", "XSS",
}, func(word string, _ int) []string {
	return []string{word, word[:1] + strings.ToLower(word[1:])}
})...)

func isUpperASCII(b byte) bool { return b >= 'A' && b <= 'Z' }

// ToSnakeCase 驼峰转蛇形，结果与 GORM 生成的列名一致：
// UserID → user_id，HTTPServer → http_server，SHA256Hash → sha256_hash
func ToSnakeCase(name string) string {
	if name == "" {
		return ""
	}
	value := initialisms.Replace(name)
	last := len(value) - 1

	var (
		buf    strings.Builder
		prevUp bool
		curUp  = isUpperASCII(value[0])
	)
	buf.Grow(len(value) + 4)
	for i, r := range value[:last] {
		nextUp := isUpperASCII(value[i+1])
		nextDigit := value[i+1] >= '0' && value[i+1] <= '9'
		switch {
		case !curUp:
			buf.WriteRune(r)
		case prevUp && (nextUp || nextDigit):
			buf.WriteRune(unicode.ToLower(r))
		default:
			if i > 0 && value[i-1] != '_' && value[i+1] != '_' {
				buf.WriteByte('_')
			}
			buf.WriteRune(unicode.ToLower(r))
		}
		prevUp, curUp = curUp, nextUp
	}

	if curUp {
		if !prevUp && last > 0 {
			buf.WriteByte('_')
		}
		buf.WriteByte(value[last] + 'a' - 'A')
	} else {
		buf.WriteByte(value[last])
	}
	return buf.String()
}

// ExportName 将标识符首字母转为大写，使其成为导出标识符
// 首字符为下划线或没有大写形式（如汉字）时返回 false
func ExportName(name string) (string, bool) {
	r, size := utf8.DecodeRuneInString(name)
	if r == utf8.RuneError || !unicode.IsLetter(r) {
		return "", false
	}
	upper := unicode.ToUpper(r)
	if !unicode.IsUpper(upper) {
		return "", false
	}
	return string(upper) + name[size:], true
}

// ReceiverName 根据类型名生成接收者名称，取首字母小写
// taken 中的名称（类型参数、包名等）会被避开
func ReceiverName(typeName string, taken map[string]bool) string {
	r, _ := utf8.DecodeRuneInString(typeName)
	candidate := string(unicode.ToLower(r))
	if isFreeIdent(candidate, taken) {
		return candidate
	}
	if isFreeIdent("recv", taken) {
		return "recv"
	}
	for i := 0; ; i++ {
		candidate = "recv" + strconv.Itoa(i)
		if isFreeIdent(candidate, taken) {
			return candidate
		}
	}
}

func isFreeIdent(name string, taken map[string]bool) bool {
	return token.IsIdentifier(name) && name != "_" && !taken[name]
}
