package dissolvegen

import (
	"go/scanner"
	"go/token"
)

// lexeme 注解片段中的一个词法单元，off/end 为相对片段起点的字节偏移
type lexeme struct {
	tok token.Token
	lit string
	off int
	end int
}

func (lx lexeme) String() string {
	if lx.tok == token.EOF {
		return "end of line"
	}
	if lx.lit != "" {
		return lx.lit
	}
	return lx.tok.String()
}

// lexer 基于 go/scanner 的片段词法分析器
// lineMode 下换行处自动插入的分号视为片段结束，否则忽略
type lexer struct {
	sc       scanner.Scanner
	file     *token.File
	lineMode bool
	errOff   int
	errMsg   string
	peeked   *lexeme
}

func newLexer(src string, lineMode bool) *lexer {
	l := &lexer{lineMode: lineMode, errOff: -1}
	fset := token.NewFileSet()
	l.file = fset.AddFile("", fset.Base(), len(src))
	l.sc.Init(l.file, []byte(src), func(pos token.Position, msg string) {
		if l.errOff < 0 {
			l.errOff = pos.Offset
			l.errMsg = msg
		}
	}, 0)
	return l
}

// next 返回下一个词法单元，扫描出错后始终返回 ILLEGAL
func (l *lexer) next() lexeme {
	if l.peeked != nil {
		lx := *l.peeked
		l.peeked = nil
		return lx
	}
	for {
		pos, tok, lit := l.sc.Scan()
		if l.errOff >= 0 {
			return lexeme{tok: token.ILLEGAL, lit: l.errMsg, off: l.errOff, end: l.errOff + 1}
		}
		off := l.file.Offset(pos)
		if tok == token.SEMICOLON && lit == "\n" {
			if !l.lineMode {
				continue
			}
			tok, lit = token.EOF, ""
		}
		text := lit
		if text == "" && tok != token.EOF {
			text = tok.String()
		}
		return lexeme{tok: tok, lit: lit, off: off, end: off + len(text)}
	}
}

func (l *lexer) peek() lexeme {
	if l.peeked == nil {
		lx := l.next()
		l.peeked = &lx
	}
	return *l.peeked
}
