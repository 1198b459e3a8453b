// 目录名为 gg，package 声明为 g2
package g2

// Type 用于包名与目录名不一致的场景
type Type struct {
	ID int
}
