package a

import "time"

// User 合法的命名结构体
// @Dissolve
// @dissolve(visibility = "pub(crate)")
type User struct {
	ID      int64
	Name    string
	Created time.Time
	// @dissolved(skip)
	password string
	// @dissolved(rename = "Mail")
	email string
}

// Pair 合法的位置结构体
// @Dissolve
type Pair struct {
	string
	int // @dissolved(skip)
	*time.Location
}

// @Dissolve
type Handler func() // want "can only be applied to struct types"

// @Dissolve
type Service interface { // want "can only be applied to struct types"
	Do()
}

// @Dissolve
type Empty struct{} // want "cannot be applied to empty struct Empty"

// @Dissolve
type Secrets struct { // want "cannot create dissolved struct with no fields"
	// @dissolved(skip)
	token string
}

// @Dissolve
// @dissolve(visibility = "public") // want "invalid visibility"
type Account struct {
	ID int64
}

// @Dissolve
type Order struct {
	ID int64
	// @dissolved(skip, rename = "Note") // want "cannot use rename on skipped field"
	note string
}

// @Dissolve
type Point struct {
	名字 string // want "field 名字 cannot be exported in PointDissolved"
}

// @Dissolve
type Tuple struct {
	string // @dissolved(rename = "s") // want "rename is unsupported for positional struct fields"
	int
}

// @Dissolve
// @dissolve(shape = "tuple") // want "unknown dissolve attribute option 'shape'"
type Shape struct {
	X int
}

// Unmarked 缺少标记，配置不生效
// @dissolve(visibility = "pub") // want "dissolve annotation has no effect without"
type Unmarked struct {
	ID   int64
	Name string // @dissolved(rename = "Title") // want "dissolved annotation has no effect without"
}

type (
	// @Dissolve
	Grouped struct {
		A int
	}

	// @Dissolve
	GroupedAlias = Grouped // want "is a type alias"
)

// Plain 没有任何注解
type Plain struct {
	X int
}
