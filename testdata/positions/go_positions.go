// Position fixture for the Go adapter.

package fixtures

import "fmt"

func simpleFunction() {} // simpleFunction at position (line 7, col 5)

func functionWithParams(param1 int, param2 string) string { // functionWithParams at position (line 9, col 5)
	return fmt.Sprintf("%d %s", param1, param2)
}

type SimpleStruct struct { // SimpleStruct at position (line 13, col 5)
	Field1 int // Field1 at position (line 14, col 1)
	A, B   string // A at position (line 15, col 1), B at position (line 15, col 4)
	fmt.Stringer
}

type InterfaceType interface { // InterfaceType at position (line 19, col 5)
	Method1() int // Method1 at position (line 20, col 1)
	Method2(string) error // Method2 at position (line 21, col 1)
}

func (s SimpleStruct) Method() int { // Method at position (line 24, col 22)
	return s.Field1
}

func (s *SimpleStruct) PointerMethod() { // PointerMethod at position (line 28, col 23)
	s.Field1++
}

type CustomInt int // CustomInt at position (line 32, col 5)

type Alias = string // Alias at position (line 34, col 5)

type Stack[T any] struct { // Stack at position (line 36, col 5)
	items []T // items at position (line 37, col 1)
}

func (s *Stack[T]) Push(v T) { // Push at position (line 40, col 19)
	s.items = append(s.items, v)
}

func GenericFunction[T any](value T) T { // GenericFunction at position (line 44, col 5)
	return value
}

const CONSTANT = 42 // CONSTANT at position (line 48, col 6)

const (
	CONST1 = iota // CONST1 at position (line 51, col 1)
	CONST2        // CONST2 at position (line 52, col 1)
)

var globalVar = "hello" // globalVar at position (line 55, col 4)

var (
	var1, var2 = 1, 2 // var1 at position (line 58, col 1), var2 at position (line 58, col 7)
)

func main() { // main at position (line 61, col 5)
	local := 1
	_ = local
}
