package typename

import "fmt"

// Pos is a position in a type name. The zero value is an invalid position.
type Pos struct {
	col uint32 // 1-based byte offset
}

// NewPos returns the position of the 1-based byte column col.
func NewPos(col uint32) Pos { return Pos{col: col} }

// String returns "col N".
func (p Pos) String() string { return fmt.Sprintf("col %d", p.col) }

// IsValid reports whether the position is valid.
func (p Pos) IsValid() bool { return p.col > 0 }

// Col returns the 1-based byte column.
func (p Pos) Col() uint32 { return p.col }
