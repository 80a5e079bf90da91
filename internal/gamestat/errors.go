package gamestat

import "fmt"

var (
	ErrUnknownRecord   = fmt.Errorf("game not in list")
	ErrDuplicateRecord = fmt.Errorf("game already in list")
)
