package solana

import "fmt"

// CustomError is the custom error code returned from an on-chain program.
type CustomError int

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %d", int(c))
}
