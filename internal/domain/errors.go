package domain

import "errors"

// Terminal failure kinds. Every one of them aborts the enclosing operation
// with no state written.
var (
	ErrStaleQuote           = errors.New("stale quote")
	ErrInvalidQuote         = errors.New("invalid quote")
	ErrArithmeticOverflow   = errors.New("arithmetic overflow")
	ErrDistributionMismatch = errors.New("distribution error: total does not match the ticket price")
	ErrTransferFailed       = errors.New("transfer failed")
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidSplitTable = errors.New("invalid split table")
	ErrRoundNotFound     = errors.New("round not found")
	ErrRoundExists       = errors.New("round already exists")
	ErrUnknownAsset      = errors.New("unknown asset")
	ErrInvalidRecipient  = errors.New("invalid recipient")
)
