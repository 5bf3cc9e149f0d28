package common

import (
	"sync"

	"github.com/holiman/uint256"
)

var uint256Pool = sync.Pool{
	New: func() interface{} {
		return new(uint256.Int)
	},
}

// GetU256 gets a uint256.Int from the pool
func GetU256() *uint256.Int {
	return uint256Pool.Get().(*uint256.Int)
}

// PutU256 returns a uint256.Int to the pool
func PutU256(v *uint256.Int) {
	v.Clear()
	uint256Pool.Put(v)
}
