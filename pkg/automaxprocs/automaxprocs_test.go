package automaxprocs

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScaled(t *testing.T) {
	prev := runtime.GOMAXPROCS(2)
	defer runtime.GOMAXPROCS(prev)

	assert.Equal(t, 2, Current())
	assert.Equal(t, 8, Scaled(2, 8))
	assert.Equal(t, 12, Scaled(6, 8))
	assert.Equal(t, 1, Scaled(0, 1))
}
