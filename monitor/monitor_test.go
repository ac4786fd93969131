package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTail(t *testing.T) {
	log := []byte("one\ntwo\nthree\n\n")

	assert.Equal(t, "two\nthree\n", string(Tail([]byte(string(log)), 2)))
	assert.Equal(t, "one\ntwo\nthree\n", string(Tail([]byte(string(log)), 10)))
	assert.Nil(t, Tail([]byte(string(log)), 0))
	assert.Nil(t, Tail(nil, 5))
}
