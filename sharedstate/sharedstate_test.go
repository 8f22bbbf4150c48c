package sharedstate_test

import (
	"testing"

	"github.com/jkminder/data2neo/sharedstate"
	"github.com/stretchr/testify/assert"
)

func TestSetGetDelete(t *testing.T) {
	f := sharedstate.New()
	_, ok := f.Get(sharedstate.GraphDriverSlot)
	assert.False(t, ok)

	f.Set(sharedstate.GraphDriverSlot, "driver-stub")
	v, ok := f.Get(sharedstate.GraphDriverSlot)
	assert.True(t, ok)
	assert.Equal(t, "driver-stub", v)

	f.Delete(sharedstate.GraphDriverSlot)
	_, ok = f.Get(sharedstate.GraphDriverSlot)
	assert.False(t, ok)
}

func TestMustGetPanicsWhenUnset(t *testing.T) {
	f := sharedstate.New()
	assert.Panics(t, func() { f.MustGet("missing") })
}
