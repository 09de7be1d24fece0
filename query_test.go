package escrowd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryRouter(t *testing.T) {
	echo := QueryHandlerFunc(func(db ReadOnlyKVStore, data []byte) (interface{}, error) {
		return string(data), nil
	})

	r := NewQueryRouter()
	r.RegisterAll(func(qr QueryRouter) {
		qr.Register("/echo", echo)
	})

	h := r.Handler("/echo")
	if assert.NotNil(t, h) {
		res, err := h.Query(nil, []byte("hello"))
		assert.NoError(t, err)
		assert.Equal(t, "hello", res)
	}
	assert.Nil(t, r.Handler("/missing"))
	assert.Panics(t, func() { r.Register("/echo", echo) })
}
