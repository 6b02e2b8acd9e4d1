package exclusive

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCell_With(t *testing.T) {
	cell := New("counter", 0)
	cell.With(func(v *int) { *v += 2 })
	assert.Equal(t, 2, Get(cell, func(v *int) int { return *v }))
}

func TestCell_Reentry(t *testing.T) {
	cell := New("counter", 0)
	assert.PanicsWithValue(t, "exclusive: counter already borrowed", func() {
		cell.With(func(*int) {
			cell.With(func(*int) {})
		})
	})
	// the panicking scope released its borrow
	_, release := cell.Borrow()
	release()
	release()
	cell.With(func(v *int) { *v = 1 })
}
