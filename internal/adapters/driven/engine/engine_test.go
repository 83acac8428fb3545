package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/wrapshake/internal/core/domain"
)

func TestGrid_Size(t *testing.T) {
	g := Grid{Npts: [3]int{60, 40, 20}, Spacing: 0.5}

	assert.Equal(t, [3]float64{30, 20, 10}, g.Size())
}

func TestGrid_Validate(t *testing.T) {
	assert.NoError(t, DefaultGrid().Validate())

	bad := DefaultGrid()
	bad.Npts[1] = 0
	assert.ErrorIs(t, bad.Validate(), domain.ErrConfig)

	bad = DefaultGrid()
	bad.Spacing = 0
	assert.ErrorIs(t, bad.Validate(), domain.ErrConfig)
}

func TestFormatFloat(t *testing.T) {
	assert.Equal(t, "0.375", FormatFloat(0.375))
	assert.Equal(t, "-12", FormatFloat(-12))
	assert.Equal(t, "22.5", FormatFloat(22.5))
}
