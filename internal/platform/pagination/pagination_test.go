package pagination

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewNormalizes(t *testing.T) {
	r := New(0, 0, "  juan ")
	assert.Equal(t, Request{Page: 1, PageSize: 10, Search: "juan"}, r)
	assert.Equal(t, 0, r.Offset())

	r = New(3, 500, "")
	assert.Equal(t, MaxPageSize, r.PageSize)
	assert.Equal(t, 200, r.Offset())
	assert.Equal(t, 100, r.Limit())
}

func TestNewClampsHugePage(t *testing.T) {
	for _, size := range []int{1, 10, MaxPageSize} {
		r := New(math.MaxInt64, size, "")
		assert.Equal(t, MaxPage, r.Page)
		assert.Equal(t, (MaxPage-1)*size, r.Offset())
		assert.GreaterOrEqual(t, r.Offset(), 0)
	}
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 10))
	assert.Equal(t, 1, TotalPages(1, 10))
	assert.Equal(t, 1, TotalPages(10, 10))
	assert.Equal(t, 2, TotalPages(11, 10))
	assert.Equal(t, 0, TotalPages(5, 0))
}

func TestMetaWithStatusCounts(t *testing.T) {
	meta := NewMeta(New(2, 5, ""), 12).WithStatusCounts(9, 3)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 2, meta.Page)
	if assert.NotNil(t, meta.TotalActivos) && assert.NotNil(t, meta.TotalInactivos) {
		assert.Equal(t, 9, *meta.TotalActivos)
		assert.Equal(t, 3, *meta.TotalInactivos)
	}
}
