package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_DocumentedCodes(t *testing.T) {
	want := map[int]Category{
		0:  CategoryClear,
		1:  CategoryCloudy,
		2:  CategoryCloudy,
		3:  CategoryCloudy,
		4:  CategoryRain,
		5:  CategoryRain,
		6:  CategoryRain,
		7:  CategoryRain,
		8:  CategorySnow,
		9:  CategorySnow,
		10: CategorySnow,
		11: CategoryRain,
		12: CategoryRain,
	}
	for code := 0; code <= 12; code++ {
		assert.Equal(t, want[code], Classify(code), "code %d", code)
	}
}

func TestClassify_OutsideDomainIsUnknown(t *testing.T) {
	for _, code := range []int{-100, -1, 13, 45, 61, 95, 1 << 30} {
		assert.Equal(t, CategoryUnknown, Classify(code), "code %d", code)
	}
}

func TestClassify_IsDeterministic(t *testing.T) {
	for code := -5; code <= 20; code++ {
		first := Classify(code)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, Classify(code))
		}
	}
}
