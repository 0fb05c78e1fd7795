package random

import (
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/armadaproject/tpccbench/internal/tpcc/model"
)

func TestLastName(t *testing.T) {
	tests := map[int]string{
		0:   "BARBARBAR",
		371: "PRICALLYOUGHT",
		999: "EINGEINGEING",
		120: "OUGHTABLEBAR",
	}
	for n, expected := range tests {
		assert.Equal(t, expected, LastName(n))
	}
}

func TestNURand_InRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := New(rapid.Uint64().Draw(t, "seed"))
		a := rapid.SampledFrom([]int{0, LastNameA, CustomerIDA, ItemIDA}).Draw(t, "a")
		x := rapid.IntRange(0, 1000).Draw(t, "x")
		y := rapid.IntRange(x, x+100000).Draw(t, "y")

		v := g.NURand(a, x, y)
		if v < x || v > y {
			t.Fatalf("NURand(%d, %d, %d) = %d out of range", a, x, y, v)
		}
	})
}

func TestInt_Inclusive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		g := New(rapid.Uint64().Draw(t, "seed"))
		min := rapid.IntRange(-100, 100).Draw(t, "min")
		max := rapid.IntRange(min, min+50).Draw(t, "max")
		v := g.Int(min, max)
		if v < min || v > max {
			t.Fatalf("Int(%d, %d) = %d", min, max, v)
		}
	})
}

func TestInt_CoversBothEnds(t *testing.T) {
	g := New(1)
	seen := map[int]bool{}
	for i := 0; i < 1000; i++ {
		seen[g.Int(1, 3)] = true
	}
	assert.Equal(t, map[int]bool{1: true, 2: true, 3: true}, seen)
}

func TestStrings(t *testing.T) {
	g := New(7)
	for i := 0; i < 100; i++ {
		s := g.String(8, 16)
		assert.GreaterOrEqual(t, len(s), 8)
		assert.LessOrEqual(t, len(s), 16)
		assert.Equal(t, strings.ToLower(s), s)

		n := g.NumericString(16)
		assert.Len(t, n, 16)
		for _, r := range n {
			assert.True(t, unicode.IsDigit(r))
		}

		zip := g.Zip()
		assert.Len(t, zip, 9)
		assert.True(t, strings.HasSuffix(zip, "11111"))

		assert.Len(t, g.State(), 2)

		f := g.Float(1, 5000)
		assert.GreaterOrEqual(t, f, 1.0)
		assert.Less(t, f, 5000.0)
	}
}

func TestDataString(t *testing.T) {
	g := New(3)
	original := 0
	for i := 0; i < 10000; i++ {
		d := g.DataString()
		assert.GreaterOrEqual(t, len(d), 26)
		assert.LessOrEqual(t, len(d), 50)
		if strings.Contains(d, "ORIGINAL") {
			original++
		}
	}
	assert.InDelta(t, 1000, original, 200)
}

func TestShuffle_IsPermutation(t *testing.T) {
	g := New(9)
	ids := []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	g.Shuffle(ids)
	assert.ElementsMatch(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, ids)
}

func TestSameSeedSameSequence(t *testing.T) {
	a, b := New(11), New(11)
	for i := 0; i < 100; i++ {
		assert.Equal(t, a.CustomerID(model.DefaultScale()), b.CustomerID(model.DefaultScale()))
		assert.Equal(t, a.ItemID(model.DefaultScale()), b.ItemID(model.DefaultScale()))
		assert.Equal(t, a.CustomerLastName(), b.CustomerLastName())
	}
}
