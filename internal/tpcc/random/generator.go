// Package random implements the TPC-C data and input generators. A Generator is not safe for concurrent use;
// every terminal and loader worker owns its own.
package random

import (
	"strings"

	"golang.org/x/exp/rand"

	"github.com/armadaproject/tpccbench/internal/tpcc/model"
)

// NURand A constants for customer last names, customer ids and item ids.
const (
	LastNameA   = 255
	CustomerIDA = 1023
	ItemIDA     = 8191
)

var syllables = [10]string{"BAR", "OUGHT", "ABLE", "PRI", "PRES", "ESE", "ANTI", "CALLY", "ATION", "EING"}

type Generator struct {
	rng *rand.Rand
}

// New returns a Generator seeded with seed. Two generators with the same seed produce the same sequence.
func New(seed uint64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Int returns a uniform integer in [min, max].
func (g *Generator) Int(min, max int) int {
	if max <= min {
		return min
	}
	return min + g.rng.Intn(max-min+1)
}

// NURand returns a non-uniform random integer in [x, y]. The run-time constant C is redrawn on every call.
func (g *Generator) NURand(a, x, y int) int {
	c := 0
	switch a {
	case LastNameA, CustomerIDA, ItemIDA:
		c = g.Int(0, a)
	}
	return (((g.Int(0, a) | g.Int(x, y)) + c) % (y - x + 1)) + x
}

// String returns a lower-case alphabetic string whose length is uniform in [minLen, maxLen].
func (g *Generator) String(minLen, maxLen int) string {
	n := g.Int(minLen, maxLen)
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('a' + g.rng.Intn(26))
	}
	return string(b)
}

// NumericString returns n decimal digits.
func (g *Generator) NumericString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte('0' + g.rng.Intn(10))
	}
	return string(b)
}

// Float returns a uniform float in [min, max).
func (g *Generator) Float(min, max float64) float64 {
	return min + (max-min)*g.rng.Float64()
}

func (g *Generator) Zip() string {
	return g.NumericString(4) + "11111"
}

// State returns two upper-case letters.
func (g *Generator) State() string {
	return strings.ToUpper(g.String(2, 2))
}

// Percent returns true with probability p/100.
func (g *Generator) Percent(p int) bool {
	return g.Int(1, 100) <= p
}

// Uniform returns a float in [0, 1).
func (g *Generator) Uniform() float64 {
	return g.rng.Float64()
}

// Shuffle permutes ids in place.
func (g *Generator) Shuffle(ids []int) {
	g.rng.Shuffle(len(ids), func(i, j int) {
		ids[i], ids[j] = ids[j], ids[i]
	})
}

// DataString returns a 26-50 character string that contains "ORIGINAL" 10% of the time.
func (g *Generator) DataString() string {
	data := g.String(26, 50)
	if g.Percent(10) {
		pos := g.Int(0, len(data)-8)
		data = data[:pos] + "ORIGINAL" + data[pos+8:]
	}
	return data
}

// CustomerID draws a skewed customer id for a district of the given scale.
func (g *Generator) CustomerID(scale model.Scale) int {
	return g.NURand(CustomerIDA, 1, scale.CustomersPerDistrict)
}

// ItemID draws a skewed item id.
func (g *Generator) ItemID(scale model.Scale) int {
	return g.NURand(ItemIDA, 1, scale.Items)
}

// CustomerLastName draws a skewed surname from the 1000 possible.
func (g *Generator) CustomerLastName() string {
	return LastName(g.NURand(LastNameA, 0, 999))
}

// LastName builds the surname for n in [0, 999] from the syllables selected by its three decimal digits.
func LastName(n int) string {
	return syllables[n/100] + syllables[(n/10)%10] + syllables[n%10]
}
