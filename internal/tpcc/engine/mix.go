package engine

import (
	"github.com/armadaproject/tpccbench/internal/tpcc/configuration"
	"github.com/armadaproject/tpccbench/internal/tpcc/model"
)

// mix picks transaction types in proportion to their configured weights.
type mix struct {
	cumulative []int
	total      int
}

func newMix(config configuration.MixConfig) mix {
	m := mix{cumulative: make([]int, len(model.TransactionTypes))}
	for i, w := range config.Weights() {
		if w > 0 {
			m.total += w
		}
		m.cumulative[i] = m.total
	}
	return m
}

// pick maps a uniform draw u in [0, 1) onto a transaction type.
func (m mix) pick(u float64) model.TransactionType {
	r := int(u * float64(m.total))
	for i, c := range m.cumulative {
		if r < c {
			return model.TransactionTypes[i]
		}
	}
	return model.TransactionTypes[0]
}
