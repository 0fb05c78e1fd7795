package configuration

import (
	"github.com/pkg/errors"

	commonconfig "github.com/armadaproject/tpccbench/internal/common/config"
	"github.com/armadaproject/tpccbench/internal/common/tpccerrors"
)

// legacyKeys maps flat keys accepted in update requests onto their place in the configuration tree.
var legacyKeys = map[string]map[string][]string{
	"database": {
		"poolSize": {"pool", "size"},
		"jdbcUrl":  {"dsn"},
	},
	"benchmark": {
		"rampup": {"rampUp"},
	},
}

// Apply returns a copy of c with the sections present in update overwritten. Only the keys given are changed.
// The result is validated; on error c is unaffected.
func (c Config) Apply(update map[string]any) (Config, error) {
	updated := c
	if err := commonconfig.DecodeMap(normalise(update), &updated); err != nil {
		return c, errors.WithStack(&tpccerrors.ErrInvalidArgument{Name: "config", Value: update, Message: err.Error()})
	}
	if err := updated.Validate(); err != nil {
		return c, err
	}
	return updated, nil
}

func normalise(update map[string]any) map[string]any {
	out := make(map[string]any, len(update))
	for section, value := range update {
		values, ok := value.(map[string]any)
		aliases, hasAliases := legacyKeys[section]
		if !ok || !hasAliases {
			out[section] = value
			continue
		}
		rewritten := make(map[string]any, len(values))
		for k, v := range values {
			path, isAlias := aliases[k]
			if !isAlias {
				rewritten[k] = v
				continue
			}
			setPath(rewritten, path, v)
		}
		out[section] = rewritten
	}
	return out
}

func setPath(m map[string]any, path []string, value any) {
	for _, key := range path[:len(path)-1] {
		next, ok := m[key].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[key] = next
		}
		m = next
	}
	m[path[len(path)-1]] = value
}
