package engine

import (
	"fmt"

	"github.com/solsword/quiche/codec"
)

// mixTarget builds the full target key (spec §6): name + ":" + a
// deterministic serialization of the sorted (pname, pvalue) pairs for
// pname in relevant. Values absent from params serialize as the sentinel
// "absent" — nil, per spec §6 ("the reference implementation uses the
// null value").
func (e *Engine) mixTarget(target string, relevant []string, params map[string]any) (string, error) {
	pairs := make([][2]any, len(relevant))
	for i, name := range relevant {
		v, ok := params[name]
		if !ok {
			v = nil
		}
		pairs[i] = [2]any{name, v}
	}

	data, err := codec.EncodeParams(pairs)
	if err != nil {
		return "", fmt.Errorf("%w: target %q: %v", ErrParamEncoding, target, err)
	}

	return target + ":" + string(data), nil
}
