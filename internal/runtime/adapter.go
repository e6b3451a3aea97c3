package runtime

import (
	"fmt"

	"github.com/aretw0/frame/pkg/domain"
)

// adapterFunc is the uniform shape every adapter is reduced to.
type adapterFunc = domain.InputFunc

// adaptFunction recognizes the function shapes accepted as pipe targets.
// Anything else becomes a constant adapter.
func adaptFunction(v any) (adapterFunc, bool) {
	switch fn := v.(type) {
	case domain.InputFunc:
		return fn, true
	case func(domain.Step, any, domain.Props, domain.Callback) domain.Result:
		return fn, true
	case func(any) any:
		return func(_ domain.Step, data any, _ domain.Props, _ domain.Callback) domain.Result {
			return domain.Value(fn(data))
		}, true
	case func(any) (any, error):
		return func(_ domain.Step, data any, _ domain.Props, _ domain.Callback) domain.Result {
			return settle(fn(data))
		}, true
	case func(any, domain.Props) (any, error):
		return func(_ domain.Step, data any, props domain.Props, _ domain.Callback) domain.Result {
			return settle(fn(data, props))
		}, true
	case func() any:
		return func(domain.Step, any, domain.Props, domain.Callback) domain.Result {
			return domain.Value(fn())
		}, true
	default:
		return nil, false
	}
}

func settle(v any, err error) domain.Result {
	if err != nil {
		return domain.Fail(err)
	}
	return domain.Value(v)
}

// adapterName labels adapters in logs and snapshots.
func adapterName(k kind, v any) string {
	if k == kindConstant {
		s := fmt.Sprintf("%v", v)
		if len(s) > 24 {
			s = s[:21] + "..."
		}
		return fmt.Sprintf("constant(%s)", s)
	}
	return fmt.Sprintf("function(%T)", v)
}
