// Package params maps positional pipe arguments onto the named parameters a
// blueprint declares in its describe manifest.
package params

import (
	"fmt"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/schema"
)

// Mapper is the default ports.ParamMapper.
type Mapper struct {
	// Strict rejects calls that pass more arguments than the phase declares.
	Strict bool
}

// New returns a lenient mapper.
func New() *Mapper {
	return &Mapper{}
}

// Destructure pairs args with params by position. Without declared params the
// props carry the positional values only. Typed params are checked with pkg/schema;
// arguments that were not supplied are left out of Named.
func (m *Mapper) Destructure(params []domain.Param, args []any) (domain.Props, error) {
	props := domain.Props{Args: args}
	if len(params) == 0 {
		return props, nil
	}
	if m.Strict && len(args) > len(params) {
		return props, fmt.Errorf("got %d arguments, %d declared", len(args), len(params))
	}

	props.Named = make(map[string]any, len(params))
	for i, p := range params {
		if i < len(args) {
			props.Named[p.Name] = args[i]
		}
	}

	typed, err := schema.FromParams(params)
	if err != nil {
		return props, err
	}
	if err := schema.ValidatePresent(typed, props.Named); err != nil {
		return props, err
	}
	return props, nil
}
