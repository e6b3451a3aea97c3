package validator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/ports"
	"github.com/aretw0/frame/pkg/schema"
)

// Validator is the default ports.Validator. It protects the engine from
// definitions whose describe manifest cannot be destructured.
type Validator struct{}

// New returns the default definition validator.
func New() *Validator {
	return &Validator{}
}

// Validate checks the definition's name and describe manifest.
// The returned error is a *schema.AggregateError listing every problem.
func (v *Validator) Validate(def *domain.Definition) (*domain.Definition, error) {
	if def == nil {
		return nil, errors.New("definition is nil")
	}

	errs := &schema.AggregateError{}
	if strings.TrimSpace(def.Name) == "" {
		errs.Append(&schema.ValidationError{Key: "name", Reason: "required"})
	}
	for phase, params := range def.Describe {
		errs.Errors = append(errs.Errors, checkParams(string(phase), params)...)
	}
	if err := errs.ErrOrNil(); err != nil {
		return nil, err
	}
	return def, nil
}

// ValidateManifest applies the same rules to a serializable manifest and also
// requires an implementation name.
func ValidateManifest(m *domain.Manifest) error {
	if m == nil {
		return errors.New("manifest is nil")
	}

	errs := &schema.AggregateError{}
	if strings.TrimSpace(m.Name) == "" {
		errs.Append(&schema.ValidationError{Key: "name", Reason: "required"})
	}
	if strings.TrimSpace(m.Impl) == "" {
		errs.Append(&schema.ValidationError{Key: "impl", Reason: "required"})
	}
	for phase, params := range m.Describe {
		errs.Errors = append(errs.Errors, checkParams(phase, params)...)
	}
	return errs.ErrOrNil()
}

func checkParams(phase string, params []domain.Param) []error {
	var errs []error
	key := "describe." + phase
	if !domain.Phase(phase).Valid() {
		return append(errs, &schema.ValidationError{Key: key, Reason: "unknown phase"})
	}

	seen := make(map[string]bool, len(params))
	for i, p := range params {
		field := fmt.Sprintf("%s[%d]", key, i)
		if p.Name == "" {
			errs = append(errs, &schema.ValidationError{Key: field, Reason: "name is required"})
			continue
		}
		if seen[p.Name] {
			errs = append(errs, &schema.ValidationError{Key: field, Reason: "duplicate name " + p.Name})
		}
		seen[p.Name] = true
		if _, err := schema.ParseType(p.Type); err != nil {
			errs = append(errs, &schema.ValidationError{Key: field, Reason: err.Error(), Value: p.Type})
		}
	}
	return errs
}

// Implementations reports which implementation names can be bound.
type Implementations interface {
	Has(impl string) bool
}

// ValidateCatalog loads every manifest of a source and checks it can be bound.
func ValidateCatalog(ctx context.Context, source ports.ManifestSource, impls Implementations) error {
	names, err := source.List(ctx)
	if err != nil {
		return fmt.Errorf("list manifests: %w", err)
	}

	var problems []string
	for _, name := range names {
		m, err := source.Manifest(ctx, name)
		if err != nil {
			problems = append(problems, fmt.Sprintf("'%s': %v", name, err))
			continue
		}
		if err := ValidateManifest(m); err != nil {
			problems = append(problems, fmt.Sprintf("'%s': %s", name, strings.TrimSpace(err.Error())))
			continue
		}
		if impls != nil && !impls.Has(m.Impl) {
			problems = append(problems, fmt.Sprintf("'%s': unknown implementation '%s'", name, m.Impl))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(problems), strings.Join(problems, "\n- "))
	}
	return nil
}
