package validator

import (
	"context"
	"strings"
	"testing"

	"github.com/aretw0/frame/pkg/adapters/memory"
	"github.com/aretw0/frame/pkg/domain"
	"github.com/aretw0/frame/pkg/schema"
)

func TestValidate(t *testing.T) {
	v := New()

	t.Run("Valid definition", func(t *testing.T) {
		def := &domain.Definition{
			Name: "greeter",
			Describe: domain.Describe{
				domain.PhaseInit: {{Name: "greeting", Type: "string"}},
				domain.PhaseIn:   {{Name: "suffix"}},
			},
		}
		got, err := v.Validate(def)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != def {
			t.Errorf("expected the same definition back")
		}
	})

	t.Run("Nil definition", func(t *testing.T) {
		if _, err := v.Validate(nil); err == nil {
			t.Error("expected error for nil definition")
		}
	})

	t.Run("Every problem is reported", func(t *testing.T) {
		def := &domain.Definition{
			Name: "  ",
			Describe: domain.Describe{
				"teardown": {{Name: "x"}},
				domain.PhaseIn: {
					{Name: "a", Type: "int"},
					{Name: "a", Type: "string"},
					{Name: "", Type: "int"},
					{Name: "b", Type: "decimal"},
				},
			},
		}
		_, err := v.Validate(def)
		if err == nil {
			t.Fatal("expected validation errors")
		}

		agg, ok := err.(*schema.AggregateError)
		if !ok {
			t.Fatalf("expected *schema.AggregateError, got %T", err)
		}
		// name, unknown phase, duplicate, missing name, unknown type
		if len(agg.Errors) != 5 {
			t.Errorf("expected 5 errors, got %d: %v", len(agg.Errors), err)
		}
		if !strings.Contains(err.Error(), "duplicate name a") {
			t.Errorf("duplicate param not reported: %v", err)
		}
	})
}

func TestValidateManifest(t *testing.T) {
	if err := ValidateManifest(&domain.Manifest{Name: "shout", Impl: "std/upper"}); err != nil {
		t.Errorf("valid manifest rejected: %v", err)
	}

	err := ValidateManifest(&domain.Manifest{Name: "shout"})
	if err == nil || !strings.Contains(err.Error(), "impl") {
		t.Errorf("expected impl to be required, got %v", err)
	}
}

type implSet map[string]bool

func (s implSet) Has(impl string) bool { return s[impl] }

func TestValidateCatalog(t *testing.T) {
	ctx := context.Background()
	impls := implSet{"std/upper": true}

	// Scenario A: every manifest binds
	good := memory.NewStore(domain.Manifest{Name: "shout", Impl: "std/upper"})
	if err := ValidateCatalog(ctx, good, impls); err != nil {
		t.Errorf("Scenario A (valid) failed: %v", err)
	}

	// Scenario B: unknown implementation and a broken describe block
	broken := memory.NewStore(
		domain.Manifest{Name: "shout", Impl: "std/upper"},
		domain.Manifest{Name: "ghost", Impl: "std/ghost"},
		domain.Manifest{Name: "odd", Impl: "std/upper", Describe: map[string][]domain.Param{"later": nil}},
	)
	err := ValidateCatalog(ctx, broken, impls)
	if err == nil {
		t.Fatal("Scenario B (broken) should fail")
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "found 2 errors:") {
		t.Errorf("unexpected summary: %s", msg)
	}
	if !strings.Contains(msg, "unknown implementation 'std/ghost'") {
		t.Errorf("missing implementation not reported: %s", msg)
	}
	if !strings.Contains(msg, "'odd'") {
		t.Errorf("bad describe block not reported: %s", msg)
	}
}
