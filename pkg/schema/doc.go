// Package schema provides the small type system used to check blueprint parameters.
//
// Describe manifests may annotate each parameter with a type name: "string",
// "int", "float", "bool", "duration", "map", "any", or a slice such as
// "[string]". FromParams turns a describe phase into a Schema:
//
//	s, err := schema.FromParams(def.Describe.Params(domain.PhaseIn))
//	if err != nil {
//	    return err
//	}
//	if err := schema.ValidatePresent(s, props.Named); err != nil {
//	    // err is an *AggregateError listing every failing field
//	}
//
// Numbers decoded with json.Number (as Loam's strict mode produces) are accepted by
// the int and float types. Custom validators can be built with Custom.
package schema
