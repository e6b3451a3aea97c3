/*
Package domain contains the core models shared by the Frame runtime and its adapters.

It defines what a blueprint is (its Definition and serializable Manifest), how handlers
talk back to the runtime (Step, Callback, Result and Promise), the props handed to each
phase, and the error taxonomy. The package is kept free of I/O and persistence.

# Key Entities

  - Definition: The executable form of a blueprint (Init, In and On handlers plus its describe manifest).
  - Manifest: The serializable description of a blueprint, bound to Go handlers by an implementation name.
  - Step: The signalling surface handed to a handler, bound to the position that follows it in a flow.
  - Result: What an input handler returns (a value, a failure, a promise or nothing yet).
  - Ref: A normalized blueprint reference ("protocol://name").
*/
package domain
