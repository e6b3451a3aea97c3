/*
Package ports defines the driven ports (interfaces) of the Frame runtime.

These interfaces decouple the flow engine from the places blueprints come from
and from the policies applied to them, so the engine works the same whether
definitions live in memory, in a Loam repository, behind HTTP or in Redis.

# Key Interfaces

  - Loader: Resolves a blueprint reference to an executable Definition.
  - ManifestSource: Reads serializable blueprint manifests by name.
  - ManifestStore: A ManifestSource that can also be written to.
  - Validator: Checks (and may normalize) a Definition before it is used.
  - ParamMapper: Turns positional pipe arguments into named Props.
*/
package ports
