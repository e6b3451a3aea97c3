/*
Package dsl describes flows as data so they can be kept in YAML files or built
with a fluent Go API, and wires them onto an engine.

A pipeline names an owner blueprint and an ordered list of steps. Each step is
either a "to" pipe (a blueprint or constant the data flows into) or a "from"
pipe (an event source that starts the flow):

	pipelines:
	  - name: shout
	    owner: identity
	    steps:
	      - from_value: hello
	      - to: upper
	      - to: print
	        params: ["> "]

The same pipeline in Go:

	p := dsl.NewPipeline("shout", "identity").
		FromValue("hello").
		To("upper").
		To("print", "> ")

	flow, err := p.Wire(engine)
*/
package dsl
