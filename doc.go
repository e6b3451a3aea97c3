/*
Package frame is a flow-based programming runtime: small reusable units
("blueprints") are wired into directed pipelines and data is pushed through
them asynchronously on a single-threaded event loop.

# Concept

A blueprint is described by a manifest (name, implementation, parameters) and
backed by Go handlers registered under an implementation name. Wiring a
blueprint with To appends a step to its flow; wiring it with From registers an
event source that starts the flow. Plain functions and values can be used as
targets too and are adapted on the fly.

Every state change happens on the engine loop, so handlers never need locks.
Handlers may answer synchronously, return a promise, or call the completion
callback later.

# Key Features

  - Lazy loading: blueprints are resolved from protocol-keyed sources (file, mem, http, redis).
  - Sub-flows: a blueprint used as a step runs its own flow and resumes the caller with the result.
  - Debounced builds: any number of wiring calls produce a single graph build.
  - Observability: lifecycle hooks for logging, Prometheus metrics and OpenTelemetry traces.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/frame"
	)

	func main() {
		// Manifests are read from ./blueprints; std blueprints are served as mem://
		eng, err := frame.New("./blueprints")
		if err != nil {
			log.Fatal(err)
		}

		flow := eng.Blueprint("mem://identity").
			From("hello").
			To(eng.Blueprint("mem://upper")).
			To(eng.Blueprint("mem://print"), "> ")

		if err := eng.Drain(context.Background()); err != nil {
			log.Fatal(err)
		}
		_ = flow
	}
*/
package frame
