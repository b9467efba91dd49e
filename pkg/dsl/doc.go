/*
Package dsl provides a Go DSL for programmatically constructing gantry
pipelines.

It allows developers to define release pipelines using a type-safe,
fluent builder pattern instead of relying on an external gantry.yaml
file. This is particularly useful for dynamic pipeline generation,
unit testing, and leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/aretw0/gantry/pkg/dsl"
	)

	func main() {
		b := dsl.New()

		b.Stage("format").
			Run("black", ".").
			Commit("apply formatting")

		b.Stage("build").
			Needs("format").
			Run("python", "-m", "build").
			Outputs("wheel", "sdist")

		b.Stage("verify").
			Needs("build").
			Inputs("wheel", "sdist").
			Run("twine", "check", "dist/wheel", "dist/sdist")

		b.Stage("publish").
			Needs("verify").
			Inputs("wheel", "sdist").
			Publish("registry", "pypi")

		stages, err := b.Build()
		// ... pass stages to gantry.New(...)
		_ = stages
		_ = err
	}
*/
package dsl
