/*
Package gantry is a release pipeline runner: it plans a graph of build
stages, executes them in dependency order, and publishes the resulting
artifacts to a package index using short-lived trusted-publish tokens.

# Concept

Gantry treats a release as a directed acyclic graph of stages. Each
stage consumes named artifacts produced upstream, runs its commands in
an isolated workspace, and uploads its declared outputs to the
artifact store. The orchestrator drives the graph: a stage runs only
after every dependency succeeded, a failure skips all dependents, and
publish stages additionally require a matching trigger (a push to a
publish branch), an approved environment, and a single-use token from
the trust exchange. This hexagonal architecture keeps the core free of
infrastructure: stores, runners, registries and approval gates are
adapters behind ports.

# Key Features

  - Deterministic Planning: stage order is reproducible, with
    registration order breaking ties between independent stages.
  - Trusted Publishing: tokens are audience-scoped, single-use, and
    never persisted or logged.
  - At-Most-Once Publish: duplicate versions are reported as a benign
    success, and interrupted publishes are flagged as indeterminate
    instead of being silently retried.
  - Self-Modifying Stages: a formatting stage can commit its own
    changes back, converging to a no-op once the tree is clean.

# Usage

Define the stages and run the pipeline with the default local
adapters, or inject real ones for production use.

	package main

	import (
		"context"
		"log"
		"time"

		"github.com/aretw0/gantry"
		"github.com/aretw0/gantry/pkg/domain"
	)

	func main() {
		eng, err := gantry.New([]domain.Stage{
			{
				Name:     "build",
				Outputs:  []string{"wheel"},
				Commands: []domain.Command{{Program: "make", Args: []string{"dist"}}},
			},
			{
				Name:     "verify",
				Needs:    []string{"build"},
				Inputs:   []string{"wheel"},
				Commands: []domain.Command{{Program: "make", Args: []string{"check"}}},
			},
		})
		if err != nil {
			log.Fatal(err)
		}

		report, err := eng.Run(context.Background(), domain.RunContext{
			RunID:     "local",
			Trigger:   domain.Trigger{Event: domain.EventPush, Branch: "main"},
			StartedAt: time.Now(),
		})
		if err != nil {
			log.Fatal(err)
		}
		log.Println(report.Markdown())
	}
*/
package gantry
