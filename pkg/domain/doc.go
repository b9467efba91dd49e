/*
Package domain contains the pure types of the Gantry pipeline model.

It has no dependencies on adapters or the runtime: stages, artifacts,
run context, trust tokens and lifecycle events are plain data that the
orchestrator core and the adapters exchange through the ports.
*/
package domain
