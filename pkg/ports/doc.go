/*
Package ports declares the interfaces between the orchestrator core and
the outside world: artifact storage, stage execution, trust exchange,
registry publishing, approval gating and run locking.

Adapters under pkg/adapters implement these; the core depends only on
the interfaces, keeping it testable against in-memory fakes.
*/
package ports
