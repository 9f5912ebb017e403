// Package producer defines the contract between card producers and the
// manager, and the registry that instantiates producers on demand.
//
// # Ownership
//
// Every card type is owned by exactly one registration. A registration names
// a factory and the types it serves; the producer it builds is created the
// first time any of those types is requested and reused afterwards.
//
// # Binding
//
// A freshly built producer is bound once to the shared update sink. The sink
// it receives validates every batch before forwarding it: cards must be
// valid, must all be of the notified type and that type must be owned by the
// producer. Violations are logged and the batch is dropped.
//
// # Lifecycle
//
// Producers that need background evaluation (polling, file watching)
// implement LifecycleObserver. The registry attaches them to the Lifecycle
// host exactly once; they stay attached for the life of the host.
package producer
