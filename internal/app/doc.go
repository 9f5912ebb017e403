// Package app wires deckhand together.
//
// Bootstrap happens in two phases:
//  1. NewApplication initialises logging, loads the configuration and builds
//     the services (producers, lifecycle host, loader and card manager).
//  2. Run starts the manager, performs the first load, reports readiness to
//     systemd and serves until it is signalled to stop. On shutdown the names
//     of the shown cards are saved for the next start.
//
// Snapshot is the one-shot variant used by the list command: it performs a
// single load and returns the ordered card list.
package app
