// Package logging provides subsystem-tagged structured logging for deckhand.
//
// The package wraps Go's log/slog with a small, process-wide API. Every entry
// carries a subsystem attribute so output from the manager, the producers and
// the loader can be told apart:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//
//	logging.Info("Manager", "Accepted load session %s", id)
//	logging.Debug("Reconciler", "Carried over %d cards", n)
//	logging.Warn("Registry", "No producer registered for type %s", t)
//	logging.Error("Loader", err, "Source %s failed", name)
//
// Output is text by default; Init with FormatJSON switches to one JSON object
// per line, which is what `deckhand serve --log-format json` uses.
//
// Calls made before initialisation are dropped silently.
package logging
