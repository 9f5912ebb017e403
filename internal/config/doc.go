// Package config provides configuration management for deckhand.
//
// Configuration is loaded from a single directory. The default directory is
// ~/.config/deckhand; commands accept --config-path to use another one.
//
// # Configuration Directory
//
// The directory contains:
//   - config.yaml (main configuration file, optional)
//   - cards/ (card files; read by every aggregate load and watched for
//     SLICE cards between loads)
//   - saved-cards.yaml (names shown when the process last stopped)
//
// Relative directories in config.yaml are resolved against the
// configuration directory.
//
// # Example
//
//	manager:
//	  slowLoadThreshold: 2s
//	  updateBuffer: 64
//	  keepShownOnReload: false
//	sources:
//	  cardsDir: cards
//	  debounce: 500ms
//	  loadTimeout: 10s
//	conditional:
//	  pollInterval: 30s
//	  collapseThreshold: 2
//	  conditions:
//	    - name: airplane_mode
//	      path: /run/deckhand/airplane
//	      score: 0.9
//	      title: Airplane mode is on
//	suggestions:
//	  - name: set_wallpaper
//	    score: 0.2
//	    title: Pick a wallpaper
//
// A missing config.yaml is not an error; the defaults are used.
package config
