// Package loader provides the aggregate card loader used by the manager's
// load sessions.
//
// A load returns the complete current card list from every source. The
// manager turns that list into an update of its card set, so an empty list
// is a meaningful result: it clears every loaded type except the
// conditional family.
//
// Card files are YAML documents of the form:
//
//	cards:
//	  - name: wifi_toggle
//	    type: SLICE
//	    score: 0.8
//	    title: Wi-Fi
//	    summary: Connected to {{ .name }}
//	    uri: content://wifi
//	    payload:
//	      icon: wifi
//
// Files are read from a single directory without recursion. Files that fail
// to parse or contain invalid cards are skipped with a warning.
package loader
