// Package controller is the HTTP client for the remote switch controller.
//
// # Endpoints
//
// All paths are relative to the base URL (default [DefaultBaseURL]):
//
//	GET  layout                 layout items and the switch list
//	GET  parts                  part image catalog
//	GET  part_geometry          part geometry catalog (optional)
//	GET  switch_config          calibration of every switch
//	GET  switch/{id}/toggle     flip a switch, returns {"state": 0|1}
//	POST update_switch_config   commit a calibration
//	POST test_servo             move a servo to a position for testing
//
// # Failure Mapping
//
// Transport failures map to NETWORK_ERROR (TIMEOUT when the context
// deadline expired), 404 to NOT_FOUND, 5xx to NETWORK_ERROR, and other
// non-2xx answers to REMOTE_ERROR carrying the controller's message. A
// rejected calibration commit is VALIDATION with the message verbatim.
//
// Reads (layout, catalog, configs) retry transient failures with
// [httputil.DefaultPolicy]. Toggle, commit and servo tests are sent exactly
// once: repeating them would move hardware.
//
// # Caching
//
// The parts and part_geometry catalogs are cached in a [cache.Cache] keyed
// per controller URL. Layout and switch config are never cached.
//
// [httputil.DefaultPolicy]: github.com/matzehuels/switchyard/pkg/httputil.DefaultPolicy
// [cache.Cache]: github.com/matzehuels/switchyard/pkg/cache.Cache
package controller
