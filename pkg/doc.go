// Package pkg provides the core libraries for Switchyard, an operator tool for
// the servo-driven switches of a model railway layout.
//
// # Overview
//
// A remote controller (usually a Raspberry Pi) owns the layout, the part
// catalog, and the servo calibration of every switch. Switchyard loads that
// state into a session, draws the layout, and drives switches through the
// controller's HTTP API. The pkg directory is organized into four areas:
//
//  1. Domain: [layout], [parts], [scene], [viewport], [switches]
//  2. Remote: [controller] (HTTP client) and [simulator] (HTTP server)
//  3. Output: [render/sink] and [render/topology]
//  4. Support: [session], [cache], [httputil], [errors], [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow through Switchyard:
//
//	Controller API (or simulator)
//	         ↓
//	controller.Client  ──→  layout.Layout + parts.Catalog (cached)
//	         ↓
//	session.Load       ──→  scene.Build + switches.Controller
//	         ↓
//	render/sink (SVG, JSON, PDF, PNG)   or   switches.Toggle / Calibration
//
// Layout and catalog load independently; a missing part geometry never
// fails a load, it only produces a placeholder footprint.
//
// # Key Packages
//
// [switches] holds the two state machines: per-switch toggling with an
// in-flight guard, and calibration sessions that edit a draft and commit
// it to the controller, which has the final word on validity.
//
// [simulator] serves the same API without hardware, persisting switch
// records in memory, a JSON file, Redis, or MongoDB.
//
// [layout]: layout
// [parts]: parts
// [scene]: scene
// [viewport]: viewport
// [switches]: switches
// [controller]: controller
// [simulator]: simulator
// [render/sink]: render/sink
// [render/topology]: render/topology
// [session]: session
// [cache]: cache
// [httputil]: httputil
// [errors]: errors
// [observability]: observability
// [buildinfo]: buildinfo
package pkg
