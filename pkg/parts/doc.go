// Package parts holds the part catalog: image URLs and intrinsic geometry
// for every known part, keyed by normalized part name.
//
// Layout labels are messy ("TB 2861  left switch", "ts 2861 Left Switch").
// [Normalize] turns them into a stable key, and every [Catalog] lookup
// normalizes its input first, so callers can pass raw labels.
//
// A missing entry is an expected outcome. Callers render a fallback box
// rather than treating it as an error.
package parts
