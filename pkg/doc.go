// Package pkg provides the core libraries for loci, a dynamic geometry
// system with algebraic locus discovery.
//
// # Overview
//
// A construction is a dependency graph of geometric elements: free
// points drive dependent points (midpoints, perpendicular feet,
// reflections, circumcenters, intersections) through incremental
// numeric updates. The locus of any dependent point is discovered
// algebraically: constraint polynomials are collected, the coordinate
// frame is normalized, everything but the target's coordinates is
// eliminated by an external engine, and the resulting implicit curve is
// traced for display.
//
// # Architecture
//
// The typical data flow:
//
//	construction file / API payload
//	         ↓
//	    [construction] package (graph, numeric updates, constraints)
//	         ↓
//	    [normalize] package (anchor pinning, frame transform)
//	         ↓
//	    [eliminate] package (engine client)
//	         ↓
//	    [implicit] package (polynomial parsing, curve tracing)
//	         ↓
//	    [locus] package (orchestration, caching, staleness)
//	         ↓
//	    [export] package (scene SVG, dependency graph views)
//
// Supporting infrastructure: [cache] (file/redis backends keyed by
// structural signatures), [store] (memory/mongo document storage),
// [config] (TOML configuration), [errors] (structured error codes),
// [observability] (pluggable hooks), [httputil] (retry helpers),
// [geom] and [symbolic] (numeric and symbolic primitives).
package pkg
