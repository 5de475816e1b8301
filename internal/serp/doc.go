// Package serp turns a Naver search results page into ranked entries.
//
// The package is split along the pipeline: Normalize and Hostname canonicalize
// URLs for comparison, the host predicates decide which links are results,
// Classify maps a block's area code to a section name, Parser walks the page in
// visual order, and SiteRank/TrackURL assign positions. Checker wires a
// fetcher, the parser and the calculators together for the batch tracker.
package serp
