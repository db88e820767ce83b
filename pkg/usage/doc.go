// Package usage counts how much of each plan resource an owner consumes.
//
// Counters are registered per resource in a Registry and queried through a
// Counter. A counter that cannot produce a number returns an error; callers
// never receive a silent zero. Backends provided here are a redis monthly
// meter for metered calls and an S3 prefix scan for photo storage; database
// counts live next to the tables they count.
package usage
