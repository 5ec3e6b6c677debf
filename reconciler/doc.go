// Package reconciler converges a certificate request file to the state
// described by a Descriptor.
//
// A pass observes the request as Absent, PresentValid or PresentStale
// and takes at most one action: generate the request, regenerate it,
// or do nothing. Remove deletes the request and succeeds if it is
// already gone.
//
// A Reconciler holds no mutable state and is safe for concurrent use
// on descriptors with distinct paths.
package reconciler
