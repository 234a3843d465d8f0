// Package bids writes normalized recordings into a BIDS-style standardized
// hierarchy keyed by participant/session/run, one artifact directory per
// canonical identity. It implements the convert.Writer collaborator
// interface.
package bids
