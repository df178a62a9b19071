package c3

import "errors"

var (
	// ErrSchemeMismatch indicates a query was derived under a different hash
	// scheme (or prefix length) than the index it was sent to. Fatal to that
	// query only, never to the run.
	ErrSchemeMismatch = errors.New("c3: hash scheme mismatch between query and index")

	// ErrBucketNotFound indicates no corpus record shares the requested
	// prefix. An empty bucket is a legal protocol outcome; callers inside the
	// protocol convert this to an empty result immediately.
	ErrBucketNotFound = errors.New("c3: no records share the requested prefix")
)
