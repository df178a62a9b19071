package c3

import (
	"errors"
	"fmt"
)

// Server simulates the C3 service side of the protocol. It answers prefix
// queries with the full matching bucket: this disclosure is the protocol's
// design point, and exactly what an honest-but-curious operator observes.
type Server struct {
	index *BucketIndex
}

// NewServer wraps a built index. The index is treated as an immutable
// snapshot for the server's lifetime.
func NewServer(index *BucketIndex) *Server {
	return &Server{index: index}
}

// Index returns the server's bucket index.
func (s *Server) Index() *BucketIndex { return s.index }

// HandleQuery resolves a prefix to its anonymity set. A prefix whose length
// does not match the index scheme fails with ErrSchemeMismatch; a prefix no
// record shares is a legal outcome and yields an empty bucket.
func (s *Server) HandleQuery(prefix string) (*Bucket, error) {
	bucket, err := s.index.Lookup(prefix)
	if err != nil {
		if errors.Is(err, ErrBucketNotFound) {
			return &Bucket{Prefix: prefix}, nil
		}
		return nil, err
	}
	return bucket, nil
}

// Client simulates the password-manager side: it derives the query hash and
// prefix, fetches the bucket, scans it locally for an exact full-hash match
// and records the interaction in the query log.
type Client struct {
	scheme Scheme
	server *Server
	log    *QueryLog
}

// NewClient creates a client speaking the given scheme against a server,
// recording every interaction in log. The client scheme must match the
// server's index scheme; mismatches surface per query.
func NewClient(scheme Scheme, server *Server, log *QueryLog) *Client {
	return &Client{scheme: scheme, server: server, log: log}
}

// Query performs one protocol round-trip for the credential. The session tag
// is attached to the recorded event; pass "" for one-off queries. A scheme
// mismatch fails that query only.
func (c *Client) Query(cred Credential, session string) (QueryEvent, error) {
	if c.scheme != c.server.index.scheme {
		return QueryEvent{}, fmt.Errorf("client scheme %+v vs index scheme %+v: %w",
			c.scheme, c.server.index.scheme, ErrSchemeMismatch)
	}

	hash := c.scheme.Hash(cred)
	prefix := PrefixOfHash(hash, c.scheme.PrefixBits)

	bucket, err := c.server.HandleQuery(prefix)
	if err != nil {
		return QueryEvent{}, fmt.Errorf("querying prefix %s: %w", prefix, err)
	}

	ev := QueryEvent{
		Session:   session,
		Basis:     c.scheme.Basis,
		QueryHash: hash,
		Prefix:    prefix,
		Bucket:    *bucket,
		Matched:   bucket.Contains(hash),
	}
	return c.log.Append(ev), nil
}
