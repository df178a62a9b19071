package c3

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// simulationEpoch anchors simulated timestamps. Event time is epoch plus one
// step per sequence number, which keeps serialized logs reproducible.
var simulationEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// QueryEvent is one observed protocol interaction: everything an
// honest-but-curious server legitimately sees for a single query, plus the
// client-side match outcome. The bucket is a snapshot copy, not a live
// reference into the index.
type QueryEvent struct {
	ID        string    `json:"id"`
	Seq       int       `json:"seq"`
	Timestamp time.Time `json:"timestamp"`

	// Session tags queries issued by the same simulated client, empty for
	// one-off queries. It is the default linkage signal for the cross-query
	// attacks.
	Session string `json:"session,omitempty"`

	// Basis records which credential field the query hash covers, so logs
	// with heterogeneous query types can be cross-referenced.
	Basis string `json:"basis"`

	QueryHash string `json:"query_hash"`
	Prefix    string `json:"prefix"`
	Bucket    Bucket `json:"bucket"`
	Matched   bool   `json:"matched"`
}

// QueryLog is the ordered, append-only record of all protocol interactions
// in one simulation. It grows monotonically during simulation and is
// read-only input to the attack phase; no attack may alter history.
type QueryLog struct {
	Scheme Scheme       `json:"scheme"`
	Seed   int64        `json:"seed"`
	Events []QueryEvent `json:"events"`

	namespace uuid.UUID
}

// NewQueryLog creates an empty log for the given scheme. The seed is the
// simulation's random seed; it both documents how the trace was produced and
// namespaces the deterministic event IDs.
func NewQueryLog(scheme Scheme, seed int64) *QueryLog {
	return &QueryLog{Scheme: scheme, Seed: seed, namespace: logNamespace(seed)}
}

func logNamespace(seed int64) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(fmt.Sprintf("c3-querylog-%d", seed)))
}

// Append records an event, assigning its sequence number, monotonically
// increasing timestamp and deterministic ID.
func (l *QueryLog) Append(ev QueryEvent) QueryEvent {
	ev.Seq = len(l.Events)
	ev.Timestamp = simulationEpoch.Add(time.Duration(ev.Seq) * time.Second)
	ev.ID = uuid.NewSHA1(l.namespace, []byte(fmt.Sprintf("event-%d", ev.Seq))).String()
	l.Events = append(l.Events, ev)
	return ev
}

// Len returns the number of recorded events.
func (l *QueryLog) Len() int { return len(l.Events) }

// Event returns the event with the given ID.
func (l *QueryLog) Event(id string) (QueryEvent, bool) {
	for _, ev := range l.Events {
		if ev.ID == id {
			return ev, true
		}
	}
	return QueryEvent{}, false
}

// Sessions returns the distinct non-empty session tags in order of first
// appearance.
func (l *QueryLog) Sessions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, ev := range l.Events {
		if ev.Session != "" && !seen[ev.Session] {
			seen[ev.Session] = true
			out = append(out, ev.Session)
		}
	}
	return out
}

// BySession returns all events tagged with the session, in log order.
func (l *QueryLog) BySession(session string) []QueryEvent {
	var out []QueryEvent
	for _, ev := range l.Events {
		if ev.Session == session {
			out = append(out, ev)
		}
	}
	return out
}

// Serialize encodes the log for persistence between runs. Two simulations of
// identical inputs serialize to identical bytes.
func (l *QueryLog) Serialize() ([]byte, error) {
	return Serialize(l)
}

// DeserializeQueryLog reconstructs a log serialized by Serialize.
func DeserializeQueryLog(data []byte) (*QueryLog, error) {
	log, err := DecodeBytes[QueryLog](data)
	if err != nil {
		return nil, fmt.Errorf("decoding query log: %w", err)
	}
	log.namespace = logNamespace(log.Seed)
	return log, nil
}

// Group is a set of query events attributed to one underlying client or
// identity by a Linker. It is the shared evidence view consumed by both the
// range-combining and credential-connecting attacks.
type Group struct {
	Key    string
	Events []QueryEvent
}

// Linker clusters query events that belong to the same underlying identity.
// Which signal links queries is an experimental parameter, not a protocol
// guarantee, so implementations are pluggable.
type Linker interface {
	Groups(log *QueryLog) []Group
}

// SessionLinker groups events by their explicit session tag. Untagged events
// form singleton groups keyed by event ID. This is the default linker.
type SessionLinker struct{}

// Groups implements Linker.
func (SessionLinker) Groups(log *QueryLog) []Group {
	bySession := make(map[string]*Group)
	var order []string
	var out []Group
	for _, ev := range log.Events {
		if ev.Session == "" {
			out = append(out, Group{Key: ev.ID, Events: []QueryEvent{ev}})
			continue
		}
		g, ok := bySession[ev.Session]
		if !ok {
			g = &Group{Key: ev.Session}
			bySession[ev.Session] = g
			order = append(order, ev.Session)
		}
		g.Events = append(g.Events, ev)
	}
	for _, session := range order {
		out = append(out, *bySession[session])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Events[0].Seq < out[j].Events[0].Seq })
	return out
}

// WindowLinker clusters events by timestamp proximity: consecutive events
// within Gap of each other are attributed to one client. It approximates
// session linkage when the server sees no explicit client identity.
type WindowLinker struct {
	Gap time.Duration
}

// OverlapLinker groups events whose prefixes are compatible in the
// bit-string sense: one is a prefix of the other, or they are equal. Queries
// for one credential issued under different prefix lengths stay compatible,
// which makes this the linker of choice for logs that sweep the prefix
// length.
type OverlapLinker struct{}

// Groups implements Linker. Compatibility is transitive-closed: if a coarse
// prefix covers two finer ones, all three land in one group.
func (OverlapLinker) Groups(log *QueryLog) []Group {
	n := len(log.Events)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(i, j int) { parent[find(i)] = find(j) }

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			a, b := log.Events[i].Prefix, log.Events[j].Prefix
			if strings.HasPrefix(a, b) || strings.HasPrefix(b, a) {
				union(i, j)
			}
		}
	}

	byRoot := make(map[int]*Group)
	var order []int
	for i, ev := range log.Events {
		root := find(i)
		g, ok := byRoot[root]
		if !ok {
			g = &Group{Key: fmt.Sprintf("overlap-%d", ev.Seq)}
			byRoot[root] = g
			order = append(order, root)
		}
		g.Events = append(g.Events, ev)
	}
	out := make([]Group, 0, len(order))
	for _, root := range order {
		out = append(out, *byRoot[root])
	}
	return out
}

// Groups implements Linker.
func (w WindowLinker) Groups(log *QueryLog) []Group {
	var out []Group
	var current *Group
	var last time.Time
	for _, ev := range log.Events {
		if current == nil || ev.Timestamp.Sub(last) > w.Gap {
			out = append(out, Group{Key: fmt.Sprintf("window-%d", ev.Seq)})
			current = &out[len(out)-1]
		}
		current.Events = append(current.Events, ev)
		last = ev.Timestamp
	}
	return out
}
