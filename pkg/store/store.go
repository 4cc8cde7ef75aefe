package store

import (
	"context"
	"sync"
	"time"

	"github.com/go-go-golems/arbor/pkg/completion"
	"github.com/go-go-golems/arbor/pkg/events"
	"github.com/go-go-golems/arbor/pkg/persist"
	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/rs/zerolog/log"
)

// Store is the concrete state container. Construct it once at application
// start and inject it into handlers; it carries no ambient global state.
type Store struct {
	mu sync.Mutex

	sessions        map[tree.SessionID]*tree.Session
	sessionOrder    []tree.SessionID
	activeSessionID tree.SessionID
	activePath      []tree.NodeID
	currentNodeID   tree.NodeID
	pending         *pendingTracker

	completer completion.Completer
	writer    *persist.Writer
	publisher *events.PublisherManager
	debounce  time.Duration
}

var _ Manager = (*Store)(nil)

type Option func(*Store)

// WithCompleter sets the assistant collaborator RequestTurn calls.
func WithCompleter(completer completion.Completer) Option {
	return func(s *Store) { s.completer = completer }
}

// WithPublisher attaches a publisher manager for store lifecycle events.
func WithPublisher(publisher *events.PublisherManager) Option {
	return func(s *Store) { s.publisher = publisher }
}

// WithDebounce overrides the persistence debounce window.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// New builds an empty, in-memory-only store. Use Open to restore from and
// write back to a persistence backend.
func New(options ...Option) *Store {
	ret := &Store{
		sessions: map[tree.SessionID]*tree.Session{},
		pending:  newPendingTracker(),
		debounce: persist.DefaultDebounce,
	}
	for _, option := range options {
		option(ret)
	}
	return ret
}

// Open loads the persisted snapshot from backend, falling back to a fresh
// state when it is absent or unreadable, repairs it, and returns a store
// that writes back to backend. A nil backend yields an in-memory store.
func Open(ctx context.Context, backend persist.Backend, options ...Option) (*Store, error) {
	s := New(options...)

	snap := persist.NewSnapshot()
	if backend != nil {
		data, ok, err := backend.Load(ctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("loading snapshot failed, starting fresh")
		case ok:
			parsed, err := persist.Decode(data)
			if err != nil {
				log.Warn().Err(err).Msg("snapshot unparsable, starting fresh")
			} else {
				snap = parsed
			}
		}
		s.writer = persist.NewWriter(backend, s.debounce)
	}

	s.restore(persist.Repair(snap))
	return s, nil
}

func (s *Store) restore(snap *persist.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = snap.Sessions
	s.sessionOrder = snap.SessionOrder
	s.activeSessionID = snap.ActiveSessionID
	s.activePath = snap.ActivePath
	s.currentNodeID = snap.CurrentNodeID
	s.pending.clearAll()
}

// Close flushes any pending persistence write.
func (s *Store) Close() error {
	if s.writer == nil {
		return nil
	}
	return s.writer.Close()
}

func (s *Store) activeSessionLocked() *tree.Session {
	if s.activeSessionID == "" {
		return nil
	}
	return s.sessions[s.activeSessionID]
}

// findNodeLocked locates a node across sessions, in session creation
// order. Replies arriving after a session switch still land on the right
// tree this way.
func (s *Store) findNodeLocked(nodeID tree.NodeID) (*tree.Session, *tree.Node) {
	for _, sessionID := range s.sessionOrder {
		session := s.sessions[sessionID]
		if session == nil {
			continue
		}
		if node, ok := session.Node(nodeID); ok {
			return session, node
		}
	}
	return nil, nil
}

func (s *Store) snapshotLocked() *persist.Snapshot {
	return &persist.Snapshot{
		Version:         persist.Version,
		ActiveSessionID: s.activeSessionID,
		ActivePath:      append([]tree.NodeID(nil), s.activePath...),
		CurrentNodeID:   s.currentNodeID,
		Sessions:        s.sessions,
		SessionOrder:    append([]tree.SessionID(nil), s.sessionOrder...),
	}
}

// persistLocked encodes the state under the lock and hands the blob to the
// debounced writer, so the durable bytes always describe a committed
// mutation.
func (s *Store) persistLocked() {
	if s.writer == nil {
		return
	}
	data, err := s.snapshotLocked().Encode()
	if err != nil {
		log.Warn().Err(err).Msg("encoding snapshot failed")
		return
	}
	s.writer.Request(data)
}

func (s *Store) publish(event events.Event) {
	s.publisher.PublishBlind(event)
}

// EnsureSession returns the active session id, creating a session first
// when none exists or the recorded active id is stale.
func (s *Store) EnsureSession() tree.SessionID {
	s.mu.Lock()
	if session := s.activeSessionLocked(); session != nil {
		id := session.ID
		s.mu.Unlock()
		return id
	}
	id := s.createSessionLocked()
	s.persistLocked()
	s.mu.Unlock()

	s.publish(events.New(events.EventTypeSessionCreated).WithSession(id))
	return id
}

// CreateSession creates a fresh session, makes it active with its root as
// the whole active path, and clears all pending turns.
func (s *Store) CreateSession() tree.SessionID {
	s.mu.Lock()
	id := s.createSessionLocked()
	s.persistLocked()
	s.mu.Unlock()

	s.publish(events.New(events.EventTypeSessionCreated).WithSession(id))
	return id
}

func (s *Store) createSessionLocked() tree.SessionID {
	session := tree.NewSession()
	s.sessions[session.ID] = session
	s.sessionOrder = append(s.sessionOrder, session.ID)
	s.activeSessionID = session.ID
	s.activePath = []tree.NodeID{session.RootNodeID}
	s.currentNodeID = session.RootNodeID
	s.pending.clearAll()
	return session.ID
}

// SetActiveSession switches to the given session, restoring its last
// focused node as the path target. Unknown ids are a silent no-op.
func (s *Store) SetActiveSession(id tree.SessionID) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	s.activeSessionID = id
	s.activateSessionLocked(session)
	s.persistLocked()
	s.mu.Unlock()

	s.publish(events.New(events.EventTypePathSwitched).WithSession(id))
}

// activateSessionLocked rebuilds the focus substructure for a session that
// just became active and reconciles its highlights.
func (s *Store) activateSessionLocked(session *tree.Session) {
	target := session.LastFocusedNodeID
	if _, ok := session.Node(target); !ok {
		target = session.RootNodeID
	}
	path, err := session.PathToNode(target)
	if err != nil {
		log.Error().Err(err).Str("session_id", string(session.ID)).Msg("walking to focused node failed, falling back to root")
		target = session.RootNodeID
		path = []tree.NodeID{target}
	}
	tree.ReconcileHighlights(session, path)
	s.activePath = path
	s.currentNodeID = target
	session.LastFocusedNodeID = target
	session.Touch()
}

// DeleteSession removes a session and any pending turns for its nodes.
// When the active session is deleted, the first remaining session becomes
// active, or the focus state is cleared entirely when none remain.
func (s *Store) DeleteSession(id tree.SessionID) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, id)
	for i, sessionID := range s.sessionOrder {
		if sessionID == id {
			s.sessionOrder = append(s.sessionOrder[:i], s.sessionOrder[i+1:]...)
			break
		}
	}
	s.pending.clearSession(session)

	if s.activeSessionID == id {
		if len(s.sessionOrder) > 0 {
			s.activeSessionID = s.sessionOrder[0]
			s.activateSessionLocked(s.sessions[s.activeSessionID])
		} else {
			s.activeSessionID = ""
			s.activePath = nil
			s.currentNodeID = ""
		}
	}
	s.persistLocked()
	s.mu.Unlock()

	s.publish(events.New(events.EventTypeSessionDeleted).WithSession(id))
}

// FocusNode moves the current position within the existing active path.
// Nodes off the path are a no-op: changing the path itself is
// SwitchBranchToNode's job.
func (s *Store) FocusNode(nodeID tree.NodeID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session := s.activeSessionLocked()
	if session == nil {
		return
	}
	onPath := false
	for _, id := range s.activePath {
		if id == nodeID {
			onPath = true
			break
		}
	}
	if !onPath {
		return
	}
	s.currentNodeID = nodeID
	session.LastFocusedNodeID = nodeID
	session.Touch()
	s.persistLocked()
}

// SwitchBranchToNode recomputes the active path to end at the given node
// and reconciles highlights. This is how clicking a highlight elsewhere
// in the tree teleports the active view.
func (s *Store) SwitchBranchToNode(nodeID tree.NodeID) {
	s.mu.Lock()
	session := s.activeSessionLocked()
	if session == nil {
		s.mu.Unlock()
		return
	}
	path, err := session.PathToNode(nodeID)
	if err != nil {
		s.mu.Unlock()
		log.Error().Err(err).Str("node_id", string(nodeID)).Msg("switch branch failed")
		return
	}
	tree.ReconcileHighlights(session, path)
	s.activePath = path
	s.currentNodeID = nodeID
	session.LastFocusedNodeID = nodeID
	session.Touch()
	s.persistLocked()
	sessionID := session.ID
	s.mu.Unlock()

	s.publish(events.New(events.EventTypePathSwitched).WithSession(sessionID).WithNode(nodeID))
}
