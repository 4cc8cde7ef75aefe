package store

import (
	"time"

	"github.com/go-go-golems/arbor/pkg/tree"
	"github.com/huandu/go-clone"
)

// View is the read surface handed to a display layer: everything needed to
// render the workspace without tree algorithms of its own. The session is
// a deep clone, so the caller can hold it across further store mutations.
type View struct {
	Session       *tree.Session
	Columns       []tree.Column
	ActivePath    []tree.NodeID
	CurrentNodeID tree.NodeID
	Pending       map[tree.NodeID]PendingTurn
}

// SessionInfo is one row of the session list.
type SessionInfo struct {
	ID        tree.SessionID
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Active    bool
}

// View snapshots the active session and focus state.
func (s *Store) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := &View{
		ActivePath:    append([]tree.NodeID(nil), s.activePath...),
		CurrentNodeID: s.currentNodeID,
		Pending:       map[tree.NodeID]PendingTurn{},
	}
	if session := s.activeSessionLocked(); session != nil {
		cloned := clone.Clone(session).(*tree.Session)
		v.Session = cloned
		v.Columns = cloned.Columns()
	}
	for nodeID, pt := range s.pending.turns {
		v.Pending[nodeID] = *pt
	}
	return v
}

// Sessions lists every session in creation order.
func (s *Store) Sessions() []SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]SessionInfo, 0, len(s.sessionOrder))
	for _, id := range s.sessionOrder {
		session := s.sessions[id]
		if session == nil {
			continue
		}
		out = append(out, SessionInfo{
			ID:        session.ID,
			Title:     session.Title,
			CreatedAt: session.CreatedAt,
			UpdatedAt: session.UpdatedAt,
			Active:    id == s.activeSessionID,
		})
	}
	return out
}

// ActiveSessionID returns the current active session id, empty when none.
func (s *Store) ActiveSessionID() tree.SessionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeSessionID
}

// ActivePath returns a copy of the current active path.
func (s *Store) ActivePath() []tree.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]tree.NodeID(nil), s.activePath...)
}

// CurrentNodeID returns the node the UI is currently positioned on.
func (s *Store) CurrentNodeID() tree.NodeID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentNodeID
}
