// Package selection holds the single current selection of an editing
// session and notifies subscribers synchronously when it changes.
package selection

import (
	"encoding/json"
	"fmt"
	"sync"
)

type Kind int

const (
	KindNone Kind = iota
	KindTrack
	KindElement
)

func (k Kind) String() string {
	switch k {
	case KindTrack:
		return "track"
	case KindElement:
		return "element"
	default:
		return "none"
	}
}

// Selection references an entity by id.
type Selection struct {
	Kind Kind
	ID   string
}

var None = Selection{}

func Track(id string) Selection {
	return Selection{Kind: KindTrack, ID: id}
}

func Element(id string) Selection {
	return Selection{Kind: KindElement, ID: id}
}

func (s Selection) IsNone() bool {
	return s.Kind == KindNone
}

func (s Selection) String() string {
	if s.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

type selectionDoc struct {
	Kind string `json:"kind"`
	ID   string `json:"id,omitempty"`
}

func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(selectionDoc{Kind: s.Kind.String(), ID: s.ID})
}

func (s *Selection) UnmarshalJSON(data []byte) error {
	var doc selectionDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	switch doc.Kind {
	case "", "none":
		*s = None
	case "track":
		*s = Track(doc.ID)
	case "element":
		*s = Element(doc.ID)
	default:
		return fmt.Errorf("unknown selection kind %q", doc.Kind)
	}
	if !s.IsNone() && s.ID == "" {
		return fmt.Errorf("selection of kind %q requires an id", doc.Kind)
	}
	return nil
}

// Manager holds exactly one selection. Subscribers run in subscription order
// on the calling goroutine before Select returns.
type Manager struct {
	mu          sync.Mutex
	current     Selection
	nextID      int
	subscribers []subscriber
}

type subscriber struct {
	id int
	fn func(Selection)
}

func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) Current() Selection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Select replaces the selection. Selecting the current value again does not
// notify.
func (m *Manager) Select(s Selection) {
	m.mu.Lock()
	if s == m.current {
		m.mu.Unlock()
		return
	}
	m.current = s
	subs := append([]subscriber(nil), m.subscribers...)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.fn(s)
	}
}

func (m *Manager) SelectTrack(id string) {
	m.Select(Track(id))
}

func (m *Manager) SelectElement(id string) {
	m.Select(Element(id))
}

func (m *Manager) Clear() {
	m.Select(None)
}

// ClearIf clears the selection when pred reports true for it and returns
// whether it did.
func (m *Manager) ClearIf(pred func(Selection) bool) bool {
	cur := m.Current()
	if cur.IsNone() || !pred(cur) {
		return false
	}
	m.Clear()
	return true
}

// Subscribe registers fn and returns a function that removes it.
func (m *Manager) Subscribe(fn func(Selection)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := m.nextID
	m.subscribers = append(m.subscribers, subscriber{id: id, fn: fn})
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.subscribers {
			if sub.id == id {
				m.subscribers = append(m.subscribers[:i:i], m.subscribers[i+1:]...)
				return
			}
		}
	}
}
