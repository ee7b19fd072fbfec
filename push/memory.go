package push

import (
	"context"
	"sync"
)

// In-memory device capabilities, for tests and headless harnesses.

// StaticTokenProvider returns a fixed device token.
type StaticTokenProvider string

func (p StaticTokenProvider) Token(context.Context) (string, error) {
	return string(p), nil
}

// StaticPermission answers every permission prompt with a fixed status.
type StaticPermission AuthorizationStatus

func (p StaticPermission) RequestPermission(context.Context) (AuthorizationStatus, error) {
	return AuthorizationStatus(p), nil
}

// MemorySource is a scriptable MessageSource: tests emit notifications on
// the channels a real provider would.
type MemorySource struct {
	mu      sync.Mutex
	nextID  uint64
	opened  map[uint64]func(*Notification)
	message map[uint64]func(*Notification)
	initial *Notification
}

func NewMemorySource() *MemorySource {
	return &MemorySource{
		opened:  make(map[uint64]func(*Notification)),
		message: make(map[uint64]func(*Notification)),
	}
}

// SetInitialNotification scripts the notification that "launched" the
// process.
func (s *MemorySource) SetInitialNotification(n *Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initial = n
}

func (s *MemorySource) InitialNotification(context.Context) (*Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.initial, nil
}

func (s *MemorySource) OnNotificationOpened(fn func(*Notification)) Subscription {
	return s.subscribe(s.opened, fn)
}

func (s *MemorySource) OnMessage(fn func(*Notification)) Subscription {
	return s.subscribe(s.message, fn)
}

func (s *MemorySource) subscribe(channel map[uint64]func(*Notification), fn func(*Notification)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	channel[id] = fn

	return &memorySubscription{
		cancel: func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(channel, id)
		},
	}
}

// EmitOpened simulates a notification tap while backgrounded.
func (s *MemorySource) EmitOpened(n *Notification) {
	for _, fn := range s.snapshot(s.opened) {
		fn(n)
	}
}

// EmitMessage simulates a foreground delivery.
func (s *MemorySource) EmitMessage(n *Notification) {
	for _, fn := range s.snapshot(s.message) {
		fn(n)
	}
}

func (s *MemorySource) snapshot(channel map[uint64]func(*Notification)) []func(*Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fns := make([]func(*Notification), 0, len(channel))
	for _, fn := range channel {
		fns = append(fns, fn)
	}
	return fns
}

type memorySubscription struct {
	once   sync.Once
	cancel func()
}

func (s *memorySubscription) Cancel() {
	s.once.Do(s.cancel)
}

// RecordingNavigator captures navigation intents for assertions.
type RecordingNavigator struct {
	mu      sync.Mutex
	Intents []NavigationIntent
}

type NavigationIntent struct {
	Target string
	Params map[string]string
}

func (n *RecordingNavigator) Navigate(target string, params map[string]string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.Intents = append(n.Intents, NavigationIntent{Target: target, Params: params})
}

// Recorded returns a copy of the captured intents.
func (n *RecordingNavigator) Recorded() []NavigationIntent {
	n.mu.Lock()
	defer n.mu.Unlock()

	intents := make([]NavigationIntent, len(n.Intents))
	copy(intents, n.Intents)
	return intents
}
