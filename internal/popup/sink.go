package popup

import (
	"sync"

	"codeberg.org/mutker/batterypanel/internal/device"
	tea "github.com/charmbracelet/bubbletea"
)

// Sender delivers messages to a running program. *tea.Program
// implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Sink is the tray and detail view sink the router writes to. It turns
// every call into a message for the popup program.
type Sink struct {
	mu     sync.Mutex
	sender Sender
	next   device.ViewRef
}

// NewSink creates a Sink. Messages are dropped until Bind is called.
func NewSink() *Sink {
	return &Sink{}
}

// Bind sets the program that receives the sink's messages.
func (s *Sink) Bind(sender Sender) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sender = sender
}

// SetIcon shows name in the popup header.
func (s *Sink) SetIcon(name string) {
	s.send(TrayIconMsg{Name: name})
}

// Attach allocates a row for the device.
func (s *Sink) Attach(id string) device.ViewRef {
	s.mu.Lock()
	s.next++
	ref := s.next
	s.mu.Unlock()

	s.send(AttachMsg{Ref: ref, ID: id})
	return ref
}

// Update refreshes a row.
func (s *Sink) Update(ref device.ViewRef, iconName, description string) {
	s.send(UpdateMsg{Ref: ref, Icon: iconName, Description: description})
}

// Detach removes a row.
func (s *Sink) Detach(ref device.ViewRef) {
	s.send(DetachMsg{Ref: ref})
}

func (s *Sink) send(msg tea.Msg) {
	s.mu.Lock()
	sender := s.sender
	s.mu.Unlock()

	if sender != nil {
		sender.Send(msg)
	}
}
