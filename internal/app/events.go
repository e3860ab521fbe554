package app

// EventType identifies different session events.
type EventType int

const (
	EventStackChanged     EventType = iota // records added, removed, reordered or edited
	EventSelectionChanged                  // data: stack.Selection
	EventHistoryChanged                    // undo or redo availability may have changed
	EventStatus                            // data: string
	EventImageLoaded                       // data: int index of the new record
	EventOverlayChanged                    // drawing or text elements changed
	EventTextRequested                     // data: image.Point where the text tool was pressed
	EventToolChanged                       // data: Tool
)

// EventListener is a callback for session events.
type EventListener func(data interface{})

// On registers a listener for an event type.
func (s *Session) On(event EventType, listener EventListener) {
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *Session) Emit(event EventType, data interface{}) {
	for _, l := range s.listeners[event] {
		l(data)
	}
}
