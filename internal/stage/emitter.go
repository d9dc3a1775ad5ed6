package stage

import (
	"fmt"
	"io"
)

// EventType names a progress event.
type EventType string

const (
	EventStart    EventType = "start"
	EventLLM      EventType = "llm"
	EventFallback EventType = "fallback"
	EventDone     EventType = "done"
)

// Event is a single progress update from a stage run.
type Event struct {
	Type    EventType `json:"type"`
	Stage   string    `json:"stage"`
	QueryID string    `json:"query_id"`
	Message string    `json:"message,omitempty"` // fallback cause
	Outcome *Outcome  `json:"outcome,omitempty"` // set on done
}

// Emitter receives progress events while stages run.
type Emitter interface {
	Emit(event Event)
}

// TextEmitter formats progress events as plain text lines.
type TextEmitter struct {
	W io.Writer
}

// Emit writes a formatted progress line to the underlying writer.
func (e *TextEmitter) Emit(ev Event) {
	switch ev.Type {
	case EventStart:
		fmt.Fprintf(e.W, "[%s] %s: started\n", ev.Stage, ev.QueryID)
	case EventLLM:
		fmt.Fprintf(e.W, "[%s] %s: calling model\n", ev.Stage, ev.QueryID)
	case EventFallback:
		fmt.Fprintf(e.W, "[%s] %s: model output unusable (%s), using fallback\n", ev.Stage, ev.QueryID, ev.Message)
	case EventDone:
		if ev.Outcome != nil {
			fmt.Fprintf(e.W, "[%s] %s: done via %s. %s Output: %s\n",
				ev.Stage, ev.QueryID, ev.Outcome.Source, ev.Outcome.Summary, ev.Outcome.Path)
		}
	}
}

type discard struct{}

func (discard) Emit(Event) {}
