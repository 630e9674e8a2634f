// Package watch turns the client's live updates into a printable event stream.
package watch

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/dyluth/canboard/internal/entities"
	"github.com/dyluth/canboard/pkg/canboard"
)

// OutputFormat selects how events are written.
type OutputFormat string

const (
	OutputFormatDefault OutputFormat = "default"
	OutputFormatJSONL   OutputFormat = "jsonl"
)

// ParseOutputFormat accepts "default" and "jsonl".
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(s) {
	case OutputFormatDefault, OutputFormatJSONL:
		return OutputFormat(s), nil
	}
	return "", fmt.Errorf("unknown output format: %s", s)
}

// Event sources.
const (
	SourceSidebar = "sidebar"
	SourceHistory = "history"
	SourceModify  = "modify"
)

// Event is one line of watch output.
type Event struct {
	Time   time.Time `json:"time"`
	Source string    `json:"source"`
	// Type is the sidebar event type or the entity kind of a modify event.
	Type string `json:"type,omitempty"`
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
	Data any    `json:"data,omitempty"`
}

// SidebarEvent describes an applied sidebar event.
func SidebarEvent(ev canboard.SidebarEvent, at time.Time) Event {
	e := Event{Time: at, Source: SourceSidebar, Type: string(ev.Type)}
	switch {
	case ev.UpdateName != nil:
		e.ID, e.Name = ev.UpdateName.UpdatedID, ev.UpdateName.Name
	case ev.Add != nil:
		e.ID, e.Name = ev.Add.AddedItem.ID, ev.Add.AddedItem.Name
		e.Data = ev.Add.AddedItem
	case ev.Delete != nil:
		e.ID = ev.Delete.DeletedID
	}
	return e
}

// HistoryEvent describes a new history.
func HistoryEvent(h canboard.History, at time.Time) Event {
	return Event{Time: at, Source: SourceHistory, Type: canboard.EventHistoryChange, Data: h}
}

// ModifyEvent describes a pushed entity snapshot.
func ModifyEvent(m entities.Modified, at time.Time) Event {
	return Event{
		Time:   at,
		Source: SourceModify,
		Type:   string(m.Kind),
		ID:     m.Entity.EntityID(),
		Name:   entityName(m.Entity),
		Data:   m.Entity,
	}
}

// entityName reads the name every entity carries in its base fields.
func entityName(e canboard.Entity) string {
	data, err := json.Marshal(e)
	if err != nil {
		return ""
	}
	var base struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &base); err != nil {
		return ""
	}
	return base.Name
}

// FormatDefault renders ev as one human-readable line without a newline.
func FormatDefault(ev Event) string {
	ts := ev.Time.Format("15:04:05")
	switch ev.Source {
	case SourceSidebar:
		switch canboard.SidebarEventType(ev.Type) {
		case canboard.EventSidebarLoad:
			return fmt.Sprintf("[%s] 🌲 Sidebar reloaded", ts)
		case canboard.EventSidebarUpdateName:
			return fmt.Sprintf("[%s] ✏️  Renamed: %s → %q", ts, ev.ID, ev.Name)
		case canboard.EventSidebarAdd:
			kind := ""
			if item, ok := ev.Data.(canboard.SidebarItem); ok {
				kind = string(item.Kind) + " "
			}
			return fmt.Sprintf("[%s] ➕ Added: %s%s %q", ts, kind, ev.ID, ev.Name)
		case canboard.EventSidebarDelete:
			return fmt.Sprintf("[%s] 🗑️  Deleted: %s", ts, ev.ID)
		}
	case SourceHistory:
		if h, ok := ev.Data.(canboard.History); ok {
			saved := "unsaved"
			if h.Saved {
				saved = "saved"
			}
			return fmt.Sprintf("[%s] 📜 History: %d operations, at %d (%s)", ts, h.OperationCount, h.CurrentIndex, saved)
		}
	case SourceModify:
		return fmt.Sprintf("[%s] 🔄 Modified %s: %s %q", ts, ev.Type, ev.ID, ev.Name)
	}
	return fmt.Sprintf("[%s] %s %s %s", ts, ev.Source, ev.Type, ev.ID)
}

// Writer serializes events from concurrent observers onto one io.Writer.
type Writer struct {
	mu     sync.Mutex
	out    io.Writer
	format OutputFormat
}

// NewWriter writes events to out in format.
func NewWriter(out io.Writer, format OutputFormat) *Writer {
	return &Writer{out: out, format: format}
}

// Write prints one event.
func (w *Writer) Write(ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.format == OutputFormatJSONL {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event to JSON: %w", err)
		}
		if _, err := fmt.Fprintf(w.out, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
		return nil
	}

	if _, err := fmt.Fprintln(w.out, FormatDefault(ev)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Sources are the live components whose changes are watched.
type Sources interface {
	OnSidebarChange(fn func(canboard.SidebarEvent)) (cancel func())
	OnHistoryChange(fn func(canboard.History)) (cancel func())
	OnModify(fn func(entities.Modified)) (cancel func())
}

// Attach writes every change of src to w until the returned function is
// called. Write errors are passed to onError, which may be nil.
func Attach(w *Writer, src Sources, onError func(error)) (cancel func()) {
	write := func(ev Event) {
		if err := w.Write(ev); err != nil && onError != nil {
			onError(err)
		}
	}

	cancels := []func(){
		src.OnSidebarChange(func(ev canboard.SidebarEvent) { write(SidebarEvent(ev, time.Now())) }),
		src.OnHistoryChange(func(h canboard.History) { write(HistoryEvent(h, time.Now())) }),
		src.OnModify(func(m entities.Modified) { write(ModifyEvent(m, time.Now())) }),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}
