package input

import "sync"

// Event is one recorded driver action.
type Event struct {
	Kind string // "type", "paste", "select_all", "tap", "click"
	Text string // typed or pasted text, or the tapped key
	X, Y int    // click target
}

// Recorder is a Driver for tests: it records every action instead of
// touching the host. The pointer position is settable so failsafe behavior
// can be driven from a test.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	posX   int
	posY   int
	width  int
	height int

	// Err, when set, is returned by every write method.
	Err error
}

func NewRecorder() *Recorder {
	return &Recorder{posX: 500, posY: 500, width: 1920, height: 1080}
}

func (r *Recorder) record(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, e)
	return nil
}

func (r *Recorder) TypeText(text string) error {
	return r.record(Event{Kind: "type", Text: text})
}

func (r *Recorder) Paste(text string) error {
	return r.record(Event{Kind: "paste", Text: text})
}

func (r *Recorder) SelectAll() error {
	return r.record(Event{Kind: "select_all"})
}

func (r *Recorder) TapKey(key string) error {
	return r.record(Event{Kind: "tap", Text: key})
}

func (r *Recorder) Click(x, y int) error {
	return r.record(Event{Kind: "click", X: x, Y: y})
}

func (r *Recorder) PointerPosition() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.posX, r.posY
}

func (r *Recorder) ScreenSize() (int, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.width, r.height
}

// SetPointer moves the fake pointer.
func (r *Recorder) SetPointer(x, y int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.posX, r.posY = x, y
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Keys returns just the tapped key names, in order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var keys []string
	for _, e := range r.events {
		if e.Kind == "tap" {
			keys = append(keys, e.Text)
		}
	}
	return keys
}
