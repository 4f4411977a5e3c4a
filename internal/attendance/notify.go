package attendance

import "sync"

// noticeChannelBuffer is the per-listener buffer; slow listeners drop
// notices instead of blocking the flows that publish them.
const noticeChannelBuffer = 16

// NoticeType classifies a notice for the UI.
type NoticeType string

// Notice types surfaced to the kiosk UI.
const (
	NoticeVerified   NoticeType = "verified"   // verification succeeded, record appended
	NoticeUnverified NoticeType = "unverified" // backend answered but did not verify
	NoticeError      NoticeType = "error"      // device or transport failure, user retries
	NoticeCapacity   NoticeType = "capacity"   // pending image cap reached
	NoticeInfo       NoticeType = "info"       // registration outcome and similar
)

// Notice is a transient, user-visible notification from one of the flows.
type Notice struct {
	Type       NoticeType `json:"type"`
	Message    string     `json:"message"`
	SubjectID  string     `json:"subject_id,omitempty"`
	Confidence string     `json:"confidence,omitempty"` // percentage, one decimal
}

// Notifier fans notices out to any number of listeners. Sends never block:
// a listener whose buffer is full misses the notice.
type Notifier struct {
	mu        sync.RWMutex
	listeners []chan Notice
}

// NewNotifier creates a notifier with no listeners.
func NewNotifier() *Notifier {
	return &Notifier{}
}

// AddListener registers a new listener channel.
func (n *Notifier) AddListener() chan Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	ch := make(chan Notice, noticeChannelBuffer)
	n.listeners = append(n.listeners, ch)
	return ch
}

// RemoveListener unregisters and closes a listener channel.
func (n *Notifier) RemoveListener(ch chan Notice) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for i, listener := range n.listeners {
		if listener == ch {
			n.listeners = append(n.listeners[:i], n.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// Publish sends a notice to all listeners.
func (n *Notifier) Publish(notice Notice) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, listener := range n.listeners {
		select {
		case listener <- notice:
		default:
			// Listener buffer full, skip.
		}
	}
}
