package attendance

import (
	"context"
	"sync"
	"time"

	"github.com/Calendar-One/face-attendance-ui/internal/faceapi"
)

// fakeCamera implements Camera for flow tests.
type fakeCamera struct {
	mu         sync.Mutex
	active     bool
	starts     int
	stops      int
	frame      []byte
	startErr   error
	captureErr error
}

func (c *fakeCamera) Start(_ context.Context, _ string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.startErr != nil {
		return c.startErr
	}
	c.starts++
	c.active = true
	return nil
}

func (c *fakeCamera) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active {
		c.stops++
		c.active = false
	}
}

func (c *fakeCamera) WaitReady(_ context.Context) error { return nil }

func (c *fakeCamera) Capture() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.captureErr != nil {
		return nil, c.captureErr
	}
	if c.frame == nil {
		return nil, nil
	}
	frame := make([]byte, len(c.frame))
	copy(frame, c.frame)
	return frame, nil
}

func (c *fakeCamera) isActive() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

func (c *fakeCamera) stopCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stops
}

// fakeBackend implements Verifier and Registrar with scripted behavior.
type fakeBackend struct {
	mu sync.Mutex

	// Verify pops results in order; the last entry repeats once exhausted.
	verifyScript []verifyStep
	verifyCalls  int

	// registerFn decides the outcome of each Register call; nil means success.
	registerFn    func(call int, subjectID string, image []byte) error
	registerCalls int
}

type verifyStep struct {
	result *faceapi.VerificationResult
	err    error
}

func (b *fakeBackend) Verify(_ context.Context, _ []byte) (*faceapi.VerificationResult, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.verifyScript) == 0 {
		return &faceapi.VerificationResult{Verified: false, Message: "no script"}, nil
	}
	idx := b.verifyCalls
	if idx >= len(b.verifyScript) {
		idx = len(b.verifyScript) - 1
	}
	b.verifyCalls++
	step := b.verifyScript[idx]
	return step.result, step.err
}

func (b *fakeBackend) Register(_ context.Context, subjectID string, image []byte) error {
	b.mu.Lock()
	call := b.registerCalls
	b.registerCalls++
	fn := b.registerFn
	b.mu.Unlock()
	if fn == nil {
		return nil
	}
	return fn(call, subjectID, image)
}

func (b *fakeBackend) verifyCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.verifyCalls
}

// collectNotices drains published notices into a slice until the listener
// is removed.
type noticeCollector struct {
	notifier *Notifier
	ch       chan Notice

	mu      sync.Mutex
	notices []Notice
	done    chan struct{}
}

func newNoticeCollector(n *Notifier) *noticeCollector {
	c := &noticeCollector{
		notifier: n,
		ch:       n.AddListener(),
		done:     make(chan struct{}),
	}
	go func() {
		defer close(c.done)
		for notice := range c.ch {
			c.mu.Lock()
			c.notices = append(c.notices, notice)
			c.mu.Unlock()
		}
	}()
	return c
}

func (c *noticeCollector) stop() {
	c.notifier.RemoveListener(c.ch)
	<-c.done
}

func (c *noticeCollector) byType(t NoticeType) []Notice {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []Notice
	for _, n := range c.notices {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// waitFor polls a condition until it holds or the deadline passes.
func waitFor(timeout time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
