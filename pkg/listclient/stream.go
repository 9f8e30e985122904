package listclient

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	DefaultBaseDelay   = time.Second
	DefaultMaxAttempts = 5

	// maxFrameSize bounds one event record. Larger records are skipped and
	// logged; the stream itself stays up.
	maxFrameSize = 4 << 20
)

var (
	// ErrUnauthorized is returned by a connection attempt rejected with 401 or 403.
	ErrUnauthorized = errors.New("stream rejected: unauthorized")
	errStreamEnded  = errors.New("stream ended")
)

// State is the lifecycle of one list subscription.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateStreaming
	StateReconnecting
	StateDisconnected
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateReconnecting:
		return "reconnecting"
	case StateDisconnected:
		return "disconnected"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Callback receives every decoded event for a list.
type Callback func(Event)

type timer interface {
	Stop() bool
}

type afterFunc func(d time.Duration, f func()) timer

// StreamClient keeps one SSE connection per subscribed list, shared by all
// callbacks for that list, and reconnects with exponential backoff.
type StreamClient struct {
	baseURL     string
	http        *http.Client
	token       TokenSource
	baseDelay   time.Duration
	maxAttempts int
	stopOnAuth  bool
	logger      *slog.Logger
	after       afterFunc
	frameLimit  int

	mu       sync.Mutex
	sessions map[uint]*session
	nextID   uint64
}

type session struct {
	listID     uint
	callbacks  map[uint64]Callback
	cancel     context.CancelFunc
	timer      timer
	attempts   int
	generation uint64
	state      State
}

type StreamOption func(*StreamClient)

func WithBaseDelay(d time.Duration) StreamOption {
	return func(c *StreamClient) { c.baseDelay = d }
}

func WithMaxAttempts(n int) StreamOption {
	return func(c *StreamClient) { c.maxAttempts = n }
}

// WithStopOnAuthFailure makes a 401/403 response end the subscription instead
// of entering the backoff path.
func WithStopOnAuthFailure(stop bool) StreamOption {
	return func(c *StreamClient) { c.stopOnAuth = stop }
}

func WithStreamToken(ts TokenSource) StreamOption {
	return func(c *StreamClient) { c.token = ts }
}

func WithStreamHTTPClient(hc *http.Client) StreamOption {
	return func(c *StreamClient) { c.http = hc }
}

func WithLogger(logger *slog.Logger) StreamOption {
	return func(c *StreamClient) { c.logger = logger }
}

func NewStreamClient(baseURL string, opts ...StreamOption) *StreamClient {
	c := &StreamClient{
		baseURL:     strings.TrimRight(baseURL, "/"),
		http:        &http.Client{},
		token:       StaticToken(""),
		baseDelay:   DefaultBaseDelay,
		maxAttempts: DefaultMaxAttempts,
		logger:      slog.Default(),
		after: func(d time.Duration, f func()) timer {
			return time.AfterFunc(d, f)
		},
		frameLimit: maxFrameSize,
		sessions:   make(map[uint]*session),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe registers cb for listID and opens the list's stream if none is
// live. The returned function removes cb; it is safe to call more than once.
func (c *StreamClient) Subscribe(listID uint, cb Callback) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[listID]
	if !ok {
		s = &session{listID: listID, callbacks: make(map[uint64]Callback), state: StateIdle}
		c.sessions[listID] = s
	}
	c.nextID++
	id := c.nextID
	s.callbacks[id] = cb

	if s.state == StateIdle || s.state == StateDisconnected {
		s.attempts = 0
		c.connectLocked(s)
	}

	return func() { c.unsubscribe(listID, id) }
}

func (c *StreamClient) unsubscribe(listID uint, id uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[listID]
	if !ok {
		return
	}
	if _, ok := s.callbacks[id]; !ok {
		return
	}
	delete(s.callbacks, id)
	if len(s.callbacks) == 0 {
		c.teardownLocked(s)
	}
}

// Close tears down every subscription.
func (c *StreamClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, s := range c.sessions {
		clear(s.callbacks)
		c.teardownLocked(s)
	}
}

// State returns the subscription state for listID.
func (c *StreamClient) State(listID uint) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[listID]; ok {
		return s.state
	}
	return StateDisconnected
}

// Attempts returns the current reconnect counter for listID.
func (c *StreamClient) Attempts(listID uint) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if s, ok := c.sessions[listID]; ok {
		return s.attempts
	}
	return 0
}

func (c *StreamClient) teardownLocked(s *session) {
	s.generation++
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.attempts = 0
	s.state = StateDisconnected
	delete(c.sessions, s.listID)
}

func (c *StreamClient) connectLocked(s *session) {
	if s.cancel != nil {
		s.cancel()
	}
	s.timer = nil
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = StateConnecting
	go c.run(ctx, s, gen)
}

// current reports whether gen is still the live connection of s. Callers hold c.mu.
func (c *StreamClient) current(s *session, gen uint64) bool {
	return s.generation == gen && c.sessions[s.listID] == s
}

func (c *StreamClient) run(ctx context.Context, s *session, gen uint64) {
	err := c.stream(ctx, s, gen)
	if ctx.Err() != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.current(s, gen) || len(s.callbacks) == 0 {
		return
	}

	if errors.Is(err, ErrUnauthorized) && c.stopOnAuth {
		c.logger.Warn("List stream rejected, not reconnecting", "list_id", s.listID, "error", err)
		s.state = StateDisconnected
		return
	}
	if s.attempts >= c.maxAttempts {
		c.logger.Error("List stream gave up reconnecting", "list_id", s.listID, "attempts", s.attempts, "error", err)
		s.state = StateDisconnected
		return
	}

	delay := c.baseDelay << s.attempts
	s.attempts++
	s.state = StateReconnecting
	c.logger.Info("List stream reconnecting", "list_id", s.listID, "attempt", s.attempts, "delay", delay, "error", err)

	s.timer = c.after(delay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if !c.current(s, gen) || len(s.callbacks) == 0 {
			return
		}
		c.connectLocked(s)
	})
}

func (c *StreamClient) stream(ctx context.Context, s *session, gen uint64) error {
	url := fmt.Sprintf("%s/api/v1/lists/%d/events", c.baseURL, s.listID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	token, err := c.token(ctx)
	if err != nil {
		return fmt.Errorf("get token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrUnauthorized, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	c.mu.Lock()
	if !c.current(s, gen) {
		c.mu.Unlock()
		return nil
	}
	s.state = StateStreaming
	c.mu.Unlock()

	splitter := &recordSplitter{limit: c.frameLimit, onDrop: func(size int) {
		c.logger.Warn("Dropping oversized stream frame", "list_id", s.listID, "bytes", size, "limit", c.frameLimit)
	}}
	scanner := bufio.NewScanner(resp.Body)
	// Twice the limit: the splitter skips ahead before the scanner could fill it.
	scanner.Buffer(make([]byte, 0, 4096), 2*c.frameLimit+4096)
	scanner.Split(splitter.split)
	for scanner.Scan() {
		data, ok := recordData(scanner.Bytes())
		if !ok {
			continue
		}
		var ev Event
		if err := json.Unmarshal(data, &ev); err != nil {
			c.logger.Warn("Dropping malformed stream frame", "list_id", s.listID, "error", err)
			continue
		}
		ev.Raw = append(json.RawMessage(nil), data...)
		c.deliver(s, gen, ev)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	return errStreamEnded
}

func (c *StreamClient) deliver(s *session, gen uint64, ev Event) {
	c.mu.Lock()
	if !c.current(s, gen) {
		c.mu.Unlock()
		return
	}
	s.attempts = 0
	callbacks := make([]Callback, 0, len(s.callbacks))
	for _, cb := range s.callbacks {
		callbacks = append(callbacks, cb)
	}
	c.mu.Unlock()

	for _, cb := range callbacks {
		cb(ev)
	}
}

// recordSplitter splits an event stream on blank lines. A record longer than
// limit is consumed without being returned and reported through onDrop.
type recordSplitter struct {
	limit    int
	onDrop   func(size int)
	skipping bool
	skipped  int
}

// delimiterTail is how many trailing bytes to keep while skipping so a
// delimiter split across reads is still found.
const delimiterTail = 3

func (sp *recordSplitter) split(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		if sp.skipping {
			sp.drop(0)
		}
		return 0, nil, nil
	}
	end, next := recordEnd(data)

	if sp.skipping {
		switch {
		case end >= 0:
			sp.drop(end)
			// Empty token so the scanner looks at what follows before reading again.
			return next, data[:0], nil
		case atEOF:
			sp.drop(len(data))
			return len(data), nil, nil
		case len(data) > delimiterTail:
			n := len(data) - delimiterTail
			sp.skipped += n
			return n, nil, nil
		}
		return 0, nil, nil
	}

	if end >= 0 {
		if end > sp.limit {
			sp.skipped = 0
			sp.drop(end)
			return next, data[:0], nil
		}
		return next, data[:end], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	if len(data) > sp.limit {
		sp.skipping = true
		n := len(data) - delimiterTail
		sp.skipped = n
		return n, nil, nil
	}
	return 0, nil, nil
}

func (sp *recordSplitter) drop(rest int) {
	size := sp.skipped + rest
	sp.skipping = false
	sp.skipped = 0
	if sp.onDrop != nil {
		sp.onDrop(size)
	}
}

// recordEnd returns the length of the first record in data and the offset just
// past its delimiter, or -1 when no delimiter is buffered yet.
func recordEnd(data []byte) (end, next int) {
	lf := bytes.Index(data, []byte("\n\n"))
	crlf := bytes.Index(data, []byte("\r\n\r\n"))
	switch {
	case lf >= 0 && (crlf < 0 || lf < crlf):
		return lf, lf + 2
	case crlf >= 0:
		return crlf, crlf + 4
	}
	return -1, -1
}

// recordData joins the data lines of one record. Comment-only records report false.
func recordData(record []byte) ([]byte, bool) {
	var out []byte
	found := false
	for _, line := range bytes.Split(record, []byte("\n")) {
		line = bytes.TrimRight(line, "\r")
		value, ok := bytes.CutPrefix(line, []byte("data:"))
		if !ok {
			continue
		}
		if found {
			out = append(out, '\n')
		}
		out = append(out, bytes.TrimPrefix(value, []byte(" "))...)
		found = true
	}
	return out, found && len(out) > 0
}
