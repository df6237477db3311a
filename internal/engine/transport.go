package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// ErrShutdown is returned by calls issued after the transport closed, and to
// callers still waiting when it closes.
var ErrShutdown = errors.New("versoview transport is shut down")

// Transport handles JSON-RPC 2.0 communication with a versoview instance
// over its stdio pipes, framed with Content-Length headers.
type Transport struct {
	reader *bufio.Reader
	writer io.Writer

	mu            sync.Mutex
	nextID        atomic.Int64
	pending       map[int64]chan *response
	notifications map[string]NotificationHandler
	requests      map[string]RequestHandler

	closed atomic.Bool
	done   chan struct{}

	logger zerolog.Logger
}

// NotificationHandler handles a notification sent by the engine.
type NotificationHandler func(params json.RawMessage)

// RequestHandler handles a request sent by the engine and returns the value
// to reply with. A returned error becomes a JSON-RPC error reply.
type RequestHandler func(params json.RawMessage) (any, error)

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id,omitempty"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is an error reply from the engine.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("versoview error %d: %s", e.Code, e.Message)
}

// NewTransport creates a transport over the engine's stdout/stdin pipes.
func NewTransport(r io.Reader, w io.Writer, logger zerolog.Logger) *Transport {
	return &Transport{
		reader:        bufio.NewReaderSize(r, 64*1024),
		writer:        w,
		pending:       make(map[int64]chan *response),
		notifications: make(map[string]NotificationHandler),
		requests:      make(map[string]RequestHandler),
		done:          make(chan struct{}),
		logger:        logger,
	}
}

// ReadLoop reads and dispatches messages until the transport closes, the
// context is canceled, or the pipe reaches EOF. It is meant to run on its
// own goroutine for the lifetime of the engine process.
func (t *Transport) ReadLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.done:
			return nil
		default:
		}

		msg, err := t.readMessage()
		if err != nil {
			if t.closed.Load() || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			t.logger.Error().Err(err).Msg("failed to read versoview message")
			continue
		}

		t.dispatch(msg)
	}
}

// Close closes the transport. Pending callers fail with ErrShutdown.
func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}

	close(t.done)

	// Clear the pending map without closing the channels so that
	// handleResponse cannot race a send on a closed channel. Waiters
	// observe t.done instead.
	t.mu.Lock()
	t.pending = make(map[int64]chan *response)
	t.mu.Unlock()

	return nil
}

// IsClosed reports whether the transport has been closed.
func (t *Transport) IsClosed() bool {
	return t.closed.Load()
}

// Pending returns the number of outbound calls still awaiting a reply.
func (t *Transport) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.pending)
}

// Call sends a request and blocks until the engine replies, the context is
// canceled, or the transport shuts down.
func (t *Transport) Call(ctx context.Context, method string, params any, result any) error {
	if t.closed.Load() {
		return ErrShutdown
	}

	id := t.nextID.Add(1)
	ch := make(chan *response, 1)

	t.mu.Lock()
	t.pending[id] = ch
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		delete(t.pending, id)
		t.mu.Unlock()
	}()

	req := &request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	}
	if err := t.send(req); err != nil {
		return fmt.Errorf("failed to send %s request: %w", method, err)
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.done:
		return ErrShutdown
	case resp := <-ch:
		if resp.Error != nil {
			return resp.Error
		}
		if result != nil && len(resp.Result) > 0 {
			if err := json.Unmarshal(resp.Result, result); err != nil {
				return fmt.Errorf("failed to unmarshal %s result: %w", method, err)
			}
		}
		return nil
	}
}

// Notify sends a notification. No reply is expected.
func (t *Transport) Notify(method string, params any) error {
	if t.closed.Load() {
		return ErrShutdown
	}

	return t.send(&request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	})
}

// OnNotification registers a handler for a notification from the engine.
func (t *Transport) OnNotification(method string, handler NotificationHandler) {
	t.mu.Lock()
	t.notifications[method] = handler
	t.mu.Unlock()
}

// OnRequest registers a handler for a request from the engine. The handler's
// return value is sent back as the reply.
func (t *Transport) OnRequest(method string, handler RequestHandler) {
	t.mu.Lock()
	t.requests[method] = handler
	t.mu.Unlock()
}

// send writes one framed message.
func (t *Transport) send(msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	header := fmt.Sprintf("Content-Length: %d\r\n\r\n", len(data))

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, err := io.WriteString(t.writer, header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := t.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write body: %w", err)
	}
	return nil
}

// readMessage reads one framed message.
func (t *Transport) readMessage() (json.RawMessage, error) {
	var contentLength int
	for {
		line, err := t.reader.ReadString('\n')
		if err != nil {
			return nil, err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			break
		}
		if strings.HasPrefix(strings.ToLower(line), "content-length:") {
			parts := strings.SplitN(line, ":", 2)
			if len(parts) == 2 {
				if length, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
					contentLength = length
				}
			}
		}
	}

	if contentLength == 0 {
		return nil, errors.New("missing Content-Length header")
	}

	body := make([]byte, contentLength)
	if _, err := io.ReadFull(t.reader, body); err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// dispatch routes one inbound message: a reply to a pending call, a request
// from the engine, or a notification.
func (t *Transport) dispatch(data json.RawMessage) {
	id := gjson.GetBytes(data, "id")
	method := gjson.GetBytes(data, "method")

	switch {
	case id.Exists() && !method.Exists():
		var resp response
		if err := json.Unmarshal(data, &resp); err != nil {
			t.logger.Error().Err(err).Msg("malformed versoview reply")
			return
		}
		t.handleResponse(&resp)
	case id.Exists() && method.Exists():
		t.handleRequest(id.Int(), method.String(), []byte(gjson.GetBytes(data, "params").Raw))
	case method.Exists():
		t.handleNotification(method.String(), []byte(gjson.GetBytes(data, "params").Raw))
	}
}

func (t *Transport) handleResponse(resp *response) {
	if t.closed.Load() {
		return
	}

	t.mu.Lock()
	ch, ok := t.pending[resp.ID]
	if ok {
		delete(t.pending, resp.ID)
	}
	t.mu.Unlock()

	if ok {
		select {
		case ch <- resp:
		default:
		}
	}
}

func (t *Transport) handleRequest(id int64, method string, params json.RawMessage) {
	t.mu.Lock()
	handler, ok := t.requests[method]
	t.mu.Unlock()

	if !ok {
		t.reply(id, nil, &RPCError{Code: -32601, Message: "method not found: " + method})
		return
	}

	// Handlers may block on the event loop, so they run off the read loop.
	go func() {
		result, err := handler(params)
		if err != nil {
			t.reply(id, nil, &RPCError{Code: -32000, Message: err.Error()})
			return
		}
		t.reply(id, result, nil)
	}()
}

func (t *Transport) reply(id int64, result any, rpcErr *RPCError) {
	msg := struct {
		JSONRPC string    `json:"jsonrpc"`
		ID      int64     `json:"id"`
		Result  any       `json:"result,omitempty"`
		Error   *RPCError `json:"error,omitempty"`
	}{JSONRPC: "2.0", ID: id, Result: result, Error: rpcErr}

	if err := t.send(&msg); err != nil && !t.closed.Load() {
		t.logger.Error().Err(err).Int64("id", id).Msg("failed to reply to versoview request")
	}
}

func (t *Transport) handleNotification(method string, params json.RawMessage) {
	t.mu.Lock()
	handler, ok := t.notifications[method]
	t.mu.Unlock()

	if ok && handler != nil {
		// Run off the read loop so a handler that dispatches back to the
		// event loop cannot stall reads.
		go handler(params)
	}
}
