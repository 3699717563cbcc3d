package irisfast

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"
)

type MessageCallback func(message *Message)

type StateCallback func(state WebSocketState)

var errNotConnected = errors.New("ws not connected")

const (
	dialTimeout  = 10 * time.Second
	pingTimeout  = 3 * time.Second
	maxPingFails = 2
)

// WebSocket keeps one Iris event stream open, redialling with backoff after
// read or ping failures.
type WebSocket struct {
	url          string
	headers      HeaderProvider
	maxRedials   int
	redialDelay  time.Duration
	pingInterval time.Duration

	mu    sync.RWMutex
	conn  *websocket.Conn
	state WebSocketState

	writeM sync.Mutex

	cbM      sync.RWMutex
	nextCbID int
	onMsg    map[int]MessageCallback
	onState  map[int]StateCallback

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWebSocket returns a disconnected socket. maxRedials <= 0 disables
// automatic reconnection.
func NewWebSocket(url string, maxRedials int, redialDelay time.Duration) *WebSocket {
	ctx, cancel := context.WithCancel(context.Background())
	return &WebSocket{
		url:          url,
		maxRedials:   maxRedials,
		redialDelay:  redialDelay,
		pingInterval: 30 * time.Second,
		onMsg:        map[int]MessageCallback{},
		onState:      map[int]StateCallback{},
		ctx:          ctx,
		cancel:       cancel,
	}
}

// SetHeaderProvider sets headers sent with every handshake.
func (ws *WebSocket) SetHeaderProvider(h HeaderProvider) { ws.headers = h }

func (ws *WebSocket) State() WebSocketState {
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.state
}

func (ws *WebSocket) connected() bool {
	if ws == nil {
		return false
	}
	ws.mu.RLock()
	defer ws.mu.RUnlock()
	return ws.conn != nil && ws.state == WSStateConnected
}

// Connect dials once. On failure a background redial loop is started when
// redials are enabled and the dial error is returned.
func (ws *WebSocket) Connect(ctx context.Context) error {
	switch ws.State() {
	case WSStateConnected, WSStateConnecting, WSStateReconnecting:
		return nil
	}
	ws.setState(WSStateConnecting)
	if err := ws.dial(ctx); err != nil {
		ws.setState(WSStateFailed)
		ws.redial()
		return err
	}
	return nil
}

func (ws *WebSocket) dial(ctx context.Context) error {
	dctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.Dial(dctx, ws.url, &websocket.DialOptions{
		CompressionMode: websocket.CompressionNoContextTakeover,
		HTTPHeader:      ws.handshakeHeader(),
	})
	if err != nil {
		return err
	}

	ws.mu.Lock()
	ws.conn = conn
	ws.mu.Unlock()
	ws.setState(WSStateConnected)

	ws.wg.Add(2)
	go ws.readLoop(conn)
	go ws.pingLoop(conn)
	return nil
}

func (ws *WebSocket) redial() {
	if ws.maxRedials <= 0 || ws.ctx.Err() != nil {
		return
	}
	ws.setState(WSStateReconnecting)
	go func() {
		for attempt := 1; attempt <= ws.maxRedials; attempt++ {
			if sleepCtx(ws.ctx, ws.redialDelay+backoff(attempt)) != nil {
				return
			}
			if ws.dial(ws.ctx) == nil {
				return
			}
		}
		ws.setState(WSStateFailed)
	}()
}

// drop closes conn if it is still current and schedules a redial.
func (ws *WebSocket) drop(conn *websocket.Conn, reason string) {
	ws.mu.Lock()
	current := ws.conn == conn
	if current {
		ws.conn = nil
	}
	ws.mu.Unlock()
	if !current {
		return
	}
	_ = conn.Close(websocket.StatusGoingAway, reason)
	if ws.ctx.Err() != nil {
		return
	}
	ws.setState(WSStateDisconnected)
	ws.redial()
}

func (ws *WebSocket) readLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	for {
		var msg Message
		if err := wsjson.Read(ws.ctx, conn, &msg); err != nil {
			ws.drop(conn, "read failure")
			return
		}
		ws.cbM.RLock()
		cbs := make([]MessageCallback, 0, len(ws.onMsg))
		for _, cb := range ws.onMsg {
			cbs = append(cbs, cb)
		}
		ws.cbM.RUnlock()
		for _, cb := range cbs {
			cb(&msg)
		}
	}
}

func (ws *WebSocket) pingLoop(conn *websocket.Conn) {
	defer ws.wg.Done()
	t := time.NewTicker(ws.pingInterval)
	defer t.Stop()
	fails := 0
	for {
		select {
		case <-ws.ctx.Done():
			return
		case <-t.C:
		}
		ctx, cancel := context.WithTimeout(ws.ctx, pingTimeout)
		err := conn.Ping(ctx)
		cancel()
		if err == nil {
			fails = 0
			continue
		}
		if fails++; fails >= maxPingFails {
			ws.drop(conn, "ping failure")
			return
		}
	}
}

// Write sends v as one JSON frame on the current connection.
func (ws *WebSocket) Write(ctx context.Context, v any) error {
	ws.mu.RLock()
	conn := ws.conn
	ws.mu.RUnlock()
	if conn == nil || ws.State() != WSStateConnected {
		return errNotConnected
	}
	ws.writeM.Lock()
	defer ws.writeM.Unlock()
	return wsjson.Write(ctx, conn, v)
}

func (ws *WebSocket) OnMessage(cb MessageCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextCbID++
	ws.onMsg[ws.nextCbID] = cb
	return ws.nextCbID
}

func (ws *WebSocket) RemoveMessageCallback(id int) {
	ws.cbM.Lock()
	delete(ws.onMsg, id)
	ws.cbM.Unlock()
}

func (ws *WebSocket) OnStateChange(cb StateCallback) int {
	ws.cbM.Lock()
	defer ws.cbM.Unlock()
	ws.nextCbID++
	ws.onState[ws.nextCbID] = cb
	return ws.nextCbID
}

func (ws *WebSocket) RemoveStateCallback(id int) {
	ws.cbM.Lock()
	delete(ws.onState, id)
	ws.cbM.Unlock()
}

func (ws *WebSocket) setState(state WebSocketState) {
	ws.mu.Lock()
	changed := ws.state != state
	ws.state = state
	ws.mu.Unlock()
	if !changed {
		return
	}
	ws.cbM.RLock()
	cbs := make([]StateCallback, 0, len(ws.onState))
	for _, cb := range ws.onState {
		cbs = append(cbs, cb)
	}
	ws.cbM.RUnlock()
	for _, cb := range cbs {
		cb(state)
	}
}

// Close stops redialling, closes the connection and waits for the loops.
func (ws *WebSocket) Close(ctx context.Context) error {
	ws.cancel()
	ws.mu.Lock()
	conn := ws.conn
	ws.conn = nil
	ws.mu.Unlock()
	if conn != nil {
		_ = conn.Close(websocket.StatusNormalClosure, "close")
	}
	ws.setState(WSStateDisconnected)

	done := make(chan struct{})
	go func() {
		ws.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (ws *WebSocket) handshakeHeader() http.Header {
	hdr := http.Header{}
	if ws.headers == nil {
		return hdr
	}
	for k, v := range ws.headers() {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			hdr.Set(k, v)
		}
	}
	return hdr
}
