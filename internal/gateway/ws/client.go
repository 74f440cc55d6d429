// Package ws implements the broker gateway over a websocket bridge. Order
// flow goes out as JSON frames; ticks, status updates and connectivity
// changes come back and are translated onto the engine inbox.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"trader_go/internal/domain"
	"trader_go/internal/event"
	"trader_go/internal/infra"

	"github.com/gorilla/websocket"
)

const (
	maxRetries       = 10
	handshakeTimeout = 10 * time.Second
	readTimeout      = 60 * time.Second
	pingInterval     = 30 * time.Second
)

// Client maintains the websocket connection to the brokerage bridge.
type Client struct {
	url     string
	account string
	inbox   chan<- event.Event

	conn      *websocket.Conn
	mu        sync.RWMutex
	writeMu   sync.Mutex
	connected bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewClient creates a gateway client delivering events into the engine inbox.
func NewClient(url, account string, inbox chan<- event.Event) *Client {
	return &Client{
		url:     url,
		account: account,
		inbox:   inbox,
	}
}

// Connect starts the connection loop with reconnect backoff.
func (c *Client) Connect(ctx context.Context) error {
	ctx, c.cancel = context.WithCancel(ctx)
	c.wg.Add(1)
	go c.connectionLoop(ctx)
	return nil
}

// Disconnect stops the connection loop and closes the socket.
func (c *Client) Disconnect() {
	if c.cancel != nil {
		c.cancel()
	}
	c.closeConnection()
	c.wg.Wait()
}

// IsConnected reports whether the bridge socket is up.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

func (c *Client) connectionLoop(ctx context.Context) {
	defer c.wg.Done()
	retryCount := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := c.connect(ctx); err != nil {
			if !domain.IsRetriable(err) {
				slog.Error("Bridge connection failed permanently", slog.Any("error", err))
				return
			}
			slog.Warn("Bridge connection failed",
				slog.Any("error", err), slog.Int("retry", retryCount))
			delay := infra.CalculateBackoff(retryCount)
			retryCount++
			if retryCount > maxRetries {
				retryCount = 0
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
				continue
			}
		} else {
			retryCount = 0
			if err := c.readLoop(ctx); err != nil && !domain.IsRetriable(err) {
				slog.Error("Bridge rejected the session", slog.Any("error", err))
				return
			}
		}
	}
}

func (c *Client) connect(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, c.url, http.Header{})
	if err != nil {
		return domain.NewNetworkError("dial", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.connected = true
	c.mu.Unlock()

	if err := c.writeFrame(&outboundFrame{Type: frameSubscribe, Account: c.account}); err != nil {
		c.closeConnection()
		return err
	}

	slog.Info("Bridge connected", slog.String("url", c.url))
	c.sendConnection(true)
	return nil
}

func (c *Client) readLoop(ctx context.Context) error {
	defer func() {
		c.closeConnection()
		c.sendConnection(false)
	}()

	pingTicker := time.NewTicker(pingInterval)
	defer pingTicker.Stop()

	// The ping writer exits with the session. Once the ticker is stopped its
	// channel never fires again, so the writer is released explicitly.
	done := make(chan struct{})
	defer close(done)

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-pingTicker.C:
				c.writeMu.Lock()
				conn := c.currentConn()
				if conn == nil {
					c.writeMu.Unlock()
					return
				}
				err := conn.WriteMessage(websocket.PingMessage, nil)
				c.writeMu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		conn := c.currentConn()
		if conn == nil {
			return nil
		}

		conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, data, err := conn.ReadMessage()
		if err != nil {
			// A policy close means the bridge refused this session
			// (bad account, unauthorized); reconnecting cannot help.
			if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				return domain.NewFatalNetworkError("read", err)
			}
			slog.Warn("Bridge read failed", slog.Any("error", err))
			return nil
		}

		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(data, &frame); err != nil {
		slog.Warn("Malformed bridge frame", slog.Any("error", err))
		return
	}

	switch frame.Type {
	case frameTick:
		tick := event.AcquireTickEvent()
		tick.Ts = time.Now().UnixMicro()
		tick.Symbol = frame.Symbol
		tick.Last = frame.Last
		tick.Bid = frame.Bid
		tick.Ask = frame.Ask
		c.inbox <- tick
	case frameOrderStatus:
		status := event.AcquireOrderStatusEvent()
		status.Ts = time.Now().UnixMicro()
		status.OrderID = frame.OrderID
		status.Status = frame.Status
		status.FilledQty = frame.FilledQty
		status.AvgFillPrice = frame.AvgFillPrice
		c.inbox <- status
	default:
		slog.Debug("Unhandled bridge frame", slog.String("type", frame.Type))
	}
}

// PlaceOrder sends the placement frame. The client-side id is authoritative;
// the bridge echoes it back in status events.
func (c *Client) PlaceOrder(req domain.OrderRequest) (string, error) {
	frame := &outboundFrame{
		Type:        framePlaceOrder,
		OrderID:     req.ID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		LimitPrice:  req.LimitPrice,
		TimeInForce: req.TimeInForce,
		OutsideRTH:  req.OutsideRTH,
	}
	if err := c.writeFrame(frame); err != nil {
		return "", err
	}
	return req.ID, nil
}

// CancelOrder sends the cancellation frame.
func (c *Client) CancelOrder(orderID string) error {
	return c.writeFrame(&outboundFrame{Type: frameCancelOrder, OrderID: orderID})
}

// CancelAllOrders asks the bridge to cancel every working order.
func (c *Client) CancelAllOrders() error {
	return c.writeFrame(&outboundFrame{Type: frameCancelAll})
}

func (c *Client) writeFrame(frame *outboundFrame) error {
	conn := c.currentConn()
	if conn == nil {
		return domain.ErrGatewayDisconnected
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return domain.NewNetworkError("write", err)
	}
	return nil
}

func (c *Client) currentConn() *websocket.Conn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.conn
}

func (c *Client) closeConnection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.connected = false
}

func (c *Client) sendConnection(connected bool) {
	c.inbox <- &event.ConnectionEvent{
		BaseEvent: event.BaseEvent{Ts: time.Now().UnixMicro()},
		Connected: connected,
	}
}
