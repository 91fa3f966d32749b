package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/okaybet/crossarb/internal/domain"
)

const (
	defaultWSURL = "wss://ws-subscriptions-clob.polymarket.com/ws/market"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	reconnectDelay    = 2 * time.Second
	maxReconnectDelay = 60 * time.Second
)

// PriceUpdate is a best-price observation for one outcome token.
type PriceUpdate struct {
	AssetID   string
	BestBid   float64
	BestAsk   float64
	Timestamp time.Time
}

// PriceHandler receives price updates from the market stream.
type PriceHandler func(PriceUpdate)

// WSClient streams real-time market data from the CLOB WebSocket. It is used
// in monitor mode, where prices are watched without trading.
type WSClient struct {
	wsURL  string
	logger *slog.Logger

	mu       sync.RWMutex
	conn     *websocket.Conn
	connDone chan struct{} // closed when conn is replaced or the client closes
	closed   bool
	assetIDs []string

	handlerMu sync.RWMutex
	handlers  []PriceHandler

	done chan struct{}
}

// NewWSClient creates a market-stream client. An empty wsURL selects the
// production endpoint.
func NewWSClient(wsURL string, logger *slog.Logger) *WSClient {
	if wsURL == "" {
		wsURL = defaultWSURL
	}
	return &WSClient{
		wsURL:  wsURL,
		logger: logger.With(slog.String("component", "polymarket_ws")),
		done:   make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the read and ping
// loops. Subscriptions registered before a reconnect are restored.
func (w *WSClient) Connect(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return fmt.Errorf("polymarket/ws: %w: client closed", domain.ErrTransientNetwork)
	}

	dialer := websocket.Dialer{HandshakeTimeout: 15 * time.Second}
	conn, _, err := dialer.DialContext(ctx, w.wsURL, nil)
	if err != nil {
		return fmt.Errorf("polymarket/ws: connect: %w: %v", domain.ErrTransientNetwork, err)
	}

	// Retire the previous connection's loops before swapping in the new conn,
	// otherwise each reconnect leaks a ping goroutine. Closing the old conn
	// unblocks a read loop still parked on it.
	if w.connDone != nil {
		close(w.connDone)
	}
	if w.conn != nil {
		_ = w.conn.Close()
	}
	w.connDone = make(chan struct{})
	w.conn = conn

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	go w.readLoop(conn, w.connDone)
	go w.pingLoop(conn, w.connDone)

	if len(w.assetIDs) > 0 {
		if err := w.sendSubscribe(w.assetIDs); err != nil {
			return fmt.Errorf("polymarket/ws: restore subscription: %w", err)
		}
	}
	return nil
}

// Subscribe adds the given outcome tokens to the market stream.
func (w *WSClient) Subscribe(assetIDs []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.conn == nil {
		return fmt.Errorf("polymarket/ws: not connected")
	}
	if err := w.sendSubscribe(assetIDs); err != nil {
		return err
	}
	w.assetIDs = append(w.assetIDs, assetIDs...)
	return nil
}

// OnPrice registers a handler called for every price observation.
func (w *WSClient) OnPrice(h PriceHandler) {
	w.handlerMu.Lock()
	defer w.handlerMu.Unlock()
	w.handlers = append(w.handlers, h)
}

// Close shuts down the connection and stops the loops.
func (w *WSClient) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	close(w.done)
	if w.connDone != nil {
		close(w.connDone)
		w.connDone = nil
	}

	if w.conn != nil {
		_ = w.conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		return w.conn.Close()
	}
	return nil
}

// ---- Internal methods ----

// sendSubscribe writes a market-channel subscription. Caller holds w.mu.
func (w *WSClient) sendSubscribe(assetIDs []string) error {
	w.conn.SetWriteDeadline(time.Now().Add(writeWait))
	msg := map[string]any{
		"type":       "market",
		"assets_ids": assetIDs,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal subscribe: %w", err)
	}
	return w.conn.WriteMessage(websocket.TextMessage, data)
}

// readLoop reads from one connection until it dies or is retired. Only the
// loop whose connection is still current initiates a reconnect.
func (w *WSClient) readLoop(conn *websocket.Conn, connDone chan struct{}) {
	for {
		select {
		case <-w.done:
			return
		case <-connDone:
			return
		default:
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-w.done:
				return
			case <-connDone:
				return
			default:
			}
			w.logger.Warn("stream disconnected", slog.String("error", err.Error()))
			w.reconnect()
			return
		}
		w.handleMessage(message)
	}
}

func (w *WSClient) pingLoop(conn *websocket.Conn, connDone chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			return
		case <-connDone:
			return
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage parses one stream message. Book snapshots yield the top of
// each side; unparseable messages are dropped.
func (w *WSClient) handleMessage(raw []byte) {
	var envelope struct {
		EventType string `json:"event_type"`
		AssetID   string `json:"asset_id"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return
	}
	if envelope.EventType != "book" {
		return
	}

	var book struct {
		AssetID string `json:"asset_id"`
		Bids    []struct {
			Price string `json:"price"`
			Size  string `json:"size"`
		} `json:"bids"`
		Asks []struct {
			Price string `json:"price"`
			Size  string `json:"size"`
		} `json:"asks"`
	}
	if err := json.Unmarshal(raw, &book); err != nil {
		return
	}

	update := PriceUpdate{AssetID: book.AssetID, Timestamp: time.Now().UTC()}
	// Bids ascend and asks descend in book snapshots, so the best levels sit
	// at the tail of bids and the tail of asks.
	if n := len(book.Bids); n > 0 {
		update.BestBid, _ = strconv.ParseFloat(book.Bids[n-1].Price, 64)
	}
	if n := len(book.Asks); n > 0 {
		update.BestAsk, _ = strconv.ParseFloat(book.Asks[n-1].Price, 64)
	}

	w.handlerMu.RLock()
	handlers := w.handlers
	w.handlerMu.RUnlock()
	for _, h := range handlers {
		h(update)
	}
}

// reconnect blocks until the connection is restored or the client closes.
func (w *WSClient) reconnect() {
	delay := reconnectDelay
	for {
		select {
		case <-w.done:
			return
		default:
		}

		time.Sleep(delay)

		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		err := w.Connect(ctx)
		cancel()
		if err == nil {
			w.logger.Info("stream reconnected")
			return
		}

		delay *= 2
		if delay > maxReconnectDelay {
			delay = maxReconnectDelay
		}
	}
}
