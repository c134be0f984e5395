package services

import (
	"context"
	"sync/atomic"

	"github.com/gofiber/websocket/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/latestcomment/go-interview-room/internal/models"
)

var ErrChannelClosed = errors.New("channel closed")

// FrameChannel is the duplex, line-per-frame link to one browser client.
type FrameChannel interface {
	Send(tag, text string) error
	Receive(ctx context.Context) (string, error)
	Closed() bool
}

// Conn is the subset of a websocket connection the channel needs. Both the
// fiber and the fasthttp websocket connections satisfy it.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type WebSocketChannel struct {
	conn    Conn
	inbound chan string
	done    chan struct{}
	closed  atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// OpenChannel starts the single reader of conn. The returned context is
// cancelled as soon as the client goes away, so that a pending model call
// is abandoned too.
func OpenChannel(parent context.Context, conn Conn, buffer int) (*WebSocketChannel, context.Context) {
	ctx, cancel := context.WithCancel(parent)
	ch := &WebSocketChannel{
		conn:    conn,
		inbound: make(chan string, buffer),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
	go ch.readLoop(ctx)
	return ch, ctx
}

func (ch *WebSocketChannel) readLoop(ctx context.Context) {
	defer close(ch.done)
	defer ch.cancel()

	for {
		_, data, err := ch.conn.ReadMessage()
		if err != nil {
			ch.closed.Store(true)
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Msg("websocket read failed")
			}
			return
		}
		select {
		case ch.inbound <- string(data):
		case <-ctx.Done():
			return
		}
	}
}

func (ch *WebSocketChannel) Send(tag, text string) error {
	if ch.closed.Load() {
		return ErrChannelClosed
	}
	frame := models.Frame{Tag: tag, Payload: text}
	if err := ch.conn.WriteMessage(websocket.TextMessage, []byte(frame.String())); err != nil {
		ch.closed.Store(true)
		ch.cancel()
		return errors.Wrap(ErrChannelClosed, err.Error())
	}
	return nil
}

// Receive blocks until the client sends a frame. Frames that arrived while
// nobody was waiting are returned in order. Only a dropped connection yields
// ErrChannelClosed, cancellation yields the context error.
func (ch *WebSocketChannel) Receive(ctx context.Context) (string, error) {
	select {
	case text := <-ch.inbound:
		return text, nil
	case <-ch.done:
		select {
		case text := <-ch.inbound:
			return text, nil
		default:
		}
		if ch.closed.Load() {
			return "", ErrChannelClosed
		}
		// reader stopped on cancellation, the socket itself is still open
		return "", ch.ctx.Err()
	case <-ctx.Done():
		if ch.closed.Load() {
			return "", ErrChannelClosed
		}
		return "", ctx.Err()
	}
}

func (ch *WebSocketChannel) Closed() bool {
	return ch.closed.Load()
}

// Close shuts the connection and waits for the reader to stop. The fiber
// connection is recycled once its handler returns, so the reader must be gone
// by then.
func (ch *WebSocketChannel) Close() error {
	if !ch.closed.Swap(true) {
		_ = ch.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	}
	ch.cancel()
	err := ch.conn.Close()
	<-ch.done
	return err
}
