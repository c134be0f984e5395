package services_test

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/gofiber/websocket/v2"

	"github.com/latestcomment/go-interview-room/internal/models"
	"github.com/latestcomment/go-interview-room/internal/services"
)

// modelFunc adapts a function to services.ChatModel.
type modelFunc func(ctx context.Context, messages []services.ChatMessage) (string, error)

func (f modelFunc) Complete(ctx context.Context, messages []services.ChatMessage) (string, error) {
	return f(ctx, messages)
}

// scriptedParticipant answers from a fixed list and records the history it saw.
type scriptedParticipant struct {
	name    string
	replies []string
	calls   int
	seen    [][]models.Message
	err     error
}

func (p *scriptedParticipant) Name() string { return p.name }

func (p *scriptedParticipant) Produce(_ context.Context, history []models.Message) (models.Message, error) {
	p.seen = append(p.seen, history)
	if p.err != nil {
		return models.Message{}, p.err
	}
	reply := p.name + " says hi"
	if p.calls < len(p.replies) {
		reply = p.replies[p.calls]
	}
	p.calls++
	return models.Message{Source: p.name, Content: reply}, nil
}

// scriptedChannel is an in-memory FrameChannel. Once replies run out the
// client counts as disconnected.
type scriptedChannel struct {
	frames     []string
	replies    []string
	closed     bool
	receiveErr error // returned by Receive instead of a reply when set
}

func (c *scriptedChannel) Send(tag, text string) error {
	if c.closed {
		return services.ErrChannelClosed
	}
	c.frames = append(c.frames, tag+":"+text)
	return nil
}

func (c *scriptedChannel) Receive(context.Context) (string, error) {
	if c.receiveErr != nil {
		return "", c.receiveErr
	}
	if len(c.replies) == 0 {
		c.closed = true
		return "", services.ErrChannelClosed
	}
	reply := c.replies[0]
	c.replies = c.replies[1:]
	return reply, nil
}

func (c *scriptedChannel) Closed() bool { return c.closed }

func (c *scriptedChannel) count(prefix string) int {
	n := 0
	for _, f := range c.frames {
		if strings.HasPrefix(f, prefix) {
			n++
		}
	}
	return n
}

type recordingSaver struct {
	mu          sync.Mutex
	transcripts []models.Transcript
}

func (r *recordingSaver) Save(t models.Transcript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcripts = append(r.transcripts, t)
	return nil
}

// pipeConn stands in for a websocket connection. The test plays the client
// through toServer and sent.
type pipeConn struct {
	toServer chan string
	closed   chan struct{}
	once     sync.Once

	mu   sync.Mutex
	sent []string
}

func newPipeConn() *pipeConn {
	return &pipeConn{toServer: make(chan string, 8), closed: make(chan struct{})}
}

func (p *pipeConn) ReadMessage() (int, []byte, error) {
	select {
	case text, ok := <-p.toServer:
		if !ok {
			return 0, nil, io.EOF
		}
		return websocket.TextMessage, []byte(text), nil
	case <-p.closed:
		return 0, nil, io.EOF
	}
}

func (p *pipeConn) WriteMessage(messageType int, data []byte) error {
	select {
	case <-p.closed:
		return io.ErrClosedPipe
	default:
	}
	if messageType != websocket.TextMessage {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, string(data))
	return nil
}

func (p *pipeConn) Close() error {
	p.once.Do(func() { close(p.closed) })
	return nil
}

func (p *pipeConn) frames() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.sent...)
}
