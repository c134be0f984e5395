package handlers_test

import (
	"context"
	"net"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	fastws "github.com/fasthttp/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/latestcomment/go-interview-room/internal/handlers"
	"github.com/latestcomment/go-interview-room/internal/roles"
	"github.com/latestcomment/go-interview-room/internal/services"
)

type fakeModel struct {
	questions atomic.Int32
	finishAt  int32
}

func (m *fakeModel) Complete(_ context.Context, messages []services.ChatMessage) (string, error) {
	if strings.Contains(messages[0].Content, "career coach") {
		return "Solid: keep it concise.", nil
	}
	n := m.questions.Add(1)
	if m.finishAt > 0 && n >= m.finishAt {
		return "That concludes the interview. TERMINATE", nil
	}
	return "Question: what is a goroutine?", nil
}

type testServer struct {
	addr  string
	app   *fiber.App
	store *services.TranscriptService
}

func newTestServer(t *testing.T, model services.ChatModel) *testServer {
	t.Helper()
	catalog, err := roles.Default()
	require.NoError(t, err)
	store, err := services.OpenTranscriptService("")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	handlers.RegisterRoutes(app,
		handlers.NewHandler(store),
		handlers.NewWebSocketHandler(ctx, services.NewInterviewService(model, catalog, store)),
	)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()

	t.Cleanup(func() {
		cancel()
		_ = app.ShutdownWithTimeout(time.Second)
		_ = store.Close()
	})
	return &testServer{addr: ln.Addr().String(), app: app, store: store}
}

func (s *testServer) dial(t *testing.T, query string) *fastws.Conn {
	t.Helper()
	conn, _, err := fastws.DefaultDialer.Dial("ws://"+s.addr+"/ws/interview"+query, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// play answers every turn prompt and returns all frames until the server closes.
func play(t *testing.T, conn *fastws.Conn, answer string) []string {
	t.Helper()
	var frames []string
	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		if err != nil {
			return frames
		}
		frames = append(frames, string(data))
		if string(data) == "SYSTEM_TURN:USER" {
			require.NoError(t, conn.WriteMessage(fastws.TextMessage, []byte(answer)))
		}
	}
}

func Test_WebSocket_session_streams_frames_until_max_turns(t *testing.T) {
	// Arrange
	srv := newTestServer(t, &fakeModel{})
	conn := srv.dial(t, "?pos=Go+Developer&rounds=1")

	// Act
	frames := play(t, conn, "Goroutines: cheap threads")

	// Assert
	assert.Equal(t, []string{
		"SYSTEM_INFO:Starting interview for Go Developer (1 rounds)...",
		"Interviewer:Question: what is a goroutine?",
		"SYSTEM_TURN:USER",
		"Candidate:Goroutines: cheap threads",
		"Evaluator:Solid: keep it concise.",
		"Interviewer:Question: what is a goroutine?",
		"SYSTEM_TURN:USER",
		"Candidate:Goroutines: cheap threads",
		"SYSTEM_END:max_turns",
	}, frames)

	require.Eventually(t, func() bool {
		list, err := srv.store.List(10)
		return err == nil && len(list) == 1 && list[0].StopReason == "max_turns"
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_WebSocket_session_defaults_and_text_mention(t *testing.T) {
	srv := newTestServer(t, &fakeModel{finishAt: 2})
	conn := srv.dial(t, "")

	frames := play(t, conn, "answer")

	require.NotEmpty(t, frames)
	assert.Equal(t, "SYSTEM_INFO:Starting interview for AI Engineer (3 rounds)...", frames[0])
	assert.Equal(t, "SYSTEM_END:text_mention", frames[len(frames)-1])
	for _, f := range frames {
		tag, _, ok := strings.Cut(f, ":")
		assert.True(t, ok, f)
		assert.NotEmpty(t, tag)
	}
}

func Test_WebSocket_client_disconnect_during_turn_is_graceful(t *testing.T) {
	srv := newTestServer(t, &fakeModel{})
	conn := srv.dial(t, "?rounds=2")

	for {
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		if string(data) == "SYSTEM_TURN:USER" {
			break
		}
	}
	require.NoError(t, conn.Close())

	require.Eventually(t, func() bool {
		list, err := srv.store.List(10)
		if err != nil || len(list) != 1 {
			return false
		}
		msgs := list[0].Messages
		return list[0].Error == "" && msgs[len(msgs)-1].Content == "TERMINATE"
	}, 2*time.Second, 10*time.Millisecond)
}

func Test_WebSocket_rejects_bad_params_and_plain_requests(t *testing.T) {
	srv := newTestServer(t, &fakeModel{})

	plain := httptest.NewRequest(fiber.MethodGet, "/ws/interview", nil)
	resp, err := srv.app.Test(plain)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUpgradeRequired, resp.StatusCode)

	for _, query := range []string{"?rounds=abc", "?rounds=0", "?rounds=100"} {
		req := httptest.NewRequest(fiber.MethodGet, "/ws/interview"+query, nil)
		req.Header.Set("Connection", "Upgrade")
		req.Header.Set("Upgrade", "websocket")
		req.Header.Set("Sec-WebSocket-Version", "13")
		req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

		resp, err := srv.app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode, query)
	}
}
