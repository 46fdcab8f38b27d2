package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/trellis/internal/api/ws"
	"github.com/gosuda/trellis/internal/auth"
	"github.com/gosuda/trellis/internal/domain"
)

// tokenVerifier accepts "Bearer <username>" for known users.
type tokenVerifier map[string]*domain.User

func (v tokenVerifier) Verify(_ context.Context, credential string) (*domain.User, error) {
	if u, ok := v[auth.StripBearer(credential)]; ok {
		return u, nil
	}
	return nil, auth.ErrAuthentication
}

func newGateServer(t *testing.T, users tokenVerifier) (*httptest.Server, *fixture) {
	t.Helper()

	f := newFixture()
	gate := ws.NewGate(users, f.hub, f.router, ws.GateConfig{SendBuffer: 16})
	srv := httptest.NewServer(gate)
	t.Cleanup(srv.Close)
	return srv, f
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, credential string) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPHeader: http.Header{"Authorization": []string{credential}},
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func write(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, rawFrame(t, event, data)))
}

func read(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	_, raw, err := conn.Read(ctx)
	require.NoError(t, err)

	var f frame
	require.NoError(t, json.Unmarshal(raw, &f))
	return f
}

// barrier waits until every earlier frame from conn has been handled: an
// invalid update always answers with a failure to the sender.
func barrier(t *testing.T, conn *websocket.Conn) {
	t.Helper()

	write(t, conn, "boards.update", map[string]any{"boardId": uuid.New(), "fields": map[string]any{}})
	require.Equal(t, "boards.update.failure", read(t, conn).Event)
}

func TestGate_RejectsBadCredential(t *testing.T) {
	t.Parallel()

	srv, f := newGateServer(t, tokenVerifier{"alice": testUser("alice")})

	for _, credential := range []string{"", "Bearer", "Bearer mallory", "alice-but-wrong"} {
		ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
		conn, resp, err := websocket.Dial(ctx, wsURL(srv), &websocket.DialOptions{
			HTTPHeader: http.Header{"Authorization": []string{credential}},
		})
		cancel()

		require.Error(t, err, "credential %q", credential)
		assert.Nil(t, conn)
		require.NotNil(t, resp)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
	}

	assert.Equal(t, 0, f.hub.Connections())
}

func TestGate_RejectionBody(t *testing.T) {
	t.Parallel()

	srv, _ := newGateServer(t, tokenVerifier{})

	req, err := http.NewRequestWithContext(t.Context(), http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer expired")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Authentication error", body["detail"])
}

func TestGate_QueryTokenFallback(t *testing.T) {
	t.Parallel()

	srv, f := newGateServer(t, tokenVerifier{"alice": testUser("alice")})

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL(srv)+"?token=Bearer%20alice", nil)
	require.NoError(t, err)
	defer conn.CloseNow()

	barrier(t, conn)
	assert.Equal(t, 1, f.hub.Connections())
}

func TestGate_BroadcastReachesEveryRoomMember(t *testing.T) {
	t.Parallel()

	alice, bob := testUser("alice"), testUser("bob")
	srv, f := newGateServer(t, tokenVerifier{"alice": alice, "bob": bob})
	board := uuid.New()

	a := dial(t, wsURL(srv), "Bearer alice")
	b := dial(t, wsURL(srv), "Bearer bob")

	write(t, a, "boards.join", map[string]any{"boardId": board})
	write(t, b, "boards.join", map[string]any{"boardId": board})
	barrier(t, a)
	barrier(t, b)

	f.store.columns.On("Create", mock.Anything, mock.MatchedBy(func(c *domain.Column) bool {
		return c.UserID == alice.ID && c.BoardID == board
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.Column).ID = uuid.New()
	}).Return(nil).Once()

	write(t, a, "columns.create", map[string]any{"boardId": board, "title": "Todo"})

	for _, conn := range []*websocket.Conn{a, b} {
		got := read(t, conn)
		assert.Equal(t, "columns.create.success", got.Event)

		var column domain.Column
		require.NoError(t, json.Unmarshal(got.Data, &column))
		assert.Equal(t, "Todo", column.Title)
	}
	f.store.assertExpectations(t)
}

func TestGate_DisconnectReleasesRooms(t *testing.T) {
	t.Parallel()

	srv, f := newGateServer(t, tokenVerifier{"alice": testUser("alice")})
	board := uuid.New()

	a := dial(t, wsURL(srv), "Bearer alice")
	write(t, a, "boards.join", map[string]any{"boardId": board})
	barrier(t, a)
	require.Len(t, f.hub.Rooms().Members(board), 1)

	require.NoError(t, a.Close(websocket.StatusNormalClosure, "bye"))

	require.Eventually(t, func() bool {
		return f.hub.Connections() == 0 && len(f.hub.Rooms().Members(board)) == 0
	}, 5*time.Second, 10*time.Millisecond)
}
