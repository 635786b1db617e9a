package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURLFromHTTP(t *testing.T) {
	cases := []struct {
		base    string
		path    string
		want    string
		wantErr bool
	}{
		{"http://localhost:5000", "/ws", "ws://localhost:5000/ws", false},
		{"https://api.example.com/", "/socket", "wss://api.example.com/socket", false},
		{"ws://localhost:5000", "/ws", "ws://localhost:5000/ws", false},
		{"wss://api.example.com", "/ws", "wss://api.example.com/ws", false},
		{"ftp://example.com", "/ws", "", true},
	}
	for _, tc := range cases {
		got, err := URLFromHTTP(tc.base, tc.path)
		if tc.wantErr {
			assert.Error(t, err, "base %q", tc.base)
			continue
		}
		require.NoError(t, err, "base %q", tc.base)
		assert.Equal(t, tc.want, got)
	}
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, time.Second, backoff(0))
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
	assert.Equal(t, 30*time.Second, backoff(5))
	assert.Equal(t, 30*time.Second, backoff(50))
	assert.Equal(t, time.Second, backoff(-1))
}

func TestDispatchInvokesSubscribersInOrder(t *testing.T) {
	c := New(Config{})

	var calls []string
	c.Subscribe("newAnnouncement", func(json.RawMessage) {
		calls = append(calls, "first")
	})
	c.Subscribe("newAnnouncement", func(json.RawMessage) {
		calls = append(calls, "second")
	})
	c.Subscribe("otherEvent", func(json.RawMessage) {
		calls = append(calls, "other")
	})

	c.dispatch(envelope{Event: "newAnnouncement", Data: json.RawMessage(`{}`)})

	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestDispatchPassesPayload(t *testing.T) {
	c := New(Config{})

	var got string
	c.Subscribe("ev", func(data json.RawMessage) {
		got = string(data)
	})

	c.dispatch(envelope{Event: "ev", Data: json.RawMessage(`{"id":"a"}`)})
	assert.JSONEq(t, `{"id":"a"}`, got)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	c := New(Config{})

	calls := 0
	cancel := c.Subscribe("ev", func(json.RawMessage) { calls++ })

	c.dispatch(envelope{Event: "ev"})
	cancel()
	c.dispatch(envelope{Event: "ev"})

	assert.Equal(t, 1, calls)
}

func TestUnsubscribeKeepsOtherHandlers(t *testing.T) {
	c := New(Config{})

	var calls []string
	cancelA := c.Subscribe("ev", func(json.RawMessage) { calls = append(calls, "a") })
	c.Subscribe("ev", func(json.RawMessage) { calls = append(calls, "b") })

	cancelA()
	c.dispatch(envelope{Event: "ev"})

	assert.Equal(t, []string{"b"}, calls)
}

func TestReconnectHooksFireInRegistrationOrder(t *testing.T) {
	c := New(Config{})

	var calls []string
	c.OnReconnect(func() { calls = append(calls, "first") })
	remove := c.OnReconnect(func() { calls = append(calls, "second") })

	c.fireReconnect()
	assert.Equal(t, []string{"first", "second"}, calls)

	remove()
	c.fireReconnect()
	assert.Equal(t, []string{"first", "second", "first"}, calls)
}

func TestRunDeliversEventsFromServer(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		msgs := []string{
			`{"event":"newAnnouncement","data":{"id":"a"}}`,
			`{"data":{"id":"nameless"}}`,
			`{"event":"newAnnouncement","data":{"id":"b"}}`,
		}
		for _, m := range msgs {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(m)); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	c := New(Config{URL: wsURL, Token: "secret"})

	received := make(chan string, 8)
	c.Subscribe("newAnnouncement", func(data json.RawMessage) {
		var payload struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return
		}
		received <- payload.ID
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	expect := func(want string) {
		select {
		case got := <-received:
			assert.Equal(t, want, got)
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for event %q", want)
		}
	}
	expect("a")
	expect("b")

	assert.Equal(t, "Bearer secret", gotAuth)

	c.Close()
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not stop after close")
	}
}
