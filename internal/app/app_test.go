package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/communisafe/communisafe/internal/api"
	"github.com/communisafe/communisafe/internal/feed"
	"github.com/communisafe/communisafe/internal/model"
	"github.com/communisafe/communisafe/internal/push"
)

// The bump subscriptions wake the UI after a push event. Dispatch runs
// handlers in registration order, so by the time the wake-up arrives the
// feed handler must already have applied the mutation.
func TestBumpFiresAfterCollectionApply(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		msg := `{"event":"newAnnouncement","data":{"_id":"a","title":"Road closure"}}`
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			return
		}
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	ch := push.New(push.Config{URL: wsURL})
	defer ch.Close()

	f := feed.NewFeed(
		feed.NewCollection[model.Announcement](),
		func(ctx context.Context) ([]model.Announcement, error) { return nil, nil },
		api.DecodeAnnouncement,
		feed.Events{
			Created: "newAnnouncement",
			Updated: "announcementUpdated",
			Deleted: "announcementDeleted",
		},
		nil,
	)

	// Same order as startSession's start command: feed handlers first,
	// bumps second.
	require.NoError(t, f.Start(context.Background(), ch))
	events := make(chan tea.Msg, 4)
	subscribeBumps(ch, events)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go ch.Run(ctx)

	select {
	case msg := <-events:
		require.IsType(t, feedEventMsg{}, msg)
		view := f.Collection().View()
		require.Len(t, view, 1)
		assert.Equal(t, "Road closure", view[0].Title)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the push wake-up")
	}
}

func TestSubscribeBumpsToleratesNilChannel(t *testing.T) {
	events := make(chan tea.Msg, 1)
	subscribeBumps(nil, events)
	assert.Empty(t, events)
}
