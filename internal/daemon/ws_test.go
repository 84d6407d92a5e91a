package daemon_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"aerial/internal/api"
)

func TestTaskFeedStreamsTaskUpdates(t *testing.T) {
	d, client, _ := newTestDaemon(t)
	ctx := context.Background()

	conn, resp, err := websocket.DefaultDialer.Dial("ws://"+d.Addr()+"/ws/tasks", nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	if resp != nil {
		defer resp.Body.Close()
	}
	defer conn.Close()

	feed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedBody))
	}))
	defer feed.Close()

	created, err := client.CreateSubscription(ctx, api.SubscriptionRequest{Name: "demo", URL: feed.URL})
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	deadline := time.Now().Add(15 * time.Second)
	for {
		if err := conn.SetReadDeadline(deadline); err != nil {
			t.Fatalf("set read deadline: %v", err)
		}
		var task api.Task
		if err := conn.ReadJSON(&task); err != nil {
			t.Fatalf("read task frame: %v", err)
		}
		if task.ID != created.TaskID {
			continue
		}
		if task.Status == "success" {
			return
		}
		if task.Status == "failure" {
			t.Fatalf("sync task failed: %+v", task)
		}
	}
}
