package httpapi

import (
	"strings"
	"testing"

	"github.com/gorilla/websocket"
)

func TestChatWSRoundTrip(t *testing.T) {
	stub := &stubCounselor{}
	ts := testServer(stub, nil)
	defer ts.Close()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/v1/chat/ws"
	conn, res, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.Close()
	defer res.Body.Close()

	if err := conn.WriteJSON(validChatBody()); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}

	var reply map[string]any
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	inner, ok := reply["response"].(map[string]any)
	if !ok {
		t.Fatalf("reply = %v, want response object", reply)
	}
	if inner["query_recommendation"] != "ask about collateral" {
		t.Fatalf("query_recommendation = %v", inner["query_recommendation"])
	}

	// Invalid requests keep the connection open and report the error inline.
	if err := conn.WriteJSON(map[string]any{"message": "hi"}); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if msg, _ := reply["error"].(string); !strings.Contains(msg, "Missing required fields") {
		t.Fatalf("error = %v, want validation message", reply)
	}
}
