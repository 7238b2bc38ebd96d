package ws_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
	"github.com/alters-mit/sticky-mitten-avatar/internal/transport/ws"
)

// fakeBuildServer speaks just enough of the build's side of the protocol:
// HELLO -> WELCOME, then one FRAME per STEP carrying an echo of the batch
// size in the frame counter.
func fakeBuildServer(t *testing.T) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, _ := protocol.DecodeBase(msg)
		if base.Type != protocol.TypeHello {
			t.Errorf("first message type = %q, want HELLO", base.Type)
			return
		}
		_ = conn.WriteJSON(protocol.WelcomeMsg{
			Type:            protocol.TypeWelcome,
			ProtocolVersion: protocol.Version,
			BuildVersion:    "1.6.0-test",
		})

		var frame uint64
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var step protocol.StepMsg
			if err := json.Unmarshal(msg, &step); err != nil || step.Type != protocol.TypeStep {
				continue
			}
			frame++
			_ = conn.WriteJSON(protocol.FrameMsg{
				Type: protocol.TypeFrame,
				StepResponse: protocol.StepResponse{
					Frame:   frame,
					Overlap: []int{len(step.Commands)},
				},
			})
		}
	}))
}

func TestDialAndStep(t *testing.T) {
	srv := fakeBuildServer(t)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	c, err := ws.Dial(url, "sma", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	if c.Welcome.BuildVersion != "1.6.0-test" {
		t.Fatalf("welcome = %+v", c.Welcome)
	}

	resp, err := c.Step([]protocol.Command{
		protocol.CreateAvatar("a"),
		protocol.SendAvatars("always"),
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Frame != 1 {
		t.Fatalf("frame = %d", resp.Frame)
	}
	if len(resp.Overlap) != 1 || resp.Overlap[0] != 2 {
		t.Fatalf("echoed batch size = %v", resp.Overlap)
	}

	// Each step advances exactly one frame, even with an empty batch.
	resp, err = c.Step(nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.Frame != 2 {
		t.Fatalf("frame = %d", resp.Frame)
	}
}
