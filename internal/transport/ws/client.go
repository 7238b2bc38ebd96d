// Package ws implements the simulation channel over a websocket to the
// build: HELLO/WELCOME handshake, then one STEP/FRAME round trip per
// physics tick.
package ws

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alters-mit/sticky-mitten-avatar/internal/protocol"
)

const (
	writeTimeout = 5 * time.Second
	readTimeout  = 60 * time.Second
)

// Client is a controller.Channel backed by a live build. Not safe for
// concurrent use; the controller steps strictly one tick at a time.
type Client struct {
	conn *websocket.Conn
	log  *log.Logger

	Welcome protocol.WelcomeMsg
}

// Dial connects, performs the handshake and returns a ready client.
func Dial(url, controllerName string, logger *log.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	c := &Client{conn: conn, log: logger}

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		ControllerName:  controllerName,
	}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("send HELLO: %w", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(writeTimeout))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("read WELCOME: %w", err)
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeWelcome {
		conn.Close()
		return nil, fmt.Errorf("expected WELCOME, got %q", base.Type)
	}
	if err := json.Unmarshal(msg, &c.Welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("decode WELCOME: %w", err)
	}
	if c.log != nil {
		c.log.Printf("connected: build=%s screen=%dx%d",
			c.Welcome.BuildVersion, c.Welcome.ScreenWidth, c.Welcome.ScreenHeight)
	}
	return c, nil
}

// Step sends one command batch and blocks for the resulting frame.
func (c *Client) Step(commands []protocol.Command) (protocol.StepResponse, error) {
	if commands == nil {
		commands = []protocol.Command{}
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.conn.WriteJSON(protocol.StepMsg{Type: protocol.TypeStep, Commands: commands}); err != nil {
		return protocol.StepResponse{}, fmt.Errorf("send STEP: %w", err)
	}

	for {
		_ = c.conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			return protocol.StepResponse{}, fmt.Errorf("read FRAME: %w", err)
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeFrame:
			var frame protocol.FrameMsg
			if err := json.Unmarshal(msg, &frame); err != nil {
				return protocol.StepResponse{}, fmt.Errorf("decode FRAME: %w", err)
			}
			return frame.StepResponse, nil
		case protocol.TypeError:
			var em protocol.ErrorMsg
			if err := json.Unmarshal(msg, &em); err != nil {
				return protocol.StepResponse{}, fmt.Errorf("decode ERROR: %w", err)
			}
			return protocol.StepResponse{}, fmt.Errorf("build error %s: %s", em.Code, em.Message)
		default:
			// Unrelated message types are skipped.
		}
	}
}

// Close terminates the connection.
func (c *Client) Close() error {
	_ = c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
		time.Now().Add(time.Second))
	return c.conn.Close()
}
