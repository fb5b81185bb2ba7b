package radio

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/websocket"
)

// OpenWebSocket connects to a modem bridged over WebSocket, as exposed
// by serial to network gateways. Modem bytes travel in binary frames.
func OpenWebSocket(rawURL string) (io.ReadWriteCloser, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid modem URL: %w", err)
	}
	origin := "http://" + u.Host + "/"
	if u.Scheme == "wss" {
		origin = "https://" + u.Host + "/"
	}
	conn, err := websocket.Dial(rawURL, "", origin)
	if err != nil {
		return nil, fmt.Errorf("dial modem %s: %w", rawURL, err)
	}
	conn.PayloadType = websocket.BinaryFrame
	return conn, nil
}

// Open opens the modem by port name: ws:// and wss:// URLs go through
// OpenWebSocket, anything else is a serial device.
func Open(port string, baudRate int) (io.ReadWriteCloser, error) {
	if strings.HasPrefix(port, "ws://") || strings.HasPrefix(port, "wss://") {
		return OpenWebSocket(port)
	}
	return OpenSerial(port, baudRate)
}
