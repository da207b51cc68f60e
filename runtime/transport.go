package runtime

import (
	"context"
	"io"
	"net"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// Transport is the session's view of the socket: whole text frames in, whole
// text frames out. Reads block until a frame arrives or the connection dies.
type Transport interface {
	ReadFrame() (string, error)
	WriteFrame(text string) error
	Close() error
}

// wsTransport speaks the WebSocket framing with gobwas/ws. No client-side
// ping loop runs here: the remote protocol carries its own keepalive
// convention, so transport-level probing stays off.
type wsTransport struct {
	conn net.Conn
	rw   io.ReadWriter
}

// DialTransport opens the WebSocket connection to the endpoint URL.
func DialTransport(ctx context.Context, url string) (Transport, error) {
	conn, br, _, err := ws.Dial(ctx, url)
	if err != nil {
		return nil, err
	}

	t := &wsTransport{conn: conn}
	if br != nil {
		// The handshake may have buffered the first frames; drain the
		// reader before touching the raw conn.
		t.rw = struct {
			io.Reader
			io.Writer
		}{io.MultiReader(br, conn), conn}
	} else {
		t.rw = conn
	}
	return t, nil
}

// ReadFrame returns the next text frame. Control frames (ping, close) are
// answered inside wsutil and never surface here.
func (t *wsTransport) ReadFrame() (string, error) {
	data, err := wsutil.ReadServerText(t.rw)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// WriteFrame sends one client-masked text frame.
func (t *wsTransport) WriteFrame(text string) error {
	return wsutil.WriteClientText(t.conn, []byte(text))
}

// Close sends a close frame on a best-effort basis and tears down the
// connection, unblocking any pending ReadFrame.
func (t *wsTransport) Close() error {
	_ = wsutil.WriteClientMessage(t.conn, ws.OpClose, nil)
	return t.conn.Close()
}
