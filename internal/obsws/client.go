package obsws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// ErrAuthRequired is returned when the server wants a password and none is configured.
var ErrAuthRequired = errors.New("obs-websocket requires a password")

// RequestError is a request the server answered with result=false.
type RequestError struct {
	RequestType string
	Code        int
	Comment     string
}

func (e *RequestError) Error() string {
	if e.Comment == "" {
		return fmt.Sprintf("obs request %s failed (code %d)", e.RequestType, e.Code)
	}
	return fmt.Sprintf("obs request %s failed (code %d): %s", e.RequestType, e.Code, e.Comment)
}

// Config selects the server and credentials.
type Config struct {
	Host     string
	Port     int
	Password string
}

// URL returns the websocket URL for the server.
func (c Config) URL() string {
	u := url.URL{Scheme: "ws", Host: net.JoinHostPort(c.Host, strconv.Itoa(c.Port))}
	return u.String()
}

// Client is one identified obs-websocket session. Requests are serialized:
// each one writes a frame and reads until its own response arrives.
type Client struct {
	mu   sync.Mutex
	conn *websocket.Conn

	ServerVersion string
	RPCVersion    int
}

// Dial connects and completes the Hello/Identify handshake.
func Dial(ctx context.Context, cfg Config) (*Client, error) {
	dialer := websocket.Dialer{
		Subprotocols:     []string{Subprotocol},
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, cfg.URL(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", cfg.URL(), err)
	}

	c := &Client{conn: conn}
	if err := c.identify(ctx, cfg.Password); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

func (c *Client) identify(ctx context.Context, password string) error {
	stop := c.bindDeadline(ctx)
	defer stop()

	var hello Hello
	if err := c.readOp(OpHello, &hello); err != nil {
		return fmt.Errorf("read hello: %w", err)
	}
	c.ServerVersion = hello.ObsWebSocketVersion

	identify := Identify{RPCVersion: RPCVersion, EventSubscriptions: EventSubscriptionNone}
	if hello.Authentication != nil {
		if password == "" {
			return ErrAuthRequired
		}
		identify.Authentication = AuthResponse(password, hello.Authentication.Salt, hello.Authentication.Challenge)
	}
	if err := c.writeOp(OpIdentify, identify); err != nil {
		return fmt.Errorf("send identify: %w", err)
	}

	var identified Identified
	if err := c.readOp(OpIdentified, &identified); err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) && closeErr.Code == CloseAuthenticationFailed {
			return fmt.Errorf("authentication failed: %w", err)
		}
		return fmt.Errorf("read identified: %w", err)
	}
	c.RPCVersion = identified.NegotiatedRPCVersion
	return nil
}

// Request sends requestType with data and decodes responseData into out (if non-nil).
func (c *Client) Request(ctx context.Context, requestType string, data, out any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	stop := c.bindDeadline(ctx)
	defer stop()

	id := uuid.NewString()
	if err := c.writeOp(OpRequest, Request{RequestType: requestType, RequestID: id, RequestData: data}); err != nil {
		return c.ctxErr(ctx, fmt.Errorf("send %s: %w", requestType, err))
	}

	for {
		var resp RequestResponse
		if err := c.readOp(OpRequestResponse, &resp); err != nil {
			return c.ctxErr(ctx, fmt.Errorf("await %s: %w", requestType, err))
		}
		if resp.RequestID != id {
			continue
		}
		if !resp.RequestStatus.Result {
			return &RequestError{
				RequestType: requestType,
				Code:        resp.RequestStatus.Code,
				Comment:     resp.RequestStatus.Comment,
			}
		}
		if out != nil && len(resp.ResponseData) > 0 {
			if err := json.Unmarshal(resp.ResponseData, out); err != nil {
				return fmt.Errorf("decode %s response: %w", requestType, err)
			}
		}
		return nil
	}
}

// Close sends a normal close frame and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
	return c.conn.Close()
}

// readOp reads frames until one with op arrives, skipping events and
// anything else the server interleaves.
func (c *Client) readOp(op int, out any) error {
	for {
		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			return err
		}
		if msg.Op != op {
			continue
		}
		if err := json.Unmarshal(msg.D, out); err != nil {
			return fmt.Errorf("decode op %d: %w", op, err)
		}
		return nil
	}
}

func (c *Client) writeOp(op int, payload any) error {
	d, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.conn.WriteJSON(Message{Op: op, D: d})
}

// bindDeadline applies ctx's deadline to the connection and unblocks
// pending I/O when ctx is canceled.
func (c *Client) bindDeadline(ctx context.Context) func() {
	deadline, _ := ctx.Deadline()
	_ = c.conn.SetReadDeadline(deadline)
	_ = c.conn.SetWriteDeadline(deadline)

	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
		_ = c.conn.SetWriteDeadline(time.Now())
	})
	return func() { stop() }
}

// ctxErr attributes an I/O failure to ctx when ctx is done or its deadline
// has passed; the connection deadline can fire before ctx's own timer.
func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("%w: %w", ctxErr, err)
	}
	if deadline, ok := ctx.Deadline(); ok && !time.Now().Before(deadline) {
		return fmt.Errorf("%w: %w", context.DeadlineExceeded, err)
	}
	return err
}
