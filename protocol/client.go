package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

var (
	ErrNotConnected   = errors.New("not connected")
	ErrTimeout        = errors.New("command timed out")
	ErrSocketNotFound = errors.New("no server socket found")
)

// EventHandler receives async events that arrive between replies.
type EventHandler func(Event)

// Client talks to one server over its socket. Calls are synchronous:
// Send writes the command and blocks for its reply, dispatching any
// events that slip in between. Safe for concurrent use; commands are
// serialized on the connection.
type Client struct {
	mu      sync.Mutex
	conn    net.Conn
	rd      *bufio.Reader
	path    string
	onEvent EventHandler
}

func NewClient() *Client { return &Client{} }

// OnEvent sets the handler for async server events. The handler runs
// on the sending goroutine, during Send.
func (c *Client) OnEvent(h EventHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onEvent = h
}

// Connect dials the socket at path and verifies it with a ping.
func (c *Client) Connect(path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return fmt.Errorf("already connected to %s", c.path)
	}

	conn, err := net.DialTimeout("unix", path, ConnectTimeout)
	if err != nil {
		return err
	}
	c.conn = conn
	c.rd = bufio.NewReader(conn)
	c.path = path

	resp, err := c.send(Command{Kind: CmdPing}, PingTimeout)
	if err != nil {
		c.drop()
		return fmt.Errorf("ping failed: %w", err)
	}
	if !resp.OK || resp.Data != "pong" {
		c.drop()
		return fmt.Errorf("ping failed: %s", resp.Data)
	}
	return nil
}

// Discover connects to the most recently active server socket.
func (c *Client) Discover() error {
	path := DiscoverSocket()
	if path == "" {
		return ErrSocketNotFound
	}
	return c.Connect(path)
}

// ConnectedPath returns the socket path, or "" when not connected.
func (c *Client) ConnectedPath() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.path
}

// Close hangs up. Safe to call when not connected.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn, c.rd, c.path = nil, nil, ""
	return err
}

// Send sends cmd and waits for its reply.
func (c *Client) Send(cmd Command) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.send(cmd, CommandTimeout)
}

// SendRaw sends an already formatted command line, without prefix or
// newline.
func (c *Client) SendRaw(line string) (Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLine(CommandPrefix+line+"\n", CommandTimeout)
}

func (c *Client) send(cmd Command, timeout time.Duration) (Response, error) {
	return c.sendLine(cmd.FormatLine(), timeout)
}

// sendLine does the wire work. Callers hold c.mu.
func (c *Client) sendLine(line string, timeout time.Duration) (Response, error) {
	if c.conn == nil {
		return Response{}, ErrNotConnected
	}

	c.conn.SetDeadline(time.Now().Add(timeout))
	defer func() {
		if c.conn != nil {
			c.conn.SetDeadline(time.Time{})
		}
	}()

	if _, err := io.WriteString(c.conn, line); err != nil {
		return Response{}, c.fail(err)
	}

	for {
		reply, err := c.rd.ReadString('\n')
		if err != nil {
			return Response{}, c.fail(err)
		}
		msg, err := ParseMessage(reply)
		if err != nil {
			return Response{}, err
		}
		if msg.IsEvent {
			if c.onEvent != nil {
				c.onEvent(msg.Event)
			}
			continue
		}
		return msg.Resp, nil
	}
}

// fail drops the connection on any wire error. A reply left in flight
// after a timeout would desync the stream, so timeouts hang up too.
func (c *Client) fail(err error) error {
	c.drop()
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		return ErrTimeout
	}
	return err
}

func (c *Client) drop() {
	if c.conn != nil {
		c.conn.Close()
	}
	c.conn, c.rd, c.path = nil, nil, ""
}
