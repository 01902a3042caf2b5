package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		_ = c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) call(method string, req, resp any) error {
	return c.client.Call(ServiceName+"."+method, req, resp)
}

// Next skips to the next image.
func (c *Client) Next() (*CommandResponse, error) {
	var resp CommandResponse
	if err := c.call("Next", NextRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Previous goes back one image.
func (c *Client) Previous() (*CommandResponse, error) {
	var resp CommandResponse
	if err := c.call("Previous", PreviousRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TogglePause flips the paused flag.
func (c *Client) TogglePause() (*CommandResponse, error) {
	var resp CommandResponse
	if err := c.call("TogglePause", TogglePauseRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Resume ends a cast and unpauses.
func (c *Client) Resume() (*CommandResponse, error) {
	var resp CommandResponse
	if err := c.call("Resume", ResumeRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cast shows the image at path until Resume. The path is read by the daemon.
func (c *Client) Cast(path string) (*CastResponse, error) {
	var resp CastResponse
	if err := c.call("Cast", CastRequest{Path: path}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TestNotification triggers a notification test via the daemon.
func (c *Client) TestNotification() (*TestNotificationResponse, error) {
	var resp TestNotificationResponse
	if err := c.call("TestNotification", TestNotificationRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
