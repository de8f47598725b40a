package server

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"diagramdb/src/engine"
	"diagramdb/src/models"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrAuthFailed is returned by Authenticate on bad credentials.
var ErrAuthFailed = errors.New("authentication failed")

// Client is a blocking RPC client for the binary protocol. One request
// is in flight at a time per client; the proxy keeps one client per
// inbound request.
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
}

// Dial connects to the RPC server at addr.
func Dial(addr string, timeout time.Duration) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC server: %w", err)
	}

	return &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		writer: bufio.NewWriter(conn),
	}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// call sends one request frame and reads one response frame.
func (c *Client) call(op byte, payload []byte) (byte, []byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := writeFrame(c.writer, op, payload); err != nil {
		return 0, nil, fmt.Errorf("failed to send request: %w", err)
	}

	body, err := readFrame(c.reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}

	if len(body) == 0 {
		return 0, nil, errors.New("empty response frame")
	}

	return body[0], body[1:], nil
}

// callResult is call for the operations whose OK payload is a Result.
func (c *Client) callResult(op byte, payload []byte) (models.Result, error) {
	status, resp, err := c.call(op, payload)
	if err != nil {
		return models.Result{}, err
	}

	if status != StatusOK {
		return models.Result{}, fmt.Errorf("server error: %s", resp)
	}

	var result models.Result
	if err := bson.Unmarshal(resp, &result); err != nil {
		return models.Result{}, fmt.Errorf("failed to decode result: %w", err)
	}

	return result, nil
}

// Authenticate authorizes the connection when the server runs with
// authentication enabled.
func (c *Client) Authenticate(username, password string) error {
	payload := make([]byte, 0, len(username)+1+len(password))
	payload = append(payload, username...)
	payload = append(payload, 0)
	payload = append(payload, password...)

	result, err := c.callResult(OpAuth, payload)
	if err != nil {
		return err
	}

	if !result.Value {
		return fmt.Errorf("%w: %s", ErrAuthFailed, result.Message)
	}

	return nil
}

// SaveClassDiagram stores the document and returns the server Result.
func (c *Client) SaveClassDiagram(file *models.File) (models.Result, error) {
	payload, err := engine.EncodeFile(file)
	if err != nil {
		return models.Result{}, err
	}

	return c.callResult(OpSave, payload)
}

// GetClassDiagram fetches a document. A missing id is
// engine.ErrFileNotFound.
func (c *Client) GetClassDiagram(fileID string) (*models.File, error) {
	status, resp, err := c.call(OpGet, []byte(fileID))
	if err != nil {
		return nil, err
	}

	switch status {
	case StatusOK:
		return engine.DecodeFile(resp)
	case StatusNotFound:
		return nil, engine.ErrFileNotFound
	default:
		return nil, fmt.Errorf("server error: %s", resp)
	}
}

// IsExistingClassDiagram reports presence of the id.
func (c *Client) IsExistingClassDiagram(fileID string) (models.Result, error) {
	return c.callResult(OpExists, []byte(fileID))
}

// DeleteClassDiagram removes the document if present.
func (c *Client) DeleteClassDiagram(fileID string) (models.Result, error) {
	return c.callResult(OpDelete, []byte(fileID))
}

// ExportClassDiagrams asks the server to write the per-document export
// tree.
func (c *Client) ExportClassDiagrams() (models.Result, error) {
	return c.callResult(OpExport, nil)
}
