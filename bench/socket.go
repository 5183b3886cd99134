package bench

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/jimmy2822/homebrew-goxel/common"
)

var rpcID uint64

type rpcRequest struct {
	JSONRPC string                 `json:"jsonrpc"`
	Method  string                 `json:"method"`
	Params  map[string]interface{} `json:"params"`
	ID      uint64                 `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result"`
	Error   *rpcError       `json:"error"`
	ID      uint64          `json:"id"`
}

// SocketSampler talks JSON-RPC over a unix socket. Requests and
// responses are single JSON objects framed by a trailing newline.
// The connection is dialed once and reused for every sample.
type SocketSampler struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
}

// NewSocketSampler connects to the daemon at socketPath. The timeout
// bounds each individual request round trip.
func NewSocketSampler(socketPath string, timeout time.Duration) (*SocketSampler, error) {
	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", socketPath)
	}
	return &SocketSampler{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
	}, nil
}

func (s *SocketSampler) Sample(ctx context.Context, op Operation) common.Sample {
	bound := s.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if until := time.Until(deadline); until < bound {
			bound = until
		}
	}
	if bound <= 0 {
		return common.FailedSample(0, context.DeadlineExceeded)
	}

	start := time.Now()
	result, err := s.call(op.Method, op.Params, bound)
	elapsed := time.Since(start)
	if err != nil {
		if isTimeout(err) {
			return common.FailedSample(bound.Seconds()*1000, err)
		}
		return common.FailedSample(msFrom(elapsed), err)
	}
	_ = result
	return common.Sample{DurationMS: msFrom(elapsed), OK: true}
}

func (s *SocketSampler) call(method string, params map[string]interface{}, bound time.Duration) (json.RawMessage, error) {
	id := atomic.AddUint64(&rpcID, 1)
	req := rpcRequest{JSONRPC: "2.0", Method: method, Params: params, ID: id}
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(err, "marshal request")
	}
	payload = append(payload, '\n')

	if err := s.conn.SetDeadline(time.Now().Add(bound)); err != nil {
		return nil, errors.Wrap(err, "set deadline")
	}
	if _, err := s.conn.Write(payload); err != nil {
		return nil, errors.Wrapf(err, "write %s", method)
	}

	line, err := s.reader.ReadBytes('\n')
	if err != nil {
		return nil, errors.Wrapf(err, "read %s response", method)
	}
	var resp rpcResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, errors.Wrapf(err, "decode %s response", method)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("rpc error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

func (s *SocketSampler) Close() error {
	return s.conn.Close()
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func msFrom(d time.Duration) float64 {
	return float64(d.Nanoseconds()) / 1e6
}
