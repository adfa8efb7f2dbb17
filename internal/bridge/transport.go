// File: internal/bridge/transport.go
package bridge

import (
	"bufio"
	"bytes"
	"context"
	stdjson "encoding/json"
	"fmt"
	"io"
	"runtime/debug"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

// maxLineBytes bounds a single request line. Scripts and typed text ride
// inside params, so the default 64K scanner buffer is not enough.
const maxLineBytes = 16 * 1024 * 1024

// defaultID stands in for an absent or null request id.
var defaultID = stdjson.RawMessage("0")

// Loop reads newline-delimited requests from in and writes one response line
// per request to out. Requests are served strictly in order, one at a time.
type Loop struct {
	in         io.Reader
	out        *bufio.Writer
	dispatcher *Dispatcher
	logger     *zap.Logger
}

func NewLoop(in io.Reader, out io.Writer, dispatcher *Dispatcher, logger *zap.Logger) *Loop {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{
		in:         in,
		out:        bufio.NewWriter(out),
		dispatcher: dispatcher,
		logger:     logger.Named("transport"),
	}
}

// Run announces readiness, then serves requests until EOF or context
// cancellation. A closed stdin is the normal shutdown path and returns nil.
func (l *Loop) Run(ctx context.Context) error {
	if err := l.writeLine(readyNotification{Ready: true}); err != nil {
		return fmt.Errorf("writing ready notification: %w", err)
	}
	l.logger.Info("Bridge ready, awaiting requests")

	scanner := bufio.NewScanner(l.in)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			l.logger.Warn("Discarding unparseable request line", zap.Error(err))
			if werr := l.writeLine(errorEnvelope{
				ID:    defaultID,
				Error: &Error{Code: CodeParseError, Message: fmt.Sprintf("parse error: %v", err)},
			}); werr != nil {
				return werr
			}
			continue
		}
		if len(req.ID) == 0 || string(req.ID) == "null" {
			req.ID = defaultID
		}

		if err := l.writeLine(l.serve(ctx, req)); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading request stream: %w", err)
	}
	l.logger.Info("Request stream closed")
	return nil
}

// serve runs one request and always produces a response envelope. A panicking
// handler is contained here so a single bad request cannot kill the process.
func (l *Loop) serve(ctx context.Context, req Request) (resp interface{}) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("Handler panicked",
				zap.String("method", req.Method),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			resp = errorEnvelope{
				ID: req.ID,
				Error: &Error{
					Code:    CodeGenericError,
					Message: fmt.Sprintf("internal error: %v", r),
					Data:    map[string]string{"trace": string(debug.Stack())},
				},
			}
		}
	}()

	l.logger.Debug("Dispatching request", zap.String("method", req.Method))
	result, rpcErr := l.dispatcher.Dispatch(ctx, req.Method, req.Params)
	if rpcErr != nil {
		return errorEnvelope{ID: req.ID, Error: rpcErr}
	}
	return successEnvelope{ID: req.ID, Result: result}
}

// writeLine marshals v, appends a newline and flushes. The parent process
// reads line-buffered, so every response must be flushed immediately.
func (l *Loop) writeLine(v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}
	if _, err := l.out.Write(payload); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	if err := l.out.WriteByte('\n'); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}
	return l.out.Flush()
}
