// File: internal/bridge/dispatch.go
package bridge

import (
	"context"
	stdjson "encoding/json"
	"errors"
	"fmt"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/x0rw4ng/ghostbridge/internal/driver"
)

// Method enumerates the bridge's command set.
type Method string

const (
	MethodInit         Method = "init"
	MethodNavigate     Method = "navigate"
	MethodClickElement Method = "click_element"
	MethodClickXY      Method = "click_xy"
	MethodTypeText     Method = "type_text"
	MethodScreenshot   Method = "screenshot"
	MethodGetDOMMap    Method = "get_dom_map"
	MethodScroll       Method = "scroll"
	MethodWait         Method = "wait"
	MethodExecuteJS    Method = "execute_js"
	MethodClose        Method = "close"
	MethodGetPageInfo  Method = "get_page_info"
)

// handlerFunc executes one command against the session.
type handlerFunc func(ctx context.Context, s *Session, params stdjson.RawMessage) (interface{}, error)

// handler pairs a handlerFunc with its precondition. Methods with
// needsSession set fail with a not-initialized error before the handler runs,
// producing no driver call and no state change.
type handler struct {
	fn           handlerFunc
	needsSession bool
}

// Dispatcher routes method names to handlers over a single session.
type Dispatcher struct {
	session  *Session
	logger   *zap.Logger
	handlers map[Method]handler
}

// NewDispatcher builds the method table. init, close and get_page_info are
// the only methods valid in the Uninitialized state.
func NewDispatcher(session *Session, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Dispatcher{
		session: session,
		logger:  logger.Named("dispatcher"),
	}
	d.handlers = map[Method]handler{
		MethodInit:         {fn: handleInit},
		MethodNavigate:     {fn: handleNavigate, needsSession: true},
		MethodClickElement: {fn: handleClickElement, needsSession: true},
		MethodClickXY:      {fn: handleClickXY, needsSession: true},
		MethodTypeText:     {fn: handleTypeText, needsSession: true},
		MethodScreenshot:   {fn: handleScreenshot, needsSession: true},
		MethodGetDOMMap:    {fn: handleGetDOMMap, needsSession: true},
		MethodScroll:       {fn: handleScroll, needsSession: true},
		MethodWait:         {fn: handleWait, needsSession: true},
		MethodExecuteJS:    {fn: handleExecuteJS, needsSession: true},
		MethodClose:        {fn: handleClose},
		MethodGetPageInfo:  {fn: handleGetPageInfo},
	}
	return d
}

// Dispatch runs one request to completion and maps any failure into a
// protocol Error. The loop above is responsible for panic containment; this
// layer only deals in ordinary errors.
func (d *Dispatcher) Dispatch(ctx context.Context, method string, params stdjson.RawMessage) (interface{}, *Error) {
	h, ok := d.handlers[Method(method)]
	if !ok {
		d.logger.Warn("Unknown method requested", zap.String("method", method))
		return nil, errMethodNotFound(method)
	}

	if h.needsSession && !d.session.Ready() {
		return nil, errNotInitialized()
	}

	result, err := h.fn(ctx, d.session, params)
	if err != nil {
		return nil, d.toProtocolError(method, err)
	}
	return result, nil
}

// toProtocolError classifies a handler error. Typed *Error values pass
// through untouched; anything else is a driver-side failure reported with its
// message and the wrapped chain as the diagnostic trace.
func (d *Dispatcher) toProtocolError(method string, err error) *Error {
	var rpcErr *Error
	if errors.As(err, &rpcErr) {
		return rpcErr
	}

	if errors.Is(err, driver.ErrElementNotFound) {
		return &Error{Code: CodeGenericError, Message: err.Error()}
	}

	d.logger.Error("Handler failed", zap.String("method", method), zap.Error(err))
	return &Error{
		Code:    CodeGenericError,
		Message: err.Error(),
		Data:    map[string]string{"trace": fmt.Sprintf("%+v", err)},
	}
}

// decodeParams unmarshals the params object into v. Absent params decode as
// an empty object.
func decodeParams(params stdjson.RawMessage, v interface{}) error {
	if len(params) == 0 {
		return nil
	}
	if err := json.Unmarshal(params, v); err != nil {
		return errInvalidParams(err)
	}
	return nil
}
