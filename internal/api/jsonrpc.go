package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/steemit/feedsync/pkg/logging"
	"github.com/steemit/feedsync/pkg/telemetry"
)

// JSONRPCRequest represents a JSON-RPC 2.0 request
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response
type JSONRPCResponse struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      interface{}   `json:"id"`
	Result  interface{}   `json:"result,omitempty"`
	Error   *JSONRPCError `json:"error,omitempty"`
}

// JSONRPCError represents a JSON-RPC error
type JSONRPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MethodHandler is a function that handles a JSON-RPC method
type MethodHandler func(ctx *gin.Context, params json.RawMessage) (interface{}, error)

// JSONRPCHandler handles JSON-RPC requests
type JSONRPCHandler struct {
	methods  map[string]MethodHandler
	logger   *zap.Logger
	requests metric.Int64Counter
}

// NewJSONRPCHandler creates a new JSON-RPC handler
func NewJSONRPCHandler() *JSONRPCHandler {
	return &JSONRPCHandler{
		methods:  make(map[string]MethodHandler),
		logger:   logging.WithComponent("jsonrpc"),
		requests: telemetry.Counter("feedsync.rpc.requests", "JSON-RPC requests by method and outcome"),
	}
}

// RegisterMethod registers a method handler
func (h *JSONRPCHandler) RegisterMethod(method string, handler MethodHandler) {
	h.methods[method] = handler
}

// Handle handles a JSON-RPC request
func (h *JSONRPCHandler) Handle(c *gin.Context) {
	ctx, span := telemetry.StartSpan(c.Request.Context(), "jsonrpc.handle")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	logger := h.logger
	if sc := span.SpanContext(); sc.HasTraceID() {
		logger = logging.WithTraceID(logger, sc.TraceID().String())
	}

	var req JSONRPCRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.sendError(c, logger, nil, ErrParseError, "Parse error", err)
		return
	}

	if req.JSONRPC != "2.0" {
		h.sendError(c, logger, req.ID, ErrInvalidRequest, "Invalid Request", fmt.Errorf("invalid jsonrpc version"))
		return
	}

	span.SetAttributes(attribute.String("rpc.method", req.Method))

	handler, ok := h.methods[req.Method]
	if !ok {
		h.count(c, req.Method, "not_found")
		h.sendError(c, logger, req.ID, ErrMethodNotFound, "Method not found", fmt.Errorf("method %s not found", req.Method))
		return
	}

	result, err := invoke(c, handler, req.Params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.count(c, req.Method, "error")

		var apiErr *Error
		if errors.As(err, &apiErr) {
			h.sendError(c, logger, req.ID, apiErr.Code, apiErr.Message, nil)
			return
		}
		var panicErr *methodPanic
		if errors.As(err, &panicErr) {
			h.sendError(c, logger, req.ID, ErrInternalError, "Internal error", err)
			return
		}
		h.sendError(c, logger, req.ID, ErrServerError, "Server error", err)
		return
	}

	h.count(c, req.Method, "ok")
	h.sendResponse(c, req.ID, result)
}

// methodPanic is a panic raised inside a method handler
type methodPanic struct {
	value interface{}
}

func (p *methodPanic) Error() string {
	return fmt.Sprintf("method panicked: %v", p.value)
}

func invoke(c *gin.Context, handler MethodHandler, params json.RawMessage) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &methodPanic{value: r}
		}
	}()
	return handler(c, params)
}

func (h *JSONRPCHandler) count(c *gin.Context, method, outcome string) {
	h.requests.Add(c.Request.Context(), 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
}

// sendResponse sends a successful JSON-RPC response
func (h *JSONRPCHandler) sendResponse(c *gin.Context, id interface{}, result interface{}) {
	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
	c.JSON(http.StatusOK, resp)
}

// sendError sends an error JSON-RPC response. Internal errors are logged and
// their text is returned as data; typed API errors carry their own message.
func (h *JSONRPCHandler) sendError(c *gin.Context, logger *zap.Logger, id interface{}, code int, message string, err error) {
	rpcErr := &JSONRPCError{
		Code:    code,
		Message: message,
	}
	if err != nil {
		logger.Error("JSON-RPC error", zap.String("message", message), zap.Error(err))
		rpcErr.Data = err.Error()
	} else {
		logger.Debug("JSON-RPC request rejected", zap.Int("code", code), zap.String("message", message))
	}

	c.JSON(http.StatusOK, JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error:   rpcErr,
	})
}

// Standard JSON-RPC error codes
const (
	ErrParseError     = -32700
	ErrInvalidRequest = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternalError  = -32603
)

// Application error codes
const (
	ErrServerError  = -32000
	ErrUnauthorized = -32001
	ErrNotFound     = -32004
)
