package handlers

import (
	"net/http"
	"strconv"

	"shoplist-service/internal/models"
	"shoplist-service/internal/realtime"
	"shoplist-service/pkg/response"

	"github.com/gin-gonic/gin"
)

// ListStreamer serves one SSE subscription for a list.
type ListStreamer interface {
	Serve(w http.ResponseWriter, r *http.Request, listID uint)
}

// SocketServer serves one persistent socket connection.
type SocketServer interface {
	Serve(w http.ResponseWriter, r *http.Request)
}

type StreamHandler struct {
	sse       ListStreamer
	socket    SocketServer
	publisher realtime.Publisher
}

func NewStreamHandler(sse ListStreamer, socket SocketServer, publisher realtime.Publisher) *StreamHandler {
	return &StreamHandler{sse: sse, socket: socket, publisher: publisher}
}

// StreamList godoc
// @Summary Subscribe to a list's events
// @Description Server-Sent Events stream. The first record is {"type":"connected","listId":N}. The token may be passed as a query parameter for EventSource clients.
// @Tags realtime
// @Produce text/event-stream
// @Param id path int true "List ID"
// @Param token query string false "JWT when the Authorization header cannot be set"
// @Success 200 {string} string "event stream"
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id}/events [get]
func (h *StreamHandler) StreamList(c *gin.Context) {
	listID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || listID == 0 {
		response.Error(c, http.StatusBadRequest, "invalid id")
		return
	}
	h.sse.Serve(c.Writer, c.Request, uint(listID))
}

// HandleWebSocket godoc
// @Summary Open a realtime socket
// @Description Send {"type":"subscribe","listId":N} and {"type":"unsubscribe","listId":N} to choose lists. Missing or invalid tokens close the socket with code 1008.
// @Tags realtime
// @Param token query string true "JWT"
// @Success 101 {string} string "Switching Protocols"
// @Router /ws [get]
func (h *StreamHandler) HandleWebSocket(c *gin.Context) {
	h.socket.Serve(c.Writer, c.Request)
}

// InternalBroadcast godoc
// @Summary Broadcast an event from another process
// @Description Used when the API and the realtime server run separately
// @Tags internal
// @Accept json
// @Produce json
// @Param X-Internal-Secret header string true "Shared secret"
// @Param request body realtime.BroadcastRequest true "Event"
// @Success 200 {object} models.MessageResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /internal/broadcast [post]
func (h *StreamHandler) InternalBroadcast(c *gin.Context) {
	var req realtime.BroadcastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err)
		return
	}
	event, err := realtime.ParseRawEvent(req.Message)
	if err != nil {
		response.BadRequest(c, err)
		return
	}
	if err := h.publisher.Publish(c.Request.Context(), req.ListID, event); err != nil {
		response.FromError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Broadcast sent"})
}
