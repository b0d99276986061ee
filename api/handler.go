package api

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"chat-relay/domain"
	chaterrors "chat-relay/errors"
	"chat-relay/observability"
	"chat-relay/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shirou/gopsutil/process"
)

// userHeader carries the caller-asserted identity. The relay trusts it as
// given; identity verification is out of scope.
const userHeader = "User"

type Handler struct {
	registry services.IRegistry
	messages services.IMessageStore
	gate     services.SessionGate
	stats    *observability.RelayStats
	log      *slog.Logger
}

func NewHandler(
	registry services.IRegistry,
	messages services.IMessageStore,
	gate services.SessionGate,
	stats *observability.RelayStats,
	log *slog.Logger,
) *Handler {
	return &Handler{
		registry: registry,
		messages: messages,
		gate:     gate,
		stats:    stats,
		log:      log,
	}
}

// Register handles POST /participants.
func (h *Handler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "name must not be blank"})
		return
	}

	if err := h.registry.Register(name); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusCreated)
}

// ListParticipants handles GET /participants.
func (h *Handler) ListParticipants(c *gin.Context) {
	participants, err := h.registry.List()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toParticipantResponses(participants))
}

// PostMessage handles POST /messages. Membership of the author is verified
// inside the message store on every post.
func (h *Handler) PostMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	from := h.caller(c)
	kind, err := domain.ParseKind(req.Type)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messages.Post(from, req.To, req.Text, kind)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMessageResponse(msg))
}

// ListMessages handles GET /messages. The window is scoped to the caller:
// broadcasts, messages addressed to them, and their own.
func (h *Handler) ListMessages(c *gin.Context) {
	viewer := h.caller(c)
	window, err := h.messages.ListVisible(viewer, parseLimit(c.Query("limit")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponses(window))
}

// RefreshStatus handles POST /status, the liveness heartbeat.
func (h *Handler) RefreshStatus(c *gin.Context) {
	if err := h.registry.Touch(h.caller(c)); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// EditMessage handles PUT /messages/:id.
func (h *Handler) EditMessage(c *gin.Context) {
	var req postMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	byName := h.caller(c)
	if err := h.gate.Authorize(byName); err != nil {
		h.fail(c, err)
		return
	}

	kind, err := domain.ParseKind(req.Type)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	if err := h.messages.Edit(id, byName, req.To, req.Text, kind); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// DeleteMessage handles DELETE /messages/:id.
func (h *Handler) DeleteMessage(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.Status(http.StatusNotFound)
		return
	}

	byName := h.caller(c)
	if err := h.gate.Authorize(byName); err != nil {
		h.fail(c, err)
		return
	}

	if err := h.messages.Delete(id, byName); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusOK)
}

// SearchMessages handles GET /messages/search.
func (h *Handler) SearchMessages(c *gin.Context) {
	terms := strings.TrimSpace(c.Query("q"))
	if terms == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "query parameter q is required"})
		return
	}

	viewer := h.caller(c)
	matches, err := h.messages.Search(c.Request.Context(), viewer, terms, parseLimit(c.Query("limit")))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, toMessageResponses(matches))
}

// Stats handles GET /stats: relay counters plus self metrics of the process.
func (h *Handler) Stats(c *gin.Context) {
	response := gin.H{"relay": h.stats.Snapshot()}

	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if memInfo, err := p.MemoryInfo(); err == nil {
			response["ram_bytes"] = memInfo.RSS
		}
		if cpu, err := p.CPUPercent(); err == nil {
			response["cpu_percent"] = cpu
		}
	}
	c.JSON(http.StatusOK, response)
}

// Health handles GET /health with a cheap round trip through the store.
func (h *Handler) Health(c *gin.Context) {
	if _, err := h.registry.List(); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) caller(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(userHeader))
}

// fail maps domain outcomes to transport statuses. Anything unmapped is a
// persistence failure: logged here, surfaced as a blank 500.
func (h *Handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, chaterrors.ErrNameTaken):
		c.Status(http.StatusConflict)
	case errors.Is(err, chaterrors.ErrNotFound):
		c.Status(http.StatusNotFound)
	case errors.Is(err, chaterrors.ErrForbidden):
		c.Status(http.StatusUnauthorized)
	case errors.Is(err, chaterrors.ErrNotRegistered):
		c.Status(http.StatusUnprocessableEntity)
	default:
		h.log.Error("Request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err)
		c.Status(http.StatusInternalServerError)
	}
}

// parseLimit turns the raw query value into a window size. Absent, malformed
// or non-positive values all resolve to 0, which the store replaces with its
// configured default.
func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0
	}
	return limit
}
