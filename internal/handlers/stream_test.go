package handlers

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/services"
)

func TestWriteEventStreamFrames(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/qa/ask", nil)

	events := make(chan services.StreamEvent, 4)
	events <- services.StreamEvent{Type: services.EventToken, Content: "Hello"}
	events <- services.StreamEvent{Type: services.EventDone, Content: "Hello", SessionID: "s1"}
	close(events)

	writeEventStream(c, logger.NewNop(), events)

	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache", w.Header().Get("Cache-Control"))
	assert.Equal(t, "no", w.Header().Get("X-Accel-Buffering"))

	body := w.Body.String()
	assert.Contains(t, body, "event: token\n")
	assert.Contains(t, body, `data: {"type":"token","content":"Hello"}`)
	assert.Contains(t, body, "event: done\n")
	assert.Contains(t, body, `"session_id":"s1"`)
}

func TestWriteEventStreamStopsOnClosedChannel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/qa/ask", nil)

	events := make(chan services.StreamEvent)
	close(events)

	writeEventStream(c, logger.NewNop(), events)
	assert.Empty(t, w.Body.String())
}
