package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GenyoNguyen/YouTubeLM/internal/logger"
	"github.com/GenyoNguyen/YouTubeLM/internal/services"
)

// writeEventStream drains a service event channel into the response as
// server-sent events, one frame per event, flushing after each write. It
// returns when the channel closes or the client goes away.
func writeEventStream(c *gin.Context, log *logger.Logger, events <-chan services.StreamEvent) {
	w := c.Writer
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.(http.Flusher)
	if !ok {
		log.Error("Response writer does not support streaming")
		return
	}

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			log.Debug("SSE client disconnected", "err", ctx.Err())
			return
		case ev, open := <-events:
			if !open {
				return
			}
			payload, err := json.Marshal(ev)
			if err != nil {
				log.Warn("Failed to marshal stream event", "type", ev.Type, "error", err)
				continue
			}
			fmt.Fprintf(w, "event: %s\n", ev.Type)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
		}
	}
}
