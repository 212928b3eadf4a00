package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apihttp "github.com/GoSim-25-26J-441/nft-studio-backend/internal/api/http"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/auth"
	"github.com/GoSim-25-26J-441/nft-studio-backend/internal/batches"
	"github.com/GoSim-25-26J-441/nft-studio-backend/pkg/logger"
)

// ownedRun loads a run and hides runs of other users.
func (h *Handler) ownedRun(ctx context.Context, uid, id string) (*batches.Run, error) {
	run, err := h.runs.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if run.OwnerID != uid {
		return nil, batches.ErrRunNotFound
	}
	return run, nil
}

func (h *Handler) getBatch(c *gin.Context) {
	run, err := h.ownedRun(c.Request.Context(), auth.UserFirebaseUID(c), c.Param("id"))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "batch": run})
}

func (h *Handler) listBatches(c *gin.Context) {
	ctx := c.Request.Context()
	uid := auth.UserFirebaseUID(c)

	ids, err := h.runs.ListByProject(ctx, c.Param("id"))
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}
	out := make([]*batches.Run, 0, len(ids))
	for _, id := range ids {
		run, err := h.ownedRun(ctx, uid, id)
		if errors.Is(err, batches.ErrRunNotFound) {
			// expired or foreign
			continue
		}
		if err != nil {
			apihttp.WriteError(c, err)
			return
		}
		out = append(out, run)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "batches": out})
}

// streamBatch streams batch progress using Server-Sent Events. Updates
// arrive on the run's redis channel; the stream ends with the run.
func (h *Handler) streamBatch(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	run, err := h.ownedRun(ctx, auth.UserFirebaseUID(c), id)
	if err != nil {
		apihttp.WriteError(c, err)
		return
	}

	sub := h.runs.Subscribe(ctx, id)
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		apihttp.WriteError(c, fmt.Errorf("subscribe to batch events: %w", err))
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		apihttp.WriteError(c, errors.New("streaming unsupported"))
		return
	}

	// The subscription is open before the initial read, so no update is lost
	// between the two.
	if latest, err := h.runs.Get(ctx, id); err == nil {
		run = latest
	}
	writeEvent(c, flusher, "initial", run)
	if run.Done() {
		return
	}

	keepAlive := time.NewTicker(15 * time.Second)
	defer keepAlive.Stop()
	messages := sub.Channel()

	for {
		select {
		case <-ctx.Done():
			return

		case <-keepAlive.C:
			fmt.Fprint(c.Writer, ": keep-alive\n\n")
			flusher.Flush()

		case msg, ok := <-messages:
			if !ok {
				return
			}
			var update batches.Run
			if err := json.Unmarshal([]byte(msg.Payload), &update); err != nil {
				logger.FromContext(ctx).Warn().Err(err).Str("batch_id", id).Msg("bad batch event")
				continue
			}
			writeEvent(c, flusher, "update", &update)
			if update.Done() {
				writeEvent(c, flusher, "done", &update)
				return
			}
		}
	}
}

func writeEvent(c *gin.Context, flusher http.Flusher, event string, run *batches.Run) {
	data, _ := json.Marshal(gin.H{"batch": run})
	fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", event, data)
	flusher.Flush()
}
