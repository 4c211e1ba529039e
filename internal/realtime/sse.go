package realtime

import (
	"log/slog"
	"net/http"

	"github.com/msomdec/postfeed/internal/domain"
	"github.com/msomdec/postfeed/internal/handler"
	"github.com/starfederation/datastar-go/datastar"
)

// EventsHandler streams post events as Datastar element patches: new posts
// are prepended to the feed, updated posts replace their card and deleted
// posts remove it.
type EventsHandler struct {
	hub *Hub
}

// NewEventsHandler creates an EventsHandler.
func NewEventsHandler(hub *Hub) *EventsHandler {
	return &EventsHandler{hub: hub}
}

func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sub := h.hub.Subscribe()
	defer sub.Close()

	sse := datastar.NewSSE(w, r)
	for {
		select {
		case <-r.Context().Done():
			return
		case ev, ok := <-sub.Events():
			if !ok {
				return
			}
			if err := patch(sse, ev); err != nil {
				slog.Debug("sse write", "subscriber", sub.ID, "error", err)
				return
			}
		}
	}
}

func patch(sse *datastar.ServerSentEventGenerator, ev domain.PostEvent) error {
	dto := handler.ToPostDTO(ev.Post)
	switch ev.Action {
	case domain.PostCreated:
		return sse.PatchElementTempl(PostCard(dto),
			datastar.WithSelectorID(FeedElementID),
			datastar.WithModePrepend(),
		)
	case domain.PostUpdated:
		return sse.PatchElementTempl(PostCard(dto))
	case domain.PostDeleted:
		return sse.RemoveElementByID(PostElementID(dto.ID))
	default:
		return nil
	}
}
