package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/gcbaptista/go-facet-browser/internal/browser"
	internalErrors "github.com/gcbaptista/go-facet-browser/internal/errors"
	"github.com/gcbaptista/go-facet-browser/model"
	"github.com/gcbaptista/go-facet-browser/services"
)

const (
	wsWriteWait   = 10 * time.Second
	wsPongWait    = 60 * time.Second
	wsPingPeriod  = (wsPongWait * 9) / 10
	wsMaxReadSize = 4096
)

// Message types exchanged on /ws/status.
const (
	WSMessageStatus = "status" // Server: browser status after a change
	WSMessageSearch = "search" // Client: debounced query; server: its outcome
	WSMessageError  = "error"  // Server: a client search failed
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WSMessage is one frame on the status socket.
type WSMessage struct {
	Type    string                  `json:"type"`
	Query   string                  `json:"query,omitempty"`
	Status  *services.Status        `json:"status,omitempty"`
	Outcome *services.SearchOutcome `json:"outcome,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Code    ErrorCode               `json:"code,omitempty"`
}

// StatusWebSocketHandler streams the browser status, starting with the
// current one. Clients may send {"type":"search","query":"..."} frames while
// typing; queries are debounced and only the last one runs.
func (api *API) StatusWebSocketHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already replied with an HTTP error
		log.Printf("Warning: websocket upgrade failed: %v", err)
		return
	}
	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("Warning: failed to close websocket: %v", err)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates, unsubscribe := api.browser.Subscribe()
	defer unsubscribe()

	debouncer := browser.NewDebouncer(api.debounce)
	defer debouncer.Stop()

	replies := make(chan WSMessage, 4)
	go api.readSearches(ctx, cancel, conn, debouncer, replies)

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		var msg WSMessage
		select {
		case <-ctx.Done():
			return
		case status, ok := <-updates:
			if !ok {
				return
			}
			msg = WSMessage{Type: WSMessageStatus, Status: &status}
		case msg = <-replies:
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
			continue
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// readSearches reads client frames until the connection fails and cancels
// ctx when it does. gorilla/websocket allows one concurrent reader, so all
// reads happen here.
func (api *API) readSearches(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, debouncer *browser.Debouncer, replies chan<- WSMessage) {
	defer cancel()

	conn.SetReadLimit(wsMaxReadSize)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Warning: websocket read failed: %v", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Type != WSMessageSearch {
			reply(ctx, replies, WSMessage{Type: WSMessageError, Code: ErrorCodeInvalidRequest,
				Error: "expected {\"type\":\"search\",\"query\":\"...\"}"})
			continue
		}

		query := strings.TrimSpace(msg.Query)
		debouncer.Do(func() {
			startTime := time.Now()
			outcome, err := api.browser.Search(ctx, query)
			switch {
			case err == nil:
				api.trackSearch(outcome, model.SearchChannelWebSocket, time.Since(startTime))
				reply(ctx, replies, WSMessage{Type: WSMessageSearch, Query: query, Outcome: &outcome})
			case errors.Is(err, internalErrors.ErrSuperseded), ctx.Err() != nil:
				// A newer query or a closed socket owns the result
			default:
				reply(ctx, replies, WSMessage{Type: WSMessageError, Query: query, Code: wsErrorCode(err), Error: err.Error()})
			}
		})
	}
}

func reply(ctx context.Context, replies chan<- WSMessage, msg WSMessage) {
	select {
	case replies <- msg:
	case <-ctx.Done():
	}
}

func wsErrorCode(err error) ErrorCode {
	var loadErr *internalErrors.DatasetLoadError
	switch {
	case errors.As(err, &loadErr):
		return ErrorCodeDatasetLoadFailed
	case errors.Is(err, internalErrors.ErrDatasetNotLoaded):
		return ErrorCodeNotLoaded
	case errors.Is(err, internalErrors.ErrIndexInProgress):
		return ErrorCodeIndexInProgress
	case errors.Is(err, internalErrors.ErrStaleGeneration):
		return ErrorCodeStaleGeneration
	}
	return ErrorCodeSearchFailed
}
