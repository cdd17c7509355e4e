package http

import (
	"context"
	"log"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"quizwizz-play/internal/app"
	"quizwizz-play/internal/play"
)

type WSHandler struct {
	service  *app.PlayService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.PlayService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type selectPayload struct {
	Option int `json:"option"`
}

type gapPayload struct {
	Gap    int `json:"gap"`
	Option int `json:"option"`
}

type outcomePayload struct {
	Outcome play.Outcome `json:"outcome"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage {
	return outboundMessage{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS upgrades to a websocket and plays one session over it: snapshots go out as
// "state" (plus one "result" at the end), player actions come in. Closing the socket
// quits the session.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	userID := r.URL.Query().Get("userId")
	if quizID == "" || userID == "" {
		http.Error(w, "missing quizId or userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session, _, err := h.service.Start(ctx, quizID, userID)
	if err != nil {
		_ = writeMessage(conn, errorMessage(err.Error()))
		return
	}
	defer func() {
		if err := h.service.Quit(context.Background(), session.ID, userID); err != nil {
			log.Printf("ws quit session %s: %v", session.ID, err)
		}
	}()

	updates, cancel, err := h.service.Subscribe(ctx, session.ID, userID)
	if err != nil {
		_ = writeMessage(conn, errorMessage(err.Error()))
		return
	}
	defer cancel()

	send := make(chan outboundMessage, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	push := func(msg outboundMessage) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	// single writer: gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := writeMessage(conn, msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		resultSent := false
		for {
			select {
			case snap, ok := <-updates:
				if !ok {
					return
				}
				msgs := []outboundMessage{{Type: "state", Payload: snap}}
				if snap.Phase == play.PhaseTerminal && snap.Result != nil && !resultSent {
					resultSent = true
					msgs = append(msgs, outboundMessage{Type: "result", Payload: snap.Result})
				}
				for _, msg := range msgs {
					select {
					case send <- msg:
					case <-closeSignals:
						return
					case <-writerDone:
						return
					}
				}
			case <-closeSignals:
				return
			}
		}
	}()

	h.readLoop(ctx, conn, session.ID, userID, push)

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, sessionID, userID string, push func(outboundMessage)) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var inbound inboundMessage
		if err := json.Unmarshal(raw, &inbound); err != nil {
			push(errorMessage("invalid message"))
			continue
		}

		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(errorMessage("invalid select payload"))
				continue
			}
			_, err = h.service.Select(ctx, sessionID, userID, payload.Option)
		case "gap":
			var payload gapPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				push(errorMessage("invalid gap payload"))
				continue
			}
			_, err = h.service.SelectGap(ctx, sessionID, userID, payload.Gap, payload.Option)
		case "submit":
			var outcome play.Outcome
			outcome, _, err = h.service.Submit(ctx, sessionID, userID)
			if err == nil {
				push(outboundMessage{Type: "outcome", Payload: outcomePayload{Outcome: outcome}})
			}
		case "continue":
			_, err = h.service.Continue(ctx, sessionID, userID)
		case "quit":
			if err := h.service.Quit(ctx, sessionID, userID); err != nil {
				push(errorMessage(err.Error()))
			}
			return
		default:
			push(errorMessage("unsupported message type"))
			continue
		}
		if err != nil {
			push(errorMessage(err.Error()))
		}
	}
}

func writeMessage(conn *websocket.Conn, msg outboundMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, raw)
}
