package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/michaelbrown/evalbox/internal/evalclient"
	"github.com/michaelbrown/evalbox/internal/storage"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // the sandbox token is the real gate
	},
}

// wsIncoming is a message from the client.
type wsIncoming struct {
	Type            string            `json:"type"`
	Code            string            `json:"code"`
	Files           map[string]string `json:"files,omitempty"`
	Strace          bool              `json:"strace,omitempty"`
	InterpreterMode bool              `json:"interpreter_mode,omitempty"`
}

// wsOutgoing is a message to the client.
type wsOutgoing struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Output string `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// handleWebSocket serves an interactive eval session. Each incoming "exec"
// message is one full sandbox round trip; snippets do not share state, the
// remote container is ephemeral.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	for {
		var msg wsIncoming
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return
			}
			log.Printf("websocket read error: %v", err)
			return
		}

		if msg.Type != "exec" {
			wsWriteJSON(conn, wsOutgoing{Type: "error", Error: "invalid message type"})
			continue
		}

		s.processExec(conn, msg)
	}
}

func (s *Server) processExec(conn *websocket.Conn, msg wsIncoming) {
	ctx := context.Background()

	started := time.Now()
	output, err := s.client.Exec(ctx, evalclient.Request{
		Code:            msg.Code,
		Files:           msg.Files,
		Strace:          msg.Strace,
		InterpreterMode: msg.InterpreterMode,
	})
	if err != nil {
		wsWriteJSON(conn, wsOutgoing{Type: "error", Error: "sandbox unreachable: " + err.Error()})
		return
	}

	run := &storage.Run{
		ID:              uuid.New().String(),
		Source:          storage.SourceSocket,
		Code:            msg.Code,
		Output:          output,
		Strace:          msg.Strace,
		InterpreterMode: msg.InterpreterMode,
		Duration:        time.Since(started),
	}
	if err := s.store.CreateRun(ctx, run); err != nil {
		log.Printf("failed to record ws run: %v", err)
	}

	wsWriteJSON(conn, wsOutgoing{Type: "result", ID: run.ID, Output: output})
}

func wsWriteJSON(conn *websocket.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("websocket marshal error: %v", err)
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("websocket write error: %v", err)
	}
}
