package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
)

// handleSSE opens a long-lived streaming session: one fresh protocol
// server, one registry record, one event loop. Everything is released
// when the client disconnects, normally or abnormally.
func (b *HTTPBinding) handleSSE(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeRPCError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "Method not allowed: use GET")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := newSSESession(uuid.NewString(), b.factory())
	if err := sess.srv.RegisterSession(r.Context(), sess); err != nil {
		b.logger.Error("registering SSE session failed", "error", err)
		http.Error(w, "failed to open session", http.StatusInternalServerError)
		return
	}
	b.registry.add(sess)
	b.logger.Info("sse session opened", "sessionId", sess.id, "open", b.registry.Len())

	defer func() {
		sess.close()
		b.registry.remove(sess.id)
		sess.srv.UnregisterSession(r.Context(), sess.id)
		b.logger.Info("sse session closed", "sessionId", sess.id, "open", b.registry.Len())
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// First event tells the client where to POST its messages.
	fmt.Fprintf(w, "event: endpoint\ndata: /messages?sessionId=%s\n\n", sess.id)
	flusher.Flush()

	for {
		select {
		case data := <-sess.events:
			fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
			flusher.Flush()
		case notif := <-sess.notifs:
			if data, err := json.Marshal(notif); err == nil {
				fmt.Fprintf(w, "event: message\ndata: %s\n\n", data)
				flusher.Flush()
			}
		case <-r.Context().Done():
			return
		}
	}
}

// handleMessages accepts an out-of-band client-to-server message tagged
// with a session identifier and routes it to the matching live session.
// The protocol response travels back over the session's event stream;
// the POST itself only acknowledges receipt.
func (b *HTTPBinding) handleMessages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeRPCError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "Method not allowed: use POST")
		return
	}

	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		writeRPCError(w, http.StatusBadRequest, codeSessionNotFound, "missing sessionId query parameter")
		return
	}

	sess, ok := b.registry.get(sessionID)
	if !ok {
		b.logger.Warn("message for unknown session", "sessionId", sessionID)
		writeRPCError(w, http.StatusNotFound, codeSessionNotFound, fmt.Sprintf("no open session with id %s", sessionID))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeRPCError(w, http.StatusBadRequest, codeParseError, "failed to read request body")
		return
	}

	// Handle on a detached context: closing this POST (or even the SSE
	// stream) must not cancel an in-flight pipeline run. The result is
	// queued for the stream and simply dropped if the session is gone.
	go func() {
		ctx := sess.srv.WithContext(context.Background(), sess)
		if response := sess.srv.HandleMessage(ctx, body); response != nil {
			sess.enqueueMessage(response)
		}
	}()

	w.WriteHeader(http.StatusAccepted)
}
