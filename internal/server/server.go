// Package server exposes the WhatsApp webhook over HTTP.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"jiva/internal/logging"
	"jiva/internal/whatsapp"
)

// Handler processes one parsed inbound message. Processing happens after
// the webhook has been acknowledged, so errors are logged, not returned
// to Meta.
type Handler interface {
	HandleIncoming(ctx context.Context, in whatsapp.Incoming) error
}

type Server struct {
	addr        string
	verifyToken string
	handler     Handler
	log         *zap.Logger
}

func New(addr, verifyToken string, handler Handler) *Server {
	return &Server{
		addr:        addr,
		verifyToken: verifyToken,
		handler:     handler,
		log:         logging.Named("server"),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/webhook", s.handleWebhook)
	return mux
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("webhook server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down webhook server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return ctx.Err()
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "Jiva is alive and listening"})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.verify(w, r)
	case http.MethodPost:
		s.receive(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// verify answers Meta's webhook subscription handshake by echoing the
// challenge when the verify token matches.
func (s *Server) verify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mode := q.Get("hub.mode")
	token := q.Get("hub.verify_token")
	challenge := q.Get("hub.challenge")

	if mode == "" || token == "" {
		http.Error(w, "missing verification parameters", http.StatusBadRequest)
		return
	}
	if mode != "subscribe" || token != s.verifyToken {
		s.log.Warn("webhook verification rejected", zap.String("mode", mode))
		http.Error(w, "verification failed", http.StatusForbidden)
		return
	}

	s.log.Info("webhook verified")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(challenge))
}

// receive acknowledges the delivery immediately and processes the
// message in the background, as Meta retries any webhook that does not
// return 200 quickly.
func (s *Server) receive(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "unreadable body", http.StatusBadRequest)
		return
	}

	var payload whatsapp.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		s.log.Warn("undecodable webhook payload", zap.Error(err))
		w.WriteHeader(http.StatusOK)
		return
	}

	w.WriteHeader(http.StatusOK)

	in, ok := whatsapp.ParseIncoming(&payload)
	if !ok {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()
		if err := s.handler.HandleIncoming(ctx, in); err != nil {
			s.log.Error("message processing failed", zap.String("from", in.From), zap.Error(err))
		}
	}()
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
