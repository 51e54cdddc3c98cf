package realtime

import (
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/freshcart/delivery-service/internal/core/domain"
)

// TransportWebsocket labels samples that arrived over the websocket channel.
const TransportWebsocket = "websocket"

// Server upgrades HTTP requests to websocket clients.
type Server struct {
	hub      *Hub
	ingest   Ingestor
	validate Validator
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

// NewServer returns a Server that accepts browser origins from allowedOrigins.
// Requests without an Origin header are accepted.
func NewServer(hub *Hub, ingest Ingestor, validate Validator, allowedOrigins []string, log zerolog.Logger) *Server {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}

	return &Server{
		hub:      hub,
		ingest:   ingest,
		validate: validate,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				if _, err := url.Parse(origin); err != nil {
					return false
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		log: log,
	}
}

// Accept upgrades the request and serves the connection until it closes.
// The upgrader has already written an error response when err is non-nil.
func (s *Server) Accept(w http.ResponseWriter, r *http.Request, principal *domain.Principal) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	NewClient(s.hub, conn, s.ingest, s.validate, principal, s.log).Serve()
	return nil
}
