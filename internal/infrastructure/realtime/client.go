package realtime

import (
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/freshcart/delivery-service/internal/api/metrics"
	"github.com/freshcart/delivery-service/internal/core/domain"
	"github.com/freshcart/delivery-service/internal/core/ports"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 100 << 10
	sendBuffer     = 64
)

// Ingestor accepts streamed samples without waiting for the outcome.
type Ingestor interface {
	Enqueue(in ports.IngestInput) bool
}

// Validator checks decoded event payloads.
type Validator interface {
	Validate(i any) error
}

// Client is one websocket connection. It may observe any number of topics and
// may also publish driver positions.
type Client struct {
	id        string
	hub       *Hub
	conn      *websocket.Conn
	ingest    Ingestor
	validate  Validator
	principal *domain.Principal
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       zerolog.Logger
}

// NewClient wraps an upgraded connection. principal may be nil.
func NewClient(hub *Hub, conn *websocket.Conn, ingest Ingestor, validate Validator, principal *domain.Principal, log zerolog.Logger) *Client {
	id := uuid.NewString()
	return &Client{
		id:        id,
		hub:       hub,
		conn:      conn,
		ingest:    ingest,
		validate:  validate,
		principal: principal,
		send:      make(chan []byte, sendBuffer),
		done:      make(chan struct{}),
		log:       log.With().Str("conn_id", id).Logger(),
	}
}

// ID returns the connection id.
func (c *Client) ID() string { return c.id }

// Deliver queues a frame for the write pump. A full buffer closes the client.
func (c *Client) Deliver(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- frame:
		return true
	default:
		c.close()
		return false
	}
}

// Serve runs the write pump in the background and the read pump on the
// calling goroutine. It returns once the connection is closed and the client
// has left every topic.
func (c *Client) Serve() {
	metrics.RealtimeConnections.Inc()
	defer metrics.RealtimeConnections.Dec()

	c.log.Debug().Msg("connection opened")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.writePump()
	}()

	c.readPump()

	left := c.hub.Disconnect(c)
	c.close()
	wg.Wait()
	c.log.Debug().Int("topics_left", left).Msg("connection closed")
}

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *Client) readPump() {
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug().Err(err).Msg("connection read failed")
			}
			return
		}
		c.handle(message)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
			return
		case frame := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// handle dispatches one inbound frame. Malformed frames and unknown events
// are ignored.
func (c *Client) handle(message []byte) {
	var frame inboundFrame
	if err := json.Unmarshal(message, &frame); err != nil {
		c.log.Debug().Err(err).Msg("ignoring malformed frame")
		return
	}

	switch frame.Event {
	case EventJoinDelivery, EventLeaveDelivery:
		var ref deliveryRef
		if !c.decode(frame, &ref) {
			return
		}
		topic := domain.DeliveryTopic(string(ref.DeliveryID))
		if frame.Event == EventJoinDelivery {
			c.hub.Subscribe(c, topic)
		} else {
			c.hub.Unsubscribe(c, topic)
		}
	case EventJoinOrder, EventLeaveOrder:
		var ref orderRef
		if !c.decode(frame, &ref) {
			return
		}
		topic := domain.OrderTopic(string(ref.OrderID))
		if frame.Event == EventJoinOrder {
			c.hub.Subscribe(c, topic)
		} else {
			c.hub.Unsubscribe(c, topic)
		}
	case EventDriverLocation:
		var raw ports.RawSample
		if err := json.Unmarshal(frame.Data, &raw); err != nil || raw == nil {
			c.log.Debug().Msg("ignoring driver_location without an object payload")
			return
		}
		if !c.ingest.Enqueue(ports.IngestInput{Raw: raw, Principal: c.principal, Transport: TransportWebsocket}) {
			c.log.Warn().Msg("ingest queue closed, sample dropped")
		}
	default:
		c.log.Debug().Str("event", frame.Event).Msg("ignoring unknown event")
	}
}

func (c *Client) decode(frame inboundFrame, dst any) bool {
	if err := json.Unmarshal(frame.Data, dst); err != nil {
		c.log.Debug().Err(err).Str("event", frame.Event).Msg("ignoring malformed payload")
		return false
	}
	if err := c.validate.Validate(dst); err != nil {
		c.log.Debug().Err(err).Str("event", frame.Event).Msg("ignoring invalid payload")
		return false
	}
	return true
}
