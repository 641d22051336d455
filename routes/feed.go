package routes

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/handsup/donation-platform/models"
	"github.com/handsup/donation-platform/utils"
)

const (
	feedWriteWait     = 5 * time.Second
	feedCleanupPeriod = 30 * time.Second
	feedBacklog       = 64
)

// FeedDonation is the public view of a confirmed donation.
type FeedDonation struct {
	ID            uint   `json:"id"`
	CampaignID    uint   `json:"campaign_id"`
	CampaignTitle string `json:"campaign_title"`
	Donor         string `json:"donor"`
	Amount        string `json:"amount"`
	Message       string `json:"message,omitempty"`
	ConfirmedAt   int64  `json:"confirmed_at"`
}

// Feed pushes confirmed donations to every connected websocket client.
type Feed struct {
	upgrader   websocket.Upgrader
	clients    map[*websocket.Conn]string
	broadcast  chan []byte
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	done       chan struct{}
	mutex      sync.Mutex
}

func NewFeed() *Feed {
	return &Feed{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		clients:    make(map[*websocket.Conn]string),
		broadcast:  make(chan []byte, feedBacklog),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		done:       make(chan struct{}),
	}
}

// Run owns the client set until ctx is cancelled. Call it once.
func (f *Feed) Run(ctx context.Context) {
	log.Printf("Donation feed started")
	cleanupTicker := time.NewTicker(feedCleanupPeriod)
	defer cleanupTicker.Stop()
	defer close(f.done)

	for {
		select {
		case <-ctx.Done():
			f.closeAll()
			log.Printf("Donation feed stopped")
			return

		case conn := <-f.register:
			id := utils.NewConnID()
			f.mutex.Lock()
			f.clients[conn] = id
			count := len(f.clients)
			f.mutex.Unlock()
			log.Printf("Feed client %s connected, %d connected", id, count)

		case conn := <-f.unregister:
			f.mutex.Lock()
			if id, ok := f.clients[conn]; ok {
				delete(f.clients, conn)
				conn.Close()
				log.Printf("Feed client %s disconnected, %d connected", id, len(f.clients))
			}
			f.mutex.Unlock()

		case message := <-f.broadcast:
			f.mutex.Lock()
			sent, failed := 0, 0
			for conn, id := range f.clients {
				conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
				if err := conn.WriteMessage(websocket.TextMessage, message); err != nil {
					log.Printf("Feed write to %s failed: %v", id, err)
					conn.Close()
					delete(f.clients, conn)
					failed++
					continue
				}
				sent++
			}
			f.mutex.Unlock()
			log.Printf("Feed broadcast delivered: %d sent, %d failed", sent, failed)

		case <-cleanupTicker.C:
			f.cleanupInvalidConnections()
		}
	}
}

func (f *Feed) cleanupInvalidConnections() {
	f.mutex.Lock()
	defer f.mutex.Unlock()

	invalid := 0
	for conn := range f.clients {
		if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(feedWriteWait)); err != nil {
			conn.Close()
			delete(f.clients, conn)
			invalid++
		}
	}
	if invalid > 0 {
		log.Printf("Cleaned up %d stale feed connections, %d remaining", invalid, len(f.clients))
	}
}

func (f *Feed) closeAll() {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	for conn := range f.clients {
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		conn.Close()
		delete(f.clients, conn)
	}
}

func (f *Feed) ClientCount() int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return len(f.clients)
}

// DonationConfirmed queues a confirmed donation for broadcast without blocking
// the confirming request.
func (f *Feed) DonationConfirmed(d models.Donation) {
	entry := FeedDonation{
		ID:            d.ID,
		CampaignID:    d.CampaignID,
		CampaignTitle: d.Campaign.Title,
		Donor:         d.DonorName(),
		Amount:        d.Amount.StringFixed(2),
		Message:       d.Message,
	}
	if d.ConfirmedAt != nil {
		entry.ConfirmedAt = d.ConfirmedAt.Unix()
	}

	data, err := json.Marshal(map[string]interface{}{
		"type":      "donation_confirmed",
		"donation":  entry,
		"timestamp": time.Now().Unix(),
	})
	if err != nil {
		log.Printf("Error marshaling feed message: %v", err)
		return
	}

	select {
	case f.broadcast <- data:
	default:
		log.Printf("Feed backlog full, dropping donation %d", d.ID)
	}
}

// Handle upgrades the request and keeps the connection registered until the
// client goes away. Clients only receive.
func (f *Feed) Handle(c *gin.Context) {
	conn, err := f.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("Error upgrading to WebSocket: %v", err)
		return
	}

	select {
	case f.register <- conn:
	case <-f.done:
		conn.Close()
		return
	}

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}
	}

	select {
	case f.unregister <- conn:
	case <-f.done:
	}
}
