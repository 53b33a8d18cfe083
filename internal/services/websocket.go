package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a WebSocket client
type Client struct {
	ID   uint
	Role string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			log.Printf("Client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("Client %d disconnected", client.ID)

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.ID == userID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastToRole sends a message to all users of a specific role
func (h *Hub) BroadcastToRole(role string, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.Role == role {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocket message types
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// RequestOffer is a new service request landing in a provider's inbox
type RequestOffer struct {
	RequestID  uint    `json:"requestId"`
	InboxID    uint    `json:"inboxId"`
	PetName    string  `json:"petName"`
	Date       string  `json:"date"`
	Time       string  `json:"time,omitempty"`
	DistanceKm float64 `json:"distanceKm"`
	Earnings   float64 `json:"earnings"`
}

// RequestClaimed tells the losing providers the request has been taken
type RequestClaimed struct {
	RequestID uint `json:"requestId"`
}

// BookingConfirmed tells the owner a provider accepted their request
type BookingConfirmed struct {
	RequestID    uint    `json:"requestId"`
	BookingID    uint    `json:"bookingId"`
	ProviderID   uint    `json:"providerId"`
	ProviderName string  `json:"providerName"`
	Price        float64 `json:"price"`
}

// SOSRaised is broadcast to the counterparty of a booking under alarm
type SOSRaised struct {
	BookingID uint    `json:"bookingId"`
	RaisedBy  uint    `json:"raisedBy"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Message   string  `json:"message,omitempty"`
}

// WalkPosition is a live tracking point for owners and trip-share viewers
type WalkPosition struct {
	BookingID uint    `json:"bookingId"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
}

// SendRequestOffer notifies a provider's device of a new inbox entry
func (h *Hub) SendRequestOffer(providerUserID uint, offer RequestOffer) {
	h.sendTyped(providerUserID, "request_offer", offer)
}

// SendRequestClaimed notifies a provider their entry was dismissed
func (h *Hub) SendRequestClaimed(providerUserID uint, claimed RequestClaimed) {
	h.sendTyped(providerUserID, "request_claimed", claimed)
}

// SendBookingConfirmed notifies the owner of a confirmed booking
func (h *Hub) SendBookingConfirmed(ownerUserID uint, confirmed BookingConfirmed) {
	h.sendTyped(ownerUserID, "booking_confirmed", confirmed)
}

// SendSOS notifies a user of an SOS alert on one of their bookings
func (h *Hub) SendSOS(userID uint, alert SOSRaised) {
	h.sendTyped(userID, "sos_alert", alert)
}

// SendWalkPosition pushes a live tracking point to the owner
func (h *Hub) SendWalkPosition(ownerUserID uint, position WalkPosition) {
	h.sendTyped(ownerUserID, "walk_position", position)
}

func (h *Hub) sendTyped(userID uint, msgType string, data interface{}) {
	message := WebSocketMessage{Type: msgType, Data: data}
	payload, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling %s message: %v", msgType, err)
		return
	}
	h.BroadcastToUser(userID, payload)
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, role string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:   userID,
		Role: role,
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
	}

	client.Hub.register <- client

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump pumps messages from the websocket connection to the hub
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var wsMessage WebSocketMessage
		if err := json.Unmarshal(message, &wsMessage); err != nil {
			log.Printf("Error unmarshaling WebSocket message: %v", err)
			continue
		}

		// Clients only listen on this socket; anything they send is
		// logged and ignored, mutations go through the REST surface.
		log.Printf("Ignoring inbound %q message from client %d", wsMessage.Type, c.ID)
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
