package server

import (
	"encoding/json"
	"net/http"

	"mobility-observer/src/models"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Hub Pattern Implementation
// -----------------------------------------------------------------------------

// handleWebsockets is the main Hub loop
func (s *APIServer) handleWebsockets() {
	for {
		select {
		case client := <-s.register:
			s.clients[client] = struct{}{}
			// Send initial state on connect
			s.stateMutex.RLock()
			if s.latestState != nil {
				client.send <- s.latestState
			}
			s.stateMutex.RUnlock()

		case client := <-s.unregister:
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				close(client.send)
			}

		case message := <-s.broadcast:
			// Update state and broadcast
			s.stateMutex.Lock()
			s.latestState = message
			s.stateMutex.Unlock()

			// Broadcast to all clients
			for client := range s.clients {
				select {
				case client.send <- message:
					// Message sent successfully
				default:
					// Client too slow, disconnect to prevent Hub blocking
					delete(s.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// -----------------------------------------------------------------------------
// Data Exchange Interface Implementation
// -----------------------------------------------------------------------------

// UpdateAllDatas merges a new result set into the cached state (Deep Merge).
// Devices absent from the new run keep their previous entries.
func (s *APIServer) UpdateAllDatas(result *models.MResultSet) {
	if result == nil {
		return
	}

	s.stateMutex.Lock()
	defer s.stateMutex.Unlock()

	if s.latestState.Devices == nil {
		s.latestState.Devices = make(map[string]models.MDeviceMetrics)
	}
	for deviceID, metrics := range result.Devices {
		s.latestState.Devices[deviceID] = metrics
	}

	if s.latestState.DeviceDays == nil {
		s.latestState.DeviceDays = make(map[string]map[string]models.MDayMetrics)
	}
	for deviceID, days := range result.DeviceDays {
		if s.latestState.DeviceDays[deviceID] == nil {
			s.latestState.DeviceDays[deviceID] = make(map[string]models.MDayMetrics)
		}
		for day, metrics := range days {
			s.latestState.DeviceDays[deviceID][day] = metrics
		}
	}

	if s.latestState.Anchors == nil {
		s.latestState.Anchors = make(map[string]models.MAnchorList)
	}
	for deviceID, anchors := range result.Anchors {
		// Anchors are whole-history rankings, latest run wins
		s.latestState.Anchors[deviceID] = anchors
	}

	if s.latestState.Trajectories == nil {
		s.latestState.Trajectories = make(map[string]map[string]models.MTrajectory)
	}
	for deviceID, days := range result.Trajectories {
		if s.latestState.Trajectories[deviceID] == nil {
			s.latestState.Trajectories[deviceID] = make(map[string]models.MTrajectory)
		}
		for day, trajectory := range days {
			s.latestState.Trajectories[deviceID][day] = trajectory
		}
	}

	s.latestState.RunID = result.RunID
	s.latestState.Timestamp = result.Timestamp
	s.latestState.ProcessingMetrics = result.ProcessingMetrics
	s.latestState.Type = "UPDATE"
}

// -----------------------------------------------------------------------------

// Broadcast queues a result set for delivery to every connected client.
func (s *APIServer) Broadcast(result *models.MResultSet) {
	if result == nil {
		return
	}
	s.broadcast <- result
}

// -----------------------------------------------------------------------------
// WebSocket Handlers
// -----------------------------------------------------------------------------

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// -----------------------------------------------------------------------------

func (s *APIServer) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.Logger.Info("Failed to upgrade websocket: %v", err)
		return
	}

	client := &Client{
		hub:  s,
		conn: conn,
		// Buffered channel to prevent blocking the Hub loop
		send: make(chan interface{}, 256),
	}

	s.register <- client

	// Start goroutines for reading/writing
	go client.writePump()
	go client.readPump()
}

// -----------------------------------------------------------------------------
// Client Message Handling
// -----------------------------------------------------------------------------

func (s *APIServer) HandleClientMessage(client *Client, message []byte) {
	var cmd models.MSubscribeCommand
	if err := json.Unmarshal(message, &cmd); err != nil {
		s.Logger.Info("Failed to parse client command: %v, disconnecting client", err)
		client.conn.Close()
		return
	}

	if cmd.Command != "subscribe" {
		return
	}

	s.stateMutex.RLock()
	response := s.deviceViewResponse(cmd.Devices)
	s.stateMutex.RUnlock()

	// Use select to avoid blocking if client's send buffer is full
	select {
	case client.send <- response:
	default:
	}
}

// -----------------------------------------------------------------------------
// Response Filtering
// -----------------------------------------------------------------------------

// deviceViewResponse snapshots the cached state filtered to the given devices.
// Caller holds stateMutex (read).
func (s *APIServer) deviceViewResponse(devices []string) *models.MResultSet {
	if len(devices) == 0 {
		snapshot := *s.latestState
		snapshot.Type = "INITIAL"
		return &snapshot
	}

	response := &models.MResultSet{
		Type:              "INITIAL",
		RunID:             s.latestState.RunID,
		Devices:           make(map[string]models.MDeviceMetrics),
		DeviceDays:        make(map[string]map[string]models.MDayMetrics),
		Anchors:           make(map[string]models.MAnchorList),
		Trajectories:      make(map[string]map[string]models.MTrajectory),
		Timestamp:         s.latestState.Timestamp,
		ProcessingMetrics: s.latestState.ProcessingMetrics,
	}

	for _, deviceID := range devices {
		if metrics, ok := s.latestState.Devices[deviceID]; ok {
			response.Devices[deviceID] = metrics
		}
		if days, ok := s.latestState.DeviceDays[deviceID]; ok {
			response.DeviceDays[deviceID] = days
		}
		if anchors, ok := s.latestState.Anchors[deviceID]; ok {
			response.Anchors[deviceID] = anchors
		}
		if trajectories, ok := s.latestState.Trajectories[deviceID]; ok {
			response.Trajectories[deviceID] = trajectories
		}
	}

	return response
}
