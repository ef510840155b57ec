package websocket

import (
	"time"

	"codeberg.org/citelens/server/internal/logger"
	"codeberg.org/citelens/server/internal/progress"
)

func NewHub() *Hub {
	return &Hub{
		reports:       make(map[string]map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		events:        make(chan progress.Event, eventBufferSize),
		latest:        make(map[string]progress.Event),
		sequences:     make(map[string]uint64),
		ipConnections: make(map[string]int),
		shutdown:      make(chan struct{}),
	}
}

// queues a run event for delivery; never blocks the publishing run
func (h *Hub) Publish(e progress.Event) {
	select {
	case h.events <- e:
	default:
		logger.Warn("progress event dropped, hub queue full",
			"report_id", e.ReportID,
			"event_type", e.Type,
		)
	}
}

// starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.events:
			h.deliver(event)

		case <-h.shutdown:
			h.closeAllConnections()
			return
		}
	}
}

// adds a client to the hub and replays the latest event of its report
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.reports[client.ReportID] == nil {
		h.reports[client.ReportID] = make(map[string]*Client)
	}

	h.reports[client.ReportID][client.ID] = client

	logger.Info("client registered",
		"client_id", client.ID,
		"report_id", client.ReportID,
	)

	if last, ok := h.latest[client.ReportID]; ok {
		msg, err := NewMessage(TypeProgress, client.ReportID, last)
		if err == nil {
			h.sequences[client.ReportID]++
			msg.Sequence = h.sequences[client.ReportID]

			if sendErr := client.Send(msg); sendErr != nil {
				logger.ErrorErr(sendErr, "failed to replay progress",
					"client_id", client.ID,
					"report_id", client.ReportID,
				)
			}
		}
	}
}

// removes a client from the hub
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.removeClient(client)
}

// must be called with lock held
func (h *Hub) removeClient(client *Client) {
	reportClients, exists := h.reports[client.ReportID]
	if !exists {
		return
	}

	if _, exists := reportClients[client.ID]; !exists {
		return
	}

	delete(reportClients, client.ID)
	client.Close()

	if client.IPAddress != "" {
		h.ipConnections[client.IPAddress]--

		if h.ipConnections[client.IPAddress] <= 0 {
			delete(h.ipConnections, client.IPAddress)
		}
	}

	logger.Info("client unregistered",
		"client_id", client.ID,
		"report_id", client.ReportID,
	)

	if len(reportClients) == 0 {
		delete(h.reports, client.ReportID)
	}
}

// broadcasts an event to its report; terminal events close the subscribers
func (h *Hub) deliver(e progress.Event) {
	msg, err := NewMessage(TypeProgress, e.ReportID, e)
	if err != nil {
		logger.ErrorErr(err, "failed to create progress message", "report_id", e.ReportID)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if e.Terminal() {
		delete(h.latest, e.ReportID)
	} else {
		h.latest[e.ReportID] = e
	}

	h.broadcastToReport(e.ReportID, msg)

	if e.Terminal() {
		for _, client := range h.reports[e.ReportID] {
			h.removeClient(client)
		}

		delete(h.sequences, e.ReportID)
	}
}

// the internal broadcast function (must be called with lock held)
func (h *Hub) broadcastToReport(reportID string, msg *Message) {
	reportClients, exists := h.reports[reportID]
	if !exists {
		return
	}

	// assign sequence number to message
	h.sequences[reportID]++
	msg.Sequence = h.sequences[reportID]

	for clientID, client := range reportClients {
		if err := client.Send(msg); err != nil {
			logger.ErrorErr(err, "failed to send message to client",
				"client_id", clientID,
				"report_id", reportID,
			)
		}
	}
}

// returns the number of clients watching a report
func (h *Hub) GetClientCount(reportID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.reports[reportID])
}

// returns the number of reports with at least one subscriber
func (h *Hub) GetReportCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.reports)
}

func (h *Hub) Shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.shutdown)
	})
}

func (h *Hub) closeAllConnections() {
	h.mu.Lock()

	logger.Info("notifying clients of server shutdown")

	for reportID, reportClients := range h.reports {
		shutdownMsg, err := NewMessage(TypeServerShutdown, reportID, ServerShutdownPayload{
			Reason: "server is shutting down",
		})
		if err != nil {
			logger.ErrorErr(err, "failed to create shutdown message")
			continue
		}

		for _, client := range reportClients {
			if err := client.Send(shutdownMsg); err != nil {
				logger.ErrorErr(err, "failed to send shutdown notification",
					"client_id", client.ID,
					"report_id", reportID,
				)
			}
		}
	}

	h.mu.Unlock()

	// give clients time to receive the shutdown message
	time.Sleep(500 * time.Millisecond)

	h.mu.Lock()
	defer h.mu.Unlock()

	logger.Info("closing all websocket connections")

	for _, reportClients := range h.reports {
		for _, client := range reportClients {
			client.Close()
		}
	}

	h.reports = make(map[string]map[string]*Client)
	h.ipConnections = make(map[string]int)
	h.sequences = make(map[string]uint64)
}

// checks if a new connection should be allowed based on limits
func (h *Hub) CanAcceptConnection(ipAddress string) (bool, string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.ipConnections[ipAddress] >= maxConnectionsPerIP {
		return false, "Maximum connections per IP address exceeded"
	}

	return true, ""
}

// increments the connection count for an IP address
func (h *Hub) TrackIPConnection(ipAddress string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ipConnections[ipAddress]++
}
