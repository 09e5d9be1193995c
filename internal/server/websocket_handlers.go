package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/MeKo-Tech/pdfqr/internal/utils"
	"github.com/gorilla/websocket"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WebSocketQRRequest is one extraction request sent by the client.
// Data is base64 in JSON.
type WebSocketQRRequest struct {
	Type     string `json:"type"` // "image" or "pdf"
	Data     []byte `json:"data"`
	Page     *int   `json:"page,omitempty"`
	Region   string `json:"region,omitempty"`
	All      bool   `json:"all,omitempty"`
	Password string `json:"password,omitempty"`
}

// WebSocketConnWriter is an interface for writing WebSocket messages.
type WebSocketConnWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// WebSocketQRResponse is sent back for every request.
type WebSocketQRResponse struct {
	Type      string      `json:"type"`
	Status    string      `json:"status"` // "processing", "completed", "error"
	Result    *QRResponse `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorType string      `json:"error_type,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// qrWebSocketHandler upgrades the connection and serves extraction requests until the client leaves.
func (s *Server) qrWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(r.Context(), conn)
}

func (s *Server) handleWebSocketConnection(ctx context.Context, conn *websocket.Conn) {
	conn.SetReadLimit(s.maxUploadMB * 1024 * 1024 * 2) // base64 overhead
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(ctx, conn, data)
		}
	}
}

// handleWebSocketMessage processes one request and writes the processing and result frames.
func (s *Server) handleWebSocketMessage(ctx context.Context, conn WebSocketConnWriter, data []byte) {
	var req WebSocketQRRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "", "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	if req.Type != "image" && req.Type != "pdf" {
		s.sendWebSocketError(conn, requestID, "invalid_request", "Unsupported request type: "+req.Type)
		return
	}
	if len(req.Data) == 0 {
		s.sendWebSocketError(conn, requestID, "invalid_request", "No data provided")
		return
	}

	s.sendWebSocketResponse(conn, WebSocketQRResponse{
		Type:      "qr_response",
		Status:    "processing",
		RequestID: requestID,
	})

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	kind := "websocket_" + req.Type
	start := time.Now()
	response, err := s.processWebSocketRequest(ctx, req)
	if err != nil {
		qrRequestsTotal.WithLabelValues(kind, "error").Inc()
		s.sendWebSocketError(conn, requestID, "processing_error", err.Error())
		return
	}

	found := (response.Result != nil && response.Result.Found) || len(response.Results) > 0
	text := ""
	if response.Result != nil {
		text = response.Result.Text
	}
	recordOutcome(kind, found, text, time.Since(start).Seconds())

	s.sendWebSocketResponse(conn, WebSocketQRResponse{
		Type:      "qr_response",
		Status:    "completed",
		Result:    &response,
		RequestID: requestID,
	})
}

func (s *Server) processWebSocketRequest(ctx context.Context, req WebSocketQRRequest) (QRResponse, error) {
	if req.Type == "image" {
		reader, err := s.newReader()
		if err != nil {
			return QRResponse{}, err
		}
		res, err := reader.ReadImage(ctx, req.Data)
		if err != nil {
			return QRResponse{}, err
		}
		result := toQRResult(res)
		return QRResponse{Success: true, Result: &result}, nil
	}

	region, err := utils.ParseRegion(req.Region)
	if err != nil {
		return QRResponse{}, err
	}
	reader, err := s.newReaderWithPassword(req.Password)
	if err != nil {
		return QRResponse{}, err
	}
	return s.processPDF(ctx, reader, req.Data, pdfRequest{
		Page:   req.Page,
		Region: region,
		All:    req.All,
	})
}

// sendWebSocketResponse sends a response message over WebSocket.
func (s *Server) sendWebSocketResponse(conn WebSocketConnWriter, response WebSocketQRResponse) {
	data, err := json.Marshal(response)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}

	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to send WebSocket message", "error", err)
		return
	}

	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message over WebSocket.
func (s *Server) sendWebSocketError(conn WebSocketConnWriter, requestID, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketQRResponse{
		Type:      "error",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}
