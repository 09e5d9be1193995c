package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/pdfqr/internal/testutil"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockWebSocketConn records frames written by the handler.
type mockWebSocketConn struct {
	sent [][]byte
}

func (m *mockWebSocketConn) WriteMessage(_ int, data []byte) error {
	m.sent = append(m.sent, data)
	return nil
}

func (m *mockWebSocketConn) responses(t *testing.T) []WebSocketQRResponse {
	t.Helper()
	out := make([]WebSocketQRResponse, 0, len(m.sent))
	for _, data := range m.sent {
		var resp WebSocketQRResponse
		require.NoError(t, json.Unmarshal(data, &resp))
		out = append(out, resp)
	}
	return out
}

func sendMessage(t *testing.T, s *Server, req interface{}) []WebSocketQRResponse {
	t.Helper()
	data, err := json.Marshal(req)
	require.NoError(t, err)
	conn := &mockWebSocketConn{}
	s.handleWebSocketMessage(context.Background(), conn, data)
	return conn.responses(t)
}

func TestHandleWebSocketMessage_Image(t *testing.T) {
	s, _ := newTestServer(t)

	got := sendMessage(t, s, WebSocketQRRequest{Type: "image", Data: testutil.QRPNG(t, exampleURL, 300)})
	require.Len(t, got, 2)
	assert.Equal(t, "processing", got[0].Status)
	assert.Equal(t, "completed", got[1].Status)
	assert.Equal(t, got[0].RequestID, got[1].RequestID)
	require.NotNil(t, got[1].Result)
	assert.Equal(t, exampleURL, got[1].Result.Result.Text)
}

func TestHandleWebSocketMessage_PDF(t *testing.T) {
	s, _ := newTestServer(t, blankPage(), qrPage(t, exampleURL))
	page := 1

	got := sendMessage(t, s, WebSocketQRRequest{Type: "pdf", Data: []byte("%PDF"), Page: &page})
	require.Len(t, got, 2)
	assert.Equal(t, "completed", got[1].Status)
	assert.Equal(t, 1, got[1].Result.Result.Page)

	got = sendMessage(t, s, WebSocketQRRequest{Type: "pdf", Data: []byte("%PDF"), All: true})
	require.Len(t, got, 2)
	require.Len(t, got[1].Result.Results, 1)
	assert.Equal(t, exampleURL, got[1].Result.Results[0].Text)
}

func TestHandleWebSocketMessage_Errors(t *testing.T) {
	s, _ := newTestServer(t, blankPage())
	page := 9

	tests := []struct {
		name      string
		req       interface{}
		errorType string
	}{
		{"unsupported type", WebSocketQRRequest{Type: "video", Data: []byte{1}}, "invalid_request"},
		{"no data", WebSocketQRRequest{Type: "image"}, "invalid_request"},
		{"bad image", WebSocketQRRequest{Type: "image", Data: []byte("nope")}, "processing_error"},
		{"page out of range", WebSocketQRRequest{Type: "pdf", Data: []byte("%PDF"), Page: &page}, "processing_error"},
		{"bad region", WebSocketQRRequest{Type: "pdf", Data: []byte("%PDF"), Region: "a,b"}, "processing_error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := sendMessage(t, s, tt.req)
			require.NotEmpty(t, got)
			last := got[len(got)-1]
			assert.Equal(t, "error", last.Status)
			assert.Equal(t, tt.errorType, last.ErrorType)
			assert.NotEmpty(t, last.Error)
		})
	}

	conn := &mockWebSocketConn{}
	s.handleWebSocketMessage(context.Background(), conn, []byte("{not json"))
	resp := conn.responses(t)
	require.Len(t, resp, 1)
	assert.Equal(t, "invalid_request", resp[0].ErrorType)
}

func TestQRWebSocketHandler_RoundTrip(t *testing.T) {
	s, _ := newTestServer(t)
	ts := httptest.NewServer(newMux(s))
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/qr"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	defer func() { _ = conn.Close() }()

	require.NoError(t, conn.WriteJSON(WebSocketQRRequest{Type: "image", Data: testutil.QRPNG(t, exampleURL, 300)}))
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(10*time.Second)))

	var processing, completed WebSocketQRResponse
	require.NoError(t, conn.ReadJSON(&processing))
	require.NoError(t, conn.ReadJSON(&completed))
	assert.Equal(t, "processing", processing.Status)
	assert.Equal(t, "completed", completed.Status)
	assert.Equal(t, exampleURL, completed.Result.Result.Text)
}
