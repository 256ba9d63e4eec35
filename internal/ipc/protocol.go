// Package ipc provides the control channel between the dragwatchd
// daemon and local clients (the dragwatchctl CLI, host applications
// embedding the tracker).
//
// Messages are framed with a fixed binary header followed by a JSON
// payload. The channel supports request/response commands and a
// subscription stream for drag lifecycle events.
package ipc

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"time"
)

// Protocol version for compatibility checking.
const (
	ProtocolVersion = 1
	ProtocolMagic   = 0x44575043 // "DWPC"
)

// MessageType identifies the type of IPC message.
type MessageType uint16

const (
	// Control messages (0x00xx)
	MsgPing     MessageType = 0x0001
	MsgPong     MessageType = 0x0002
	MsgError    MessageType = 0x0003
	MsgShutdown MessageType = 0x0004

	// Daemon state (0x01xx)
	MsgStatusRequest   MessageType = 0x0100
	MsgStatusResponse  MessageType = 0x0101
	MsgHealthRequest   MessageType = 0x0102
	MsgHealthResponse  MessageType = 0x0103
	MsgMetricsRequest  MessageType = 0x0104
	MsgMetricsResponse MessageType = 0x0105

	// Drag detection (0x02xx)
	MsgDraggingRequest  MessageType = 0x0200
	MsgDraggingResponse MessageType = 0x0201
	MsgCheckNowRequest  MessageType = 0x0202
	MsgCheckNowResponse MessageType = 0x0203
	MsgActivateRequest  MessageType = 0x0204
	MsgActivateResponse MessageType = 0x0205

	// Event streaming (0x03xx)
	MsgSubscribe       MessageType = 0x0300
	MsgSubscribeResp   MessageType = 0x0301
	MsgUnsubscribe     MessageType = 0x0302
	MsgUnsubscribeResp MessageType = 0x0303
	MsgEvent           MessageType = 0x0304
)

// EventType identifies the type of streamed event.
type EventType uint16

const (
	EventDragStart      EventType = 0x0001
	EventDragEnd        EventType = 0x0002
	EventFilesDetected  EventType = 0x0003
	EventShakeDetected  EventType = 0x0004
	EventConfigChanged  EventType = 0x0005
	EventDaemonShutdown EventType = 0x0006
)

// Header is the fixed-size message header (16 bytes).
type Header struct {
	Magic     uint32
	Version   uint8
	Flags     uint8
	Type      MessageType
	RequestID uint32 // Request ID for correlation
	Length    uint32 // Payload length (not including header)
}

// HeaderSize is the size of the header in bytes.
const HeaderSize = 16

// maxPayloadSize caps a single message payload. Status and metrics
// responses are small; anything larger is a corrupt stream.
const maxPayloadSize = 1 << 20

// Message wraps a header and payload.
type Message struct {
	Header  Header
	Payload []byte
}

// NewMessage creates a new message with the given type and payload.
func NewMessage(msgType MessageType, requestID uint32, payload []byte) *Message {
	return &Message{
		Header: Header{
			Magic:     ProtocolMagic,
			Version:   ProtocolVersion,
			Type:      msgType,
			RequestID: requestID,
			Length:    uint32(len(payload)),
		},
		Payload: payload,
	}
}

// Write writes the header to a writer.
func (h *Header) Write(w io.Writer) error {
	buf := make([]byte, HeaderSize)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.Flags
	binary.BigEndian.PutUint16(buf[6:8], uint16(h.Type))
	binary.BigEndian.PutUint32(buf[8:12], h.RequestID)
	binary.BigEndian.PutUint32(buf[12:16], h.Length)
	_, err := w.Write(buf)
	return err
}

// ReadHeader reads a header from a reader.
func ReadHeader(r io.Reader) (*Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}

	h := &Header{
		Magic:     binary.BigEndian.Uint32(buf[0:4]),
		Version:   buf[4],
		Flags:     buf[5],
		Type:      MessageType(binary.BigEndian.Uint16(buf[6:8])),
		RequestID: binary.BigEndian.Uint32(buf[8:12]),
		Length:    binary.BigEndian.Uint32(buf[12:16]),
	}

	if h.Magic != ProtocolMagic {
		return nil, fmt.Errorf("invalid magic number: %x", h.Magic)
	}
	if h.Version > ProtocolVersion {
		return nil, fmt.Errorf("unsupported protocol version: %d", h.Version)
	}

	return h, nil
}

// Write writes the message to a writer.
func (m *Message) Write(w io.Writer) error {
	if err := m.Header.Write(w); err != nil {
		return err
	}
	if len(m.Payload) > 0 {
		_, err := w.Write(m.Payload)
		return err
	}
	return nil
}

// ReadMessage reads a complete message from a reader.
func ReadMessage(r io.Reader) (*Message, error) {
	h, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	m := &Message{Header: *h}
	if h.Length > 0 {
		if h.Length > maxPayloadSize {
			return nil, fmt.Errorf("payload too large: %d bytes", h.Length)
		}
		m.Payload = make([]byte, h.Length)
		if _, err := io.ReadFull(r, m.Payload); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Request/Response payloads

// ErrorResponse is sent when an operation fails.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error codes
const (
	ErrUnknown        = 1
	ErrInvalidRequest = 2
	ErrNotFound       = 3
	ErrInternalError  = 4
	ErrNotTracking    = 5
)

// StatusRequest requests daemon status.
type StatusRequest struct {
	IncludeSession bool `json:"include_session,omitempty"`
}

// StatusResponse contains daemon status.
type StatusResponse struct {
	Version     string       `json:"version"`
	StartedAt   time.Time    `json:"started_at"`
	Uptime      string       `json:"uptime"`
	Backend     string       `json:"backend"`
	Tracking    bool         `json:"tracking"`
	Phase       string       `json:"phase"`
	Dragging    bool         `json:"dragging"`
	SampleHz    float64      `json:"sample_hz"`
	MemoryBytes uint64       `json:"memory_bytes"`
	Session     *SessionInfo `json:"session,omitempty"`
}

// SessionInfo summarizes the current drag session, if any.
type SessionInfo struct {
	ActivatedAt time.Time `json:"activated_at"`
	Refreshes   int       `json:"refreshes"`
	ProbeHits   int       `json:"probe_hits"`
}

// HealthRequest requests the daemon health report.
type HealthRequest struct {
	IncludeComponents bool `json:"include_components,omitempty"`
}

// MetricsResponse carries the metrics registry in text exposition
// format plus a raw snapshot for programmatic consumers.
type MetricsResponse struct {
	Text     string             `json:"text"`
	Snapshot map[string]float64 `json:"snapshot"`
}

// DraggingResponse answers whether a drag session is active.
type DraggingResponse struct {
	Dragging bool         `json:"dragging"`
	Phase    string       `json:"phase"`
	Session  *SessionInfo `json:"session,omitempty"`
}

// CheckNowResponse carries the result of a synchronous clipboard probe.
type CheckNowResponse struct {
	HasFileSignature bool     `json:"has_file_signature"`
	FilePaths        []string `json:"file_paths,omitempty"`
}

// ActivateResponse acknowledges an optimistic activation request.
type ActivateResponse struct {
	Accepted bool   `json:"accepted"`
	Phase    string `json:"phase"`
}

// SubscribeRequest requests event subscription.
type SubscribeRequest struct {
	Events []EventType `json:"events"` // Empty means all events
}

// SubscribeResponse acknowledges subscription.
type SubscribeResponse struct {
	Success        bool   `json:"success"`
	SubscriptionID string `json:"subscription_id"`
}

// Event is a streamed event.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// DragEndEvent carries the finished session summary.
type DragEndEvent struct {
	Session SessionInfo `json:"session"`
}

// FilesDetectedEvent carries paths seen by a positive probe.
type FilesDetectedEvent struct {
	FilePaths []string `json:"file_paths"`
}

// Encode encodes a payload to JSON bytes.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Decode decodes JSON bytes to a payload.
func Decode(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// NewErrorMessage creates an error message.
func NewErrorMessage(requestID uint32, code int, message string) *Message {
	payload, _ := Encode(&ErrorResponse{
		Code:    code,
		Message: message,
	})
	return NewMessage(MsgError, requestID, payload)
}

// NewResponse creates a response message.
func NewResponse(msgType MessageType, requestID uint32, v any) (*Message, error) {
	payload, err := Encode(v)
	if err != nil {
		return nil, err
	}
	return NewMessage(msgType, requestID, payload), nil
}
