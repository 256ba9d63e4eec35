package ipc

import (
	"bytes"
	"context"
	"time"

	"dragwatch/internal/dragdetect"
	"dragwatch/internal/health"
	"dragwatch/internal/metrics"
	"dragwatch/internal/pointer"
)

// DaemonHandler serves daemon state over the control socket. It holds
// references to the live subsystems; every response is computed at
// request time.
type DaemonHandler struct {
	Version   string
	StartedAt time.Time
	Backend   string

	Tracker  *pointer.Tracker
	Detector *dragdetect.Detector
	Prober   dragdetect.Prober
	Health   *health.Checker
	Metrics  *metrics.Registry

	// RequestShutdown is invoked on MsgShutdown; typically it signals
	// the daemon's main loop. Nil disables remote shutdown.
	RequestShutdown func()
}

// HandleMessage dispatches a request to the owning subsystem.
func (h *DaemonHandler) HandleMessage(ctx context.Context, client *Client, msg *Message) (*Message, error) {
	switch msg.Header.Type {
	case MsgStatusRequest:
		return h.handleStatus(msg)

	case MsgHealthRequest:
		return h.handleHealth(ctx, msg)

	case MsgMetricsRequest:
		return h.handleMetrics(msg)

	case MsgDraggingRequest:
		return h.handleDragging(msg)

	case MsgCheckNowRequest:
		res := h.Prober.Check()
		return NewResponse(MsgCheckNowResponse, msg.Header.RequestID, &CheckNowResponse{
			HasFileSignature: res.HasFileSignature,
			FilePaths:        res.FilePaths,
		})

	case MsgActivateRequest:
		h.Detector.ActivateOptimistically()
		return NewResponse(MsgActivateResponse, msg.Header.RequestID, &ActivateResponse{
			Accepted: true,
			Phase:    h.Detector.CurrentPhase().String(),
		})

	case MsgShutdown:
		if h.RequestShutdown == nil {
			return NewErrorMessage(msg.Header.RequestID, ErrInvalidRequest, "shutdown not permitted"), nil
		}
		h.RequestShutdown()
		return NewMessage(MsgShutdown, msg.Header.RequestID, nil), nil

	default:
		return NewErrorMessage(msg.Header.RequestID, ErrInvalidRequest, "unknown message type"), nil
	}
}

func (h *DaemonHandler) handleStatus(msg *Message) (*Message, error) {
	var req StatusRequest
	if len(msg.Payload) > 0 {
		if err := Decode(msg.Payload, &req); err != nil {
			return NewErrorMessage(msg.Header.RequestID, ErrInvalidRequest, "invalid status request"), nil
		}
	}

	perf := h.Tracker.PerformanceMetrics()
	resp := &StatusResponse{
		Version:     h.Version,
		StartedAt:   h.StartedAt,
		Uptime:      time.Since(h.StartedAt).Truncate(time.Second).String(),
		Backend:     h.Backend,
		Tracking:    h.Tracker.IsTracking(),
		Phase:       h.Detector.CurrentPhase().String(),
		Dragging:    h.Detector.IsDraggingFiles(),
		SampleHz:    perf.SampleHz,
		MemoryBytes: perf.MemoryBytes,
	}
	if req.IncludeSession && resp.Dragging {
		resp.Session = sessionInfo(h.Detector.CurrentSession())
	}

	return NewResponse(MsgStatusResponse, msg.Header.RequestID, resp)
}

func (h *DaemonHandler) handleHealth(ctx context.Context, msg *Message) (*Message, error) {
	var req HealthRequest
	if len(msg.Payload) > 0 {
		if err := Decode(msg.Payload, &req); err != nil {
			return NewErrorMessage(msg.Header.RequestID, ErrInvalidRequest, "invalid health request"), nil
		}
	}

	report := h.Health.Report(ctx, req.IncludeComponents)
	return NewResponse(MsgHealthResponse, msg.Header.RequestID, report)
}

func (h *DaemonHandler) handleMetrics(msg *Message) (*Message, error) {
	var buf bytes.Buffer
	if err := h.Metrics.WriteText(&buf); err != nil {
		return NewErrorMessage(msg.Header.RequestID, ErrInternalError, err.Error()), nil
	}

	return NewResponse(MsgMetricsResponse, msg.Header.RequestID, &MetricsResponse{
		Text:     buf.String(),
		Snapshot: h.Metrics.Snapshot(),
	})
}

func (h *DaemonHandler) handleDragging(msg *Message) (*Message, error) {
	dragging := h.Detector.IsDraggingFiles()
	resp := &DraggingResponse{
		Dragging: dragging,
		Phase:    h.Detector.CurrentPhase().String(),
	}
	if dragging {
		resp.Session = sessionInfo(h.Detector.CurrentSession())
	}

	return NewResponse(MsgDraggingResponse, msg.Header.RequestID, resp)
}

func sessionInfo(s dragdetect.Session) *SessionInfo {
	return &SessionInfo{
		ActivatedAt: s.ActivatedAt,
		Refreshes:   s.Refreshes,
		ProbeHits:   s.ProbeHits,
	}
}
