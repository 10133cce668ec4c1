package rest

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/KevinKickass/VirtualSpectrometer/internal/devices"
	"github.com/KevinKickass/VirtualSpectrometer/internal/spectrometer"
	"github.com/KevinKickass/VirtualSpectrometer/internal/types"
	"github.com/KevinKickass/VirtualSpectrometer/internal/usb"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ControlTransferRequest mirrors usb.ControlRequest with a millisecond timeout.
type ControlTransferRequest struct {
	RequestType *uint8 `json:"request_type" binding:"required"`
	Request     *uint8 `json:"request" binding:"required"`
	Value       uint16 `json:"value"`
	Index       uint16 `json:"index"`
	Length      uint16 `json:"length"`
	TimeoutMs   int    `json:"timeout_ms"`
}

func (r ControlTransferRequest) toUSB() usb.ControlRequest {
	return usb.ControlRequest{
		RequestType: *r.RequestType,
		Request:     *r.Request,
		Value:       r.Value,
		Index:       r.Index,
		Length:      r.Length,
		Timeout:     time.Duration(r.TimeoutMs) * time.Millisecond,
	}
}

type BulkReadRequest struct {
	Endpoint  uint8 `json:"endpoint"`
	Length    int   `json:"length"`
	TimeoutMs int   `json:"timeout_ms"`
}

// lookupDevice resolves :id (uuid or name) or writes a 404.
func (s *Server) lookupDevice(c *gin.Context) (*spectrometer.Device, bool) {
	device, err := s.lm.DeviceManager().Lookup(c.Param("id"))
	if err != nil {
		respondError(c, types.ErrCodeNotFound, "Device not found", c.Param("id"))
		return nil, false
	}
	return device, true
}

// GET /api/v1/devices
func (s *Server) listDevices(c *gin.Context) {
	manager := s.lm.DeviceManager()
	list := manager.ListDevices()

	response := make([]types.DeviceInfo, 0, len(list))
	for _, device := range list {
		response = append(response, manager.Info(device))
	}

	c.JSON(http.StatusOK, gin.H{
		"devices": response,
		"count":   len(response),
	})
}

// GET /api/v1/devices/:id
func (s *Server) getDevice(c *gin.Context) {
	device, ok := s.lookupDevice(c)
	if !ok {
		return
	}

	next, total := device.EEPROMPosition()
	c.JSON(http.StatusOK, gin.H{
		"device":           s.lm.DeviceManager().Info(device),
		"capabilities":     device.Capabilities(),
		"spectrum_lengths": device.SpectrumLengths(),
		"eeprom": gin.H{
			"next_page":  next,
			"page_count": total,
		},
	})
}

// POST /api/v1/devices/:id/control
func (s *Server) controlTransfer(c *gin.Context) {
	device, ok := s.lookupDevice(c)
	if !ok {
		return
	}

	var req ControlTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.ErrCodeBadRequest, "Invalid request body", err.Error())
		return
	}

	data, err := device.ControlTransfer(c.Request.Context(), req.toUSB())
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{
			"handled": true,
			"data":    bytesToInts(data),
		})

	case spectrometer.IsNoResponse(err):
		c.JSON(http.StatusOK, gin.H{
			"handled": false,
			"data":    nil,
		})

	case spectrometer.IsEEPROMExhausted(err):
		respondError(c, types.ErrCodeExhausted, "EEPROM read past last page", err.Error())

	default:
		s.logger.Error("Control transfer failed", zap.String("device", device.Name), zap.Error(err))
		respondError(c, types.ErrCodeInternal, "Control transfer failed", err.Error())
	}
}

// POST /api/v1/devices/:id/read
func (s *Server) bulkRead(c *gin.Context) {
	device, ok := s.lookupDevice(c)
	if !ok {
		return
	}

	var req BulkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, types.ErrCodeBadRequest, "Invalid request body", err.Error())
		return
	}

	words := device.Read(c.Request.Context(), usb.BulkReadRequest{
		Endpoint: req.Endpoint,
		Length:   req.Length,
		Timeout:  time.Duration(req.TimeoutMs) * time.Millisecond,
	})

	if c.Query("format") == "raw" {
		c.Header("X-Word-Count", strconv.Itoa(len(words)))
		c.Data(http.StatusOK, "application/octet-stream", usb.WordsToBytes(words))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"length": len(words),
		"data":   words,
	})
}

// POST /api/v1/devices/:id/ops/:op
func (s *Server) invokeOperation(c *gin.Context) {
	device, ok := s.lookupDevice(c)
	if !ok {
		return
	}

	capability, err := spectrometer.ParseCapability(c.Param("op"))
	if err != nil {
		respondError(c, types.ErrCodeUnsupported, "Unsupported operation", err.Error())
		return
	}

	var req struct {
		Value int `json:"value"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, types.ErrCodeBadRequest, "Invalid request body", err.Error())
			return
		}
	}

	if err := device.Invoke(c.Request.Context(), capability, req.Value); err != nil {
		respondError(c, types.ErrCodeUnsupported, "Unsupported operation", err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"operation": capability,
		"noop":      capability.IsNoop(),
	})
}

// POST /api/v1/devices/:id/streaming
func (s *Server) startStreaming(c *gin.Context) {
	device, ok := s.lookupDevice(c)
	if !ok {
		return
	}

	interval := s.lm.Config().Streaming.Interval
	if ms, err := strconv.Atoi(c.Query("interval_ms")); err == nil && ms > 0 {
		interval = time.Duration(ms) * time.Millisecond
	}
	if interval <= 0 {
		respondError(c, types.ErrCodeBadRequest, "Streaming interval must be positive", nil)
		return
	}

	if err := s.lm.DeviceManager().StartStreamer(device.ID, interval); err != nil {
		s.writeManagerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"streaming":   true,
		"interval_ms": interval.Milliseconds(),
	})
}

// DELETE /api/v1/devices/:id/streaming
func (s *Server) stopStreaming(c *gin.Context) {
	device, ok := s.lookupDevice(c)
	if !ok {
		return
	}

	if err := s.lm.DeviceManager().StopStreamer(device.ID); err != nil {
		s.writeManagerError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"streaming": false})
}

func (s *Server) writeManagerError(c *gin.Context, err error) {
	if errors.Is(err, devices.ErrDeviceNotFound) {
		respondError(c, types.ErrCodeNotFound, "Device not found", err.Error())
		return
	}
	respondError(c, types.ErrCodeInternal, "Device manager error", err.Error())
}

// bytesToInts keeps JSON output as a number array; []byte would be base64.
func bytesToInts(data []byte) []int {
	out := make([]int, len(data))
	for i, b := range data {
		out[i] = int(b)
	}
	return out
}
