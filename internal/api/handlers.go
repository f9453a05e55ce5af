// Package api exposes the fuel check over HTTP for an external scheduler and status dashboards.
package api

import (
	"context"
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"fuelbot/internal/logging"
	"fuelbot/internal/models"
	"fuelbot/internal/notification"
	"fuelbot/internal/store"
)

// Runner is the part of notification.Service the handlers use.
type Runner interface {
	Run(ctx context.Context) (notification.RunResult, error)
	LastRun() (notification.RunResult, bool)
	Store() store.Store
	OnRun(fn func(notification.RunResult))
}

type Handler struct {
	svc    Runner
	logger *logging.Logger
	hub    *Hub
}

// NewHandler wires the handlers to svc and subscribes the websocket hub to completed runs.
func NewHandler(svc Runner, logger *logging.Logger) *Handler {
	h := &Handler{svc: svc, logger: logger, hub: NewHub(logger)}
	svc.OnRun(h.hub.BroadcastRun)
	return h
}

// Hub returns the websocket hub that receives run results.
func (h *Handler) Hub() *Hub {
	return h.hub
}

type structureState struct {
	StructureID int64            `json:"structure_id"`
	State       models.FuelState `json:"state"`
}

func (h *Handler) GetState(c *gin.Context) {
	states, err := h.svc.Store().Read(c.Request.Context())
	if err != nil {
		h.logger.Errorf("Failed to read fuel states: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read fuel states"})
		return
	}

	out := make([]structureState, 0, len(states))
	for id, st := range states {
		out = append(out, structureState{StructureID: id, State: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StructureID < out[j].StructureID })

	h.logger.Debugf("Retrieved %d fuel states", len(out))
	c.JSON(http.StatusOK, out)
}

func (h *Handler) TriggerRun(c *gin.Context) {
	res, err := h.svc.Run(c.Request.Context())
	if errors.Is(err, notification.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Errorf("Fuel check %s failed: %v", res.RunID, err)
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "run_id": res.RunID})
		return
	}

	h.logger.Infof("Fuel check %s finished: %d changed, notified=%t", res.RunID, res.Changed, res.Notified)
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetLastRun(c *gin.Context) {
	res, ok := h.svc.LastRun()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No fuel check has completed yet"})
		return
	}
	c.JSON(http.StatusOK, res)
}
