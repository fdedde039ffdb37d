package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/bookstore/recordstore/internal/events"
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/go-chi/chi/v5"
)

type reserveRequest struct {
	ItemID   string `json:"item_id" validate:"required"`
	Quantity *int   `json:"quantity" validate:"required"`
}

// reservationID parses the {rid} path segment. Anything that is not a
// positive integer cannot name a reservation.
func (s *Server) reservationID(w http.ResponseWriter, r *http.Request) (int, bool) {
	rid, err := strconv.Atoi(chi.URLParam(r, "rid"))
	if err != nil || rid <= 0 {
		s.writeEngineError(w, merchant.ErrUnknownReservation)
		return 0, false
	}
	return rid, true
}

func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.merchant.Reservations())
}

func (s *Server) handleGetReservation(w http.ResponseWriter, r *http.Request) {
	rid, ok := s.reservationID(w, r)
	if !ok {
		return
	}
	res, err := s.merchant.Reservation(rid)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if !s.decode(w, r, &req) {
		return
	}

	rid, err := s.merchant.Reserve(*req.Quantity, req.ItemID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	res := merchant.Reservation{ID: rid, ItemID: req.ItemID, Quantity: *req.Quantity}
	s.publish(r, events.EventTypeReservationCreated, func(ctx context.Context, p Publisher) error {
		return p.PublishReservationCreated(ctx, res.ID, res.ItemID, res.Quantity)
	})
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleCancelReservation(w http.ResponseWriter, r *http.Request) {
	s.settleReservation(w, r, s.merchant.CancelReservation, events.EventTypeReservationCancelled,
		func(ctx context.Context, p Publisher, res merchant.Reservation) error {
			return p.PublishReservationCancelled(ctx, res.ID, res.ItemID, res.Quantity)
		})
}

func (s *Server) handleCommitReservation(w http.ResponseWriter, r *http.Request) {
	s.settleReservation(w, r, s.merchant.CommitReservation, events.EventTypeReservationCommitted,
		func(ctx context.Context, p Publisher, res merchant.Reservation) error {
			return p.PublishReservationCommitted(ctx, res.ID, res.ItemID, res.Quantity)
		})
}

// settleReservation runs a cancel or commit and responds with the
// reservation as it was before the operation.
func (s *Server) settleReservation(
	w http.ResponseWriter,
	r *http.Request,
	op func(rid int) error,
	eventType string,
	announce func(ctx context.Context, p Publisher, res merchant.Reservation) error,
) {
	rid, ok := s.reservationID(w, r)
	if !ok {
		return
	}
	res, err := s.merchant.Reservation(rid)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	if err := op(rid); err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.publish(r, eventType, func(ctx context.Context, p Publisher) error {
		return announce(ctx, p, res)
	})
	writeJSON(w, http.StatusOK, res)
}
