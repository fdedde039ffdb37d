package api

import (
	"context"
	"net/http"

	"github.com/bookstore/recordstore/internal/events"
	"github.com/bookstore/recordstore/internal/merchant"
	"github.com/go-chi/chi/v5"
)

type itemResponse struct {
	ID               string `json:"id"`
	Artist           string `json:"artist"`
	Title            string `json:"title"`
	Notes            string `json:"notes"`
	QuantityOnHand   int    `json:"quantity_on_hand"`
	QuantityReserved int    `json:"quantity_reserved"`
	Available        int    `json:"available"`
	UnitPrice        *int64 `json:"unit_price"`
	UnitsSold        int    `json:"units_sold"`
	ValueSold        int64  `json:"value_sold"`
}

func toItemResponse(it merchant.Item) itemResponse {
	return itemResponse{
		ID:               it.ID,
		Artist:           it.Artist,
		Title:            it.Title,
		Notes:            it.Notes,
		QuantityOnHand:   it.OnHand,
		QuantityReserved: it.Reserved,
		Available:        it.Available(),
		UnitPrice:        it.PriceRef(),
		UnitsSold:        it.UnitsSold,
		ValueSold:        it.ValueSold,
	}
}

type addItemRequest struct {
	ID       string `json:"id" validate:"required"`
	Artist   string `json:"artist" validate:"max=255"`
	Title    string `json:"title" validate:"max=255"`
	Notes    string `json:"notes"`
	Quantity *int   `json:"quantity" validate:"required"`
}

type setPriceRequest struct {
	UnitPrice *int64 `json:"unit_price" validate:"required"`
}

type sellRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items := s.merchant.Items()
	resp := make([]itemResponse, 0, len(items))
	for _, it := range items {
		resp = append(resp, toItemResponse(it))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	it, err := s.merchant.Item(chi.URLParam(r, "id"))
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemResponse(it))
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if !s.decode(w, r, &req) {
		return
	}

	if err := s.merchant.AddItem(*req.Quantity, req.Artist, req.Title, req.Notes, req.ID); err != nil {
		s.writeEngineError(w, err)
		return
	}
	it, err := s.merchant.Item(req.ID)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	qty := *req.Quantity
	s.publish(r, events.EventTypeRecordAdded, func(ctx context.Context, p Publisher) error {
		return p.PublishRecordAdded(ctx, it.ID, it.Artist, it.Title, qty, it.OnHand)
	})
	writeJSON(w, http.StatusCreated, toItemResponse(it))
}

func (s *Server) handleSetPrice(w http.ResponseWriter, r *http.Request) {
	var req setPriceRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")

	if err := s.merchant.SetPrice(id, *req.UnitPrice); err != nil {
		s.writeEngineError(w, err)
		return
	}
	it, err := s.merchant.Item(id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.publish(r, events.EventTypeRecordPriced, func(ctx context.Context, p Publisher) error {
		return p.PublishRecordPriced(ctx, it.ID, it.Price)
	})
	writeJSON(w, http.StatusOK, toItemResponse(it))
}

func (s *Server) handleSell(w http.ResponseWriter, r *http.Request) {
	var req sellRequest
	if !s.decode(w, r, &req) {
		return
	}
	id := chi.URLParam(r, "id")

	sale, err := s.merchant.SellRecord(*req.Quantity, id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}
	it, err := s.merchant.Item(id)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	s.publish(r, events.EventTypeRecordSold, func(ctx context.Context, p Publisher) error {
		return p.PublishRecordSold(ctx, sale.ItemID, sale.Quantity, sale.Value)
	})
	writeJSON(w, http.StatusOK, toItemResponse(it))
}
