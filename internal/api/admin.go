package api

import (
	"net/http"

	"go.uber.org/zap"
)

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.merchant.Totals())
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.merchant.Reset()
	s.log.Warn("Store reset")
	writeJSON(w, http.StatusOK, s.merchant.Totals())
}

func (s *Server) handleResetSales(w http.ResponseWriter, r *http.Request) {
	s.merchant.ResetSalesTracking()
	s.log.Info("Sales tracking reset")
	writeJSON(w, http.StatusOK, s.merchant.Totals())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.merchant.Save(r.Context(), s.store); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.log.Info("Snapshot saved", zap.Int("items", s.merchant.DistinctItemCount()))
	writeJSON(w, http.StatusOK, s.merchant.Totals())
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.merchant.Load(r.Context(), s.store); err != nil {
		s.writeEngineError(w, err)
		return
	}
	s.log.Info("Snapshot loaded", zap.Int("items", s.merchant.DistinctItemCount()))
	writeJSON(w, http.StatusOK, s.merchant.Totals())
}
