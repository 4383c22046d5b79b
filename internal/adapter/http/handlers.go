package http

import (
	"net/http"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/couchcryptid/flood-risk-service/internal/domain"
	"github.com/couchcryptid/flood-risk-service/internal/pipeline"
)

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	var req multiGridRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	rows := make([]domain.FeatureVector, len(req.Grids))
	for i, g := range req.Grids {
		fv, err := g.featureVector(i)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		rows[i] = fv
	}

	results, err := s.svc.PredictGrids(r.Context(), rows)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, multiGridResponse{Results: results})
}

func (s *Server) handlePredictLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Latitude == nil || req.Longitude == nil {
		s.writeError(w, r, domain.Invalidf("latitude and longitude are required"))
		return
	}

	resp, err := s.svc.PredictLocation(r.Context(), pipeline.LocationRequest{
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		TimeFields: req.TimeFields,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePredictDataset(w http.ResponseWriter, r *http.Request) {
	var req datasetRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	resp, err := s.svc.PredictFromDataset(r.Context(), pipeline.DatasetRequest{
		Latitude:   req.Latitude,
		Longitude:  req.Longitude,
		GridID:     req.GridID,
		Timestamp:  req.Timestamp,
		TimeFields: req.TimeFields,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}
