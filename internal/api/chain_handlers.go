package api

import (
	"net/http"
)

func (s *Server) statusHandler(w http.ResponseWriter, r *http.Request) {
	svc, err := s.chain(r, r.URL.Query().Get("network"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	status, err := svc.Status(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) pollHandler(w http.ResponseWriter, r *http.Request) {
	var req PollRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireField(req.Signature, "signature"); err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.chain(r, req.Network)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := svc.Poll(r.Context(), req.Signature)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PollResponse{
		CurrentBlock: res.CurrentBlock,
		Signature:    res.Signature,
		TxBlock:      res.TxBlock,
		TxStatus:     int(res.TxStatus),
		Fee:          floatPtr(res.Fee),
		TxData:       res.TxData,
		Error:        res.Error,
	})
}

func (s *Server) estimateGasHandler(w http.ResponseWriter, r *http.Request) {
	svc, err := s.chain(r, r.URL.Query().Get("network"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	est, err := svc.EstimateGas(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, EstimateGasResponse{
		FeePerComputeUnit: est.FeePerComputeUnit,
		Denomination:      est.Denomination,
		ComputeUnits:      est.ComputeUnits,
		FeeAsset:          est.FeeAsset,
		Fee:               float(est.Fee),
		Timestamp:         est.Timestamp,
	})
}

func (s *Server) balancesHandler(w http.ResponseWriter, r *http.Request) {
	var req BalancesRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireField(req.Address, "address"); err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.chain(r, req.Network)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	balances, err := svc.Balances(r.Context(), req.Address, req.Tokens, req.FetchAll)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := BalancesResponse{Balances: make(map[string]float64, len(balances))}
	for _, b := range balances {
		out.Balances[b.Symbol] = float(b.Amount)
	}
	writeJSON(w, http.StatusOK, out)
}
