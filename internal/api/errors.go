package api

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"clmmGateway/internal/chain"
	"clmmGateway/internal/clmm"
	"clmmGateway/internal/network"
	"clmmGateway/internal/outcome"
)

var (
	_ ChainService = (*network.Network)(nil)
	_ CLMMService  = (*clmm.Connector)(nil)
)

// requestError is malformed or missing request input.
type requestError struct {
	msg string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &requestError{msg: fmt.Sprintf(format, args...)}
}

// statusFor maps domain errors onto HTTP status codes. Anything not known
// to be the caller's fault is a server error.
func statusFor(err error) int {
	var (
		reqErr       *requestError
		pairErr      *clmm.InvalidPairError
		underflowErr *clmm.AmountUnderflowError
		rangeErr     *clmm.InvalidRangeError
	)
	switch {
	case errors.As(err, &reqErr),
		errors.As(err, &pairErr),
		errors.As(err, &underflowErr),
		errors.As(err, &rangeErr),
		errors.Is(err, chain.ErrInvalidAddress),
		errors.Is(err, chain.ErrInvalidCoinType),
		errors.Is(err, chain.ErrInvalidDigest),
		errors.Is(err, network.ErrUnknownNetwork),
		errors.Is(err, errNoConnector):
		return http.StatusBadRequest
	case errors.Is(err, chain.ErrObjectNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var failed *outcome.TransactionFailedError
	if errors.As(err, &failed) {
		s.logger.Error("transaction failed",
			zap.String("path", r.URL.Path),
			zap.String("signature", failed.Digest),
			zap.String("error", failed.Message))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: failed.Message, Signature: failed.Digest})
		return
	}

	resp := ErrorResponse{Error: err.Error()}
	var incomplete *outcome.IncompleteResultError
	if errors.As(err, &incomplete) {
		resp.Signature = incomplete.Signature
	}

	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.String("signature", resp.Signature), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, resp)
}
