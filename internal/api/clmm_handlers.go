package api

import (
	"net/http"
	"net/url"

	"clmmGateway/internal/clmm"
	"clmmGateway/internal/outcome"
)

func envelope(res outcome.Result, data any) TxResponse {
	return TxResponse{
		Signature: res.Signature,
		Status:    int(res.Status),
		Fee:       floatPtr(res.Fee),
		Data:      data,
	}
}

func positionResponse(v clmm.PositionView) PositionInfoResponse {
	resp := PositionInfoResponse{
		Address:           v.Address,
		PoolAddress:       v.PoolAddress,
		BaseTokenAddress:  v.BaseTokenAddress,
		QuoteTokenAddress: v.QuoteTokenAddress,
		BaseTokenAmount:   float(v.BaseTokenAmount),
		QuoteTokenAmount:  float(v.QuoteTokenAmount),
		BaseFeeAmount:     float(v.BaseFeeAmount),
		QuoteFeeAmount:    float(v.QuoteFeeAmount),
		LowerBinID:        v.LowerTick,
		UpperBinID:        v.UpperTick,
		LowerPrice:        float(v.LowerPrice),
		UpperPrice:        float(v.UpperPrice),
		Price:             float(v.Price),
	}
	if v.Liquidity != nil {
		resp.Liquidity = v.Liquidity.String()
	}
	return resp
}

func (s *Server) poolInfoHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	poolAddress, err := requireString(q, "poolAddress")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.clmm(r, q.Get("network"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	info, err := svc.PoolInfo(r.Context(), poolAddress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, PoolInfoResponse{
		Address:           info.Address,
		BaseTokenAddress:  info.BaseTokenAddress,
		QuoteTokenAddress: info.QuoteTokenAddress,
		BinStep:           info.BinStep,
		FeePct:            float(info.FeePct),
		Price:             float(info.Price),
		BaseTokenAmount:   float(info.BaseTokenAmount),
		QuoteTokenAmount:  float(info.QuoteTokenAmount),
		ActiveBinID:       info.ActiveBinID,
	})
}

func (s *Server) positionInfoHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	positionAddress, err := requireString(q, "positionAddress")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.clmm(r, q.Get("network"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	view, err := svc.PositionInfo(r.Context(), positionAddress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, positionResponse(view))
}

func (s *Server) positionsOwnedHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	wallet, err := requireString(q, "walletAddress")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.clmm(r, q.Get("network"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	views, err := svc.PositionsOwned(r.Context(), wallet, q.Get("poolAddress"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]PositionInfoResponse, 0, len(views))
	for _, v := range views {
		out = append(out, positionResponse(v))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) quoteSwapHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req, err := swapRequestFromQuery(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.clmm(r, q.Get("network"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	quote, err := svc.QuoteSwap(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, QuoteSwapResponse{
		PoolAddress:    quote.PoolAddress,
		TokenIn:        quote.TokenIn,
		TokenOut:       quote.TokenOut,
		AmountIn:       float(quote.AmountIn),
		AmountOut:      float(quote.AmountOut),
		Price:          float(quote.Price),
		SlippagePct:    float(quote.SlippagePct),
		MinAmountOut:   float(quote.MinAmountOut),
		MaxAmountIn:    float(quote.MaxAmountIn),
		PriceImpactPct: float(quote.PriceImpactPct),
	})
}

func swapRequestFromQuery(q url.Values) (clmm.SwapRequest, error) {
	var req clmm.SwapRequest
	var err error
	if req.PoolID, err = requireString(q, "poolAddress"); err != nil {
		return req, err
	}
	if req.BaseToken, err = requireString(q, "baseToken"); err != nil {
		return req, err
	}
	if req.QuoteToken, err = requireString(q, "quoteToken"); err != nil {
		return req, err
	}
	side, err := requireString(q, "side")
	if err != nil {
		return req, err
	}
	if req.Side, err = clmm.ParseSide(side); err != nil {
		return req, err
	}
	if req.Amount, err = requireDecimal(q, "amount"); err != nil {
		return req, err
	}
	slippage, err := queryDecimal(q, "slippagePct")
	if err != nil {
		return req, err
	}
	req.SlippagePct = slippageOr(slippage)
	return req, nil
}

func (s *Server) executeSwapHandler(w http.ResponseWriter, r *http.Request) {
	var body ExecuteSwapRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, f := range [][2]string{
		{body.WalletAddress, "walletAddress"},
		{body.PoolAddress, "poolAddress"},
		{body.BaseToken, "baseToken"},
		{body.QuoteToken, "quoteToken"},
	} {
		if err := requireField(f[0], f[1]); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	side, err := clmm.ParseSide(body.Side)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.clmm(r, body.Network)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	exec, err := svc.ExecuteSwap(r.Context(), body.WalletAddress, clmm.SwapRequest{
		PoolID:      body.PoolAddress,
		BaseToken:   body.BaseToken,
		QuoteToken:  body.QuoteToken,
		Side:        side,
		Amount:      body.Amount,
		SlippagePct: slippageOr(body.SlippagePct),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var data any
	if d := exec.Data; d != nil {
		data = ExecuteSwapData{
			TokenIn:                 d.TokenIn,
			TokenOut:                d.TokenOut,
			AmountIn:                float(d.AmountIn),
			AmountOut:               float(d.AmountOut),
			Fee:                     float(d.Fee),
			BaseTokenBalanceChange:  float(d.BaseTokenBalanceChange),
			QuoteTokenBalanceChange: float(d.QuoteTokenBalanceChange),
		}
	}
	writeJSON(w, http.StatusOK, envelope(exec.Result, data))
}

func (s *Server) quotePositionHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	poolAddress, err := requireString(q, "poolAddress")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	lower, err := requireDecimal(q, "lowerPrice")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	upper, err := requireDecimal(q, "upperPrice")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	base, err := queryDecimal(q, "baseTokenAmount")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	quoteAmount, err := queryDecimal(q, "quoteTokenAmount")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.clmm(r, q.Get("network"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	quote, err := svc.QuotePosition(r.Context(), poolAddress, lower, upper, base, quoteAmount)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := QuotePositionResponse{
		BaseLimited:         quote.BaseLimited,
		BaseTokenAmount:     float(quote.BaseTokenAmount),
		QuoteTokenAmount:    float(quote.QuoteTokenAmount),
		BaseTokenAmountMax:  float(quote.BaseTokenAmountMax),
		QuoteTokenAmountMax: float(quote.QuoteTokenAmountMax),
		LowerBinID:          quote.LowerTick,
		UpperBinID:          quote.UpperTick,
	}
	if quote.Liquidity != nil {
		resp.Liquidity = quote.Liquidity.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) openPositionHandler(w http.ResponseWriter, r *http.Request) {
	var body OpenPositionRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireField(body.WalletAddress, "walletAddress"); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := requireField(body.PoolAddress, "poolAddress"); err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.clmm(r, body.Network)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := svc.OpenPosition(r.Context(), body.WalletAddress, clmm.PositionRequest{
		PoolID:           body.PoolAddress,
		LowerPrice:       body.LowerPrice,
		UpperPrice:       body.UpperPrice,
		BaseTokenAmount:  body.BaseTokenAmount,
		QuoteTokenAmount: body.QuoteTokenAmount,
		SlippagePct:      slippageOr(body.SlippagePct),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var data any
	if d := res.Data; d != nil {
		data = OpenPositionData{
			Fee:                   float(d.Fee),
			PositionAddress:       d.PositionAddress,
			BaseTokenAmountAdded:  float(d.BaseTokenAmountAdded),
			QuoteTokenAmountAdded: float(d.QuoteTokenAmountAdded),
		}
	}
	writeJSON(w, http.StatusOK, envelope(res.Result, data))
}

func (s *Server) addLiquidityHandler(w http.ResponseWriter, r *http.Request) {
	var body AddLiquidityRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.positionOp(r, body.Network, body.WalletAddress, body.PositionAddress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := svc.AddLiquidity(r.Context(), body.WalletAddress, body.PositionAddress,
		body.BaseTokenAmount, body.QuoteTokenAmount, slippageOr(body.SlippagePct))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var data any
	if d := res.Data; d != nil {
		data = AddLiquidityData{
			Fee:                   float(d.Fee),
			BaseTokenAmountAdded:  float(d.BaseTokenAmount),
			QuoteTokenAmountAdded: float(d.QuoteTokenAmount),
		}
	}
	writeJSON(w, http.StatusOK, envelope(res.Result, data))
}

func (s *Server) removeLiquidityHandler(w http.ResponseWriter, r *http.Request) {
	var body RemoveLiquidityRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.positionOp(r, body.Network, body.WalletAddress, body.PositionAddress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := svc.RemoveLiquidity(r.Context(), body.WalletAddress, body.PositionAddress,
		body.PercentageToRemove, slippageOr(body.SlippagePct))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var data any
	if d := res.Data; d != nil {
		data = RemoveLiquidityData{
			Fee:                     float(d.Fee),
			BaseTokenAmountRemoved:  float(d.BaseTokenAmount),
			QuoteTokenAmountRemoved: float(d.QuoteTokenAmount),
		}
	}
	writeJSON(w, http.StatusOK, envelope(res.Result, data))
}

func (s *Server) collectFeesHandler(w http.ResponseWriter, r *http.Request) {
	var body PositionRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.positionOp(r, body.Network, body.WalletAddress, body.PositionAddress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := svc.CollectFees(r.Context(), body.WalletAddress, body.PositionAddress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var data any
	if d := res.Data; d != nil {
		data = CollectFeesData{
			Fee:                     float(d.Fee),
			BaseFeeAmountCollected:  float(d.BaseFeeAmountCollected),
			QuoteFeeAmountCollected: float(d.QuoteFeeAmountCollected),
		}
	}
	writeJSON(w, http.StatusOK, envelope(res.Result, data))
}

func (s *Server) closePositionHandler(w http.ResponseWriter, r *http.Request) {
	var body PositionRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.positionOp(r, body.Network, body.WalletAddress, body.PositionAddress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := svc.ClosePosition(r.Context(), body.WalletAddress, body.PositionAddress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var data any
	if d := res.Data; d != nil {
		data = ClosePositionData{
			Fee:                     float(d.Fee),
			PositionRentRefunded:    float(d.PositionRentRefunded),
			BaseTokenAmountRemoved:  float(d.BaseTokenAmountRemoved),
			QuoteTokenAmountRemoved: float(d.QuoteTokenAmountRemoved),
			BaseFeeAmountCollected:  float(d.BaseFeeAmountCollected),
			QuoteFeeAmountCollected: float(d.QuoteFeeAmountCollected),
		}
	}
	writeJSON(w, http.StatusOK, envelope(res.Result, data))
}

func (s *Server) accruedFeesHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	positionAddress, err := requireString(q, "positionAddress")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	svc, err := s.clmm(r, q.Get("network"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	amounts, err := svc.AccruedFeesAndRewards(r.Context(), positionAddress)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out := make([]AccruedAmount, 0, len(amounts))
	for _, a := range amounts {
		out = append(out, AccruedAmount{Symbol: a.Symbol, Amount: float(a.Amount), Address: a.Address})
	}
	writeJSON(w, http.StatusOK, out)
}

// positionOp validates the fields shared by position-scoped transactions
// and resolves the connector.
func (s *Server) positionOp(r *http.Request, networkName, wallet, position string) (CLMMService, error) {
	if err := requireField(wallet, "walletAddress"); err != nil {
		return nil, err
	}
	if err := requireField(position, "positionAddress"); err != nil {
		return nil, err
	}
	return s.clmm(r, networkName)
}
