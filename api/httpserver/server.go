// Package httpserver exposes the matching engine over REST and
// WebSocket.
package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/alissawu/miniex/domain/book"
	"github.com/alissawu/miniex/service"
)

const tradesChannel = "trades"

type Server struct {
	engine *service.Engine
	router *mux.Router
	hub    *Hub
	log    *zap.Logger
}

func NewServer(engine *service.Engine, log *zap.Logger) *Server {
	s := &Server{
		engine: engine,
		router: mux.NewRouter(),
		hub:    NewHub(log),
		log:    log,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/orders", s.handleSubmitOrder).Methods("POST")
	api.HandleFunc("/orders/cancel", s.handleCancelOrder).Methods("POST")

	api.HandleFunc("/book/top", s.handleTopOfBook).Methods("GET")
	api.HandleFunc("/book/depth", s.handleDepth).Methods("GET")
	api.HandleFunc("/book/levels", s.handleLevels).Methods("GET")

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
}

// Handler returns the full middleware-wrapped handler. The hub must be
// started separately (see Start).
func (s *Server) Handler() http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(s.router)
}

func (s *Server) Start(addr string) error {
	go s.hub.Run()
	s.log.Info("api server starting", zap.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleSubmitOrder(w http.ResponseWriter, r *http.Request) {
	var req SubmitOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	side, err := parseSide(req.Side)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	var (
		id     uint64
		trades []book.Trade
	)
	switch req.Type {
	case "limit":
		id, trades = s.engine.PlaceLimit(side, req.Price, req.Qty, req.timestamp())
	case "market":
		id, trades = s.engine.PlaceMarket(side, req.Qty, req.timestamp())
	default:
		respondError(w, http.StatusBadRequest, "invalid order type", "expected limit or market")
		return
	}

	if id == 0 {
		respondError(w, http.StatusUnprocessableEntity, "order rejected", "price and qty must be positive")
		return
	}

	if len(trades) > 0 {
		s.hub.BroadcastToChannel(tradesChannel, TradeUpdate{
			Type:   "trades",
			Trades: trades,
			TS:     time.Now().UnixNano(),
		})
	}

	if trades == nil {
		trades = []book.Trade{}
	}
	respondJSON(w, SubmitOrderResponse{OrderID: id, Trades: trades})
}

func (s *Server) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	var req CancelOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.OrderID == 0 {
		respondError(w, http.StatusBadRequest, "missing order_id", "")
		return
	}

	ok := s.engine.Cancel(req.OrderID)
	if !ok {
		respondError(w, http.StatusNotFound, "order not found", "already filled, cancelled, or never existed")
		return
	}
	respondJSON(w, CancelOrderResponse{OrderID: req.OrderID, Cancelled: true})
}

func (s *Server) handleTopOfBook(w http.ResponseWriter, r *http.Request) {
	resp := TopOfBookResponse{TS: time.Now().UnixNano()}
	if bid, ok := s.engine.BestBid(); ok {
		resp.Bid = &bid
	}
	if ask, ok := s.engine.BestAsk(); ok {
		resp.Ask = &ask
	}
	respondJSON(w, resp)
}

func (s *Server) handleDepth(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	side, err := parseSide(q.Get("side"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid side", err.Error())
		return
	}

	price, err := strconv.ParseInt(q.Get("price"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid price", err.Error())
		return
	}

	respondJSON(w, DepthResponse{
		Side:  q.Get("side"),
		Price: price,
		Qty:   s.engine.DepthAt(side, price),
	})
}

func (s *Server) handleLevels(w http.ResponseWriter, r *http.Request) {
	bids := s.engine.Levels(book.Buy)
	asks := s.engine.Levels(book.Sell)
	if bids == nil {
		bids = []book.LevelInfo{}
	}
	if asks == nil {
		asks = []book.LevelInfo{}
	}
	respondJSON(w, LevelsResponse{Bids: bids, Asks: asks, TS: time.Now().UnixNano()})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, map[string]string{"status": "ok"})
}

func respondJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, errMsg, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{Error: errMsg, Message: detail})
}
