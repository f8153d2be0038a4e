package webui

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/etherlabsio/healthcheck/v2"
	"github.com/gorilla/mux"
	logging "github.com/ipfs/go-log/v2"

	"github.com/ipfs-force-community/onet-airdrop/claimscreen"
	"github.com/ipfs-force-community/onet-airdrop/connector"
)

var log = logging.Logger("webui")

// Screen is the part of claimscreen.Screen the page drives.
type Screen interface {
	View() claimscreen.View
	TakeNotifications() []claimscreen.Notification
	ConnectAsync(method connector.Method) <-chan struct{}
	ClaimAsync() <-chan struct{}
	Cancel() bool
}

// ChainReader reports the id of the chain the node serves.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
}

type Server struct {
	screen  Screen
	chain   ChainReader
	chainID *big.Int
}

func NewServer(screen Screen, chain ChainReader, chainID uint64) *Server {
	return &Server{
		screen:  screen,
		chain:   chain,
		chainID: new(big.Int).SetUint64(chainID),
	}
}

// Register adds the page, the session json and the health check to r. The
// page actions only accept posts from the page itself.
func (s *Server) Register(r *mux.Router) {
	r.HandleFunc("/", s.index).Methods(http.MethodGet)

	actions := r.Methods(http.MethodPost).Subrouter()
	actions.Use(sameOrigin)
	actions.HandleFunc("/connect/{method}", s.connect)
	actions.HandleFunc("/claim", s.claim)
	actions.HandleFunc("/cancel", s.cancel)

	r.HandleFunc("/api/session", s.session).Methods(http.MethodGet)
	r.Handle("/healthcheck", healthcheck.Handler(
		healthcheck.WithTimeout(5*time.Second),
		healthcheck.WithChecker("chain", healthcheck.CheckerFunc(s.checkChain)),
	))
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	data := newPageData(s.screen.View(), s.screen.TakeNotifications(), tokenQuery(r))
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := page.Execute(w, data); err != nil {
		log.Errorf("render page: %s", err)
	}
}

func (s *Server) connect(w http.ResponseWriter, r *http.Request) {
	method, err := connector.ParseMethod(mux.Vars(r)["method"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.screen.ConnectAsync(method)
	http.Redirect(w, r, "/"+tokenQuery(r), http.StatusSeeOther)
}

func (s *Server) claim(w http.ResponseWriter, r *http.Request) {
	s.screen.ClaimAsync()
	http.Redirect(w, r, "/"+tokenQuery(r), http.StatusSeeOther)
}

func (s *Server) cancel(w http.ResponseWriter, r *http.Request) {
	s.screen.Cancel()
	http.Redirect(w, r, "/"+tokenQuery(r), http.StatusSeeOther)
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.screen.View()); err != nil {
		log.Errorf("encode session: %s", err)
	}
}

func (s *Server) checkChain(ctx context.Context) error {
	id, err := s.chain.ChainID(ctx)
	if err != nil {
		return err
	}
	if id.Cmp(s.chainID) != 0 {
		return fmt.Errorf("node serves chain %s, want %s", id, s.chainID)
	}
	return nil
}
