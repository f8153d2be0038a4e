package claimscreen

import (
	"context"
	"errors"
	"sync"
	"time"

	logging "github.com/ipfs/go-log/v2"
	"go.opencensus.io/stats"
	"go.opencensus.io/tag"

	"github.com/ipfs-force-community/onet-airdrop/connector"
	"github.com/ipfs-force-community/onet-airdrop/metrics"
)

var log = logging.Logger("claimscreen")

type Config struct {
	// ConnectTimeout bounds the handshake plus the claim status query. Zero disables it.
	ConnectTimeout time.Duration
	// ClaimTimeout bounds submission plus confirmation. Zero disables it.
	ClaimTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout: 2 * time.Minute,
		ClaimTimeout:   10 * time.Minute,
	}
}

// Screen owns the single claim Session of the process and drives it through
// connect and claim. Operations run in the background; callers observe the
// result through View and TakeNotifications.
type Screen struct {
	ctx       context.Context
	connector Connector
	contract  Contract
	cfg       Config

	lk      sync.Mutex
	session Session
	handle  Handle
	cancel  context.CancelFunc
	done    chan struct{}
	inbox   *Inbox
	inboxes []*Inbox
	changed chan struct{}
}

func New(ctx context.Context, conn Connector, contract Contract, cfg Config) *Screen {
	inbox := &Inbox{}
	return &Screen{
		ctx:       ctx,
		connector: conn,
		contract:  contract,
		cfg:       cfg,
		inbox:     inbox,
		inboxes:   []*Inbox{inbox},
		changed:   make(chan struct{}),
	}
}

func (s *Screen) Session() Session {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.session
}

func (s *Screen) State() State {
	return s.Session().State()
}

func (s *Screen) View() View {
	return newView(s.Session())
}

// Changed returns a channel closed at the next session change.
func (s *Screen) Changed() <-chan struct{} {
	s.lk.Lock()
	defer s.lk.Unlock()
	return s.changed
}

// TakeNotifications returns and forgets the pending notifications of the
// default inbox.
func (s *Screen) TakeNotifications() []Notification {
	return s.inbox.Take()
}

// NewInbox gives a front end its own copy of every later notification.
func (s *Screen) NewInbox() *Inbox {
	s.lk.Lock()
	defer s.lk.Unlock()
	inbox := &Inbox{}
	s.inboxes = append(s.inboxes, inbox)
	return inbox
}

// Connect runs ConnectAsync and waits for it or ctx.
func (s *Screen) Connect(ctx context.Context, method connector.Method) error {
	return wait(ctx, s.ConnectAsync(method))
}

// Claim runs ClaimAsync and waits for it or ctx.
func (s *Screen) Claim(ctx context.Context) error {
	return wait(ctx, s.ClaimAsync())
}

// ConnectAsync starts a connection when the session is Disconnected and idle.
// The loading flag is set before it returns. The returned channel is closed
// once the session has settled; it is already closed for a no-op.
func (s *Screen) ConnectAsync(method connector.Method) <-chan struct{} {
	s.lk.Lock()
	defer s.lk.Unlock()

	if s.session.Busy() || s.session.Account != nil {
		log.Debugf("connect ignored in state %s", s.session.State())
		return closedCh()
	}

	ctx, cancel := s.opContext(s.cfg.ConnectTimeout)
	s.session.Loading = true
	s.begin(cancel)
	done := s.done
	log.Infof("connecting with %s", method)

	go s.connect(ctx, method, done)
	return done
}

// ClaimAsync submits the claim when the session is ConnectedUnclaimed and idle.
func (s *Screen) ClaimAsync() <-chan struct{} {
	s.lk.Lock()
	defer s.lk.Unlock()

	if s.session.State() != ConnectedUnclaimed || s.handle == nil {
		log.Debugf("claim ignored in state %s", s.session.State())
		return closedCh()
	}

	ctx, cancel := s.opContext(s.cfg.ClaimTimeout)
	s.session.Claiming = true
	s.begin(cancel)
	done := s.done
	handle := s.handle
	method := s.session.Method
	log.Infof("claiming for %s", s.session.Account.Hex())

	go s.claim(ctx, handle, method, done)
	return done
}

// Cancel aborts the in-flight operation. It reports whether one was running.
func (s *Screen) Cancel() bool {
	s.lk.Lock()
	defer s.lk.Unlock()
	if s.cancel == nil {
		return false
	}
	log.Infof("cancel %s", s.session.State())
	s.cancel()
	return true
}

// Close cancels the in-flight operation and waits for it to settle.
func (s *Screen) Close() {
	s.lk.Lock()
	done := s.done
	if s.cancel != nil {
		s.cancel()
	}
	s.lk.Unlock()
	if done != nil {
		<-done
	}
}

func (s *Screen) connect(ctx context.Context, method connector.Method, done chan struct{}) {
	start := time.Now()
	conn, err := s.connector.Connect(ctx, method)
	if err != nil {
		s.finishConnect(ctx, method, nil, nil, false, err, start, done)
		return
	}

	handle := s.contract.Bind(conn.Signer)
	claimed, err := handle.HasClaimed(ctx, conn.Address)
	s.finishConnect(ctx, method, conn, handle, claimed, err, start, done)
}

func (s *Screen) finishConnect(ctx context.Context, method connector.Method, conn *connector.Connection, handle Handle, claimed bool, err error, start time.Time, done chan struct{}) {
	s.lk.Lock()
	defer s.lk.Unlock()
	defer s.end(done)

	s.session.Loading = false
	result := metrics.ResultSuccess
	switch {
	case err == nil:
		addr := conn.Address
		s.session.Account = &addr
		s.session.Method = method
		s.session.Claimed = claimed
		s.handle = handle
		log.Infof("connected %s, claimed: %v", addr.Hex(), claimed)
	case errors.Is(err, connector.ErrAgentUnavailable):
		result = metrics.ResultUnavailable
		log.Warnf("%s wallet unavailable: %v", method, err)
		s.notify(KindUnavailable, msgUnavailable)
	default:
		result = resultOf(ctx, err)
		log.Errorf("connect with %s failed: %v", method, err)
		s.notify(KindConnectError, msgConnectError+reason(ctx, err))
	}
	record(method, result, metrics.ScreenConnect, metrics.ConnectDuration, start)
}

func (s *Screen) claim(ctx context.Context, handle Handle, method connector.Method, done chan struct{}) {
	start := time.Now()
	tx, err := handle.Claim(ctx)
	if err == nil {
		s.setTxHash(tx)
		_, err = tx.Wait(ctx)
	}

	s.lk.Lock()
	defer s.lk.Unlock()
	defer s.end(done)

	s.session.Claiming = false
	result := metrics.ResultSuccess
	if err != nil {
		result = resultOf(ctx, err)
		log.Errorf("claim failed: %v", err)
		s.notify(KindClaimError, msgClaimError+reason(ctx, err))
	} else {
		s.session.Claimed = true
		log.Infof("claim confirmed in %s", s.session.TxHash.Hex())
		s.notify(KindClaimSuccess, msgClaimSuccess)
	}
	record(method, result, metrics.ScreenClaim, metrics.ClaimDuration, start)
}

func (s *Screen) setTxHash(tx Transaction) {
	hash := tx.Hash()
	s.lk.Lock()
	s.session.TxHash = &hash
	s.touch()
	s.lk.Unlock()
}

func (s *Screen) opContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout > 0 {
		return context.WithTimeout(s.ctx, timeout)
	}
	return context.WithCancel(s.ctx)
}

// begin and end must be called with lk held.
func (s *Screen) begin(cancel context.CancelFunc) {
	s.cancel = cancel
	s.done = make(chan struct{})
	s.touch()
}

func (s *Screen) end(done chan struct{}) {
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = nil
	s.done = nil
	s.touch()
	close(done)
}

func (s *Screen) touch() {
	close(s.changed)
	s.changed = make(chan struct{})
}

func (s *Screen) notify(kind Kind, msg string) {
	n := Notification{Kind: kind, Message: msg, Time: time.Now()}
	for _, inbox := range s.inboxes {
		inbox.push(n)
	}
}

func reason(ctx context.Context, err error) string {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return ctx.Err().Error()
	}
	return err.Error()
}

func resultOf(ctx context.Context, err error) string {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return metrics.ResultCancelled
	}
	return metrics.ResultError
}

func record(method connector.Method, result string, count *stats.Int64Measure, duration *stats.Float64Measure, start time.Time) {
	ctx, _ := tag.New(context.Background(),
		tag.Upsert(metrics.MethodKey, method.String()),
		tag.Upsert(metrics.ResultKey, result))
	stats.Record(ctx, count.M(1), duration.M(metrics.SinceInMilliseconds(start)))
}

func wait(ctx context.Context, done <-chan struct{}) error {
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func closedCh() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
