package flows

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/dmitrijs2005/eventpass/internal/client/api"
	"github.com/dmitrijs2005/eventpass/internal/client/models"
	"github.com/dmitrijs2005/eventpass/internal/client/session"
	"github.com/dmitrijs2005/eventpass/internal/logging"
	"github.com/google/uuid"
)

// PaymentState is one of PaymentFetchingStore, PaymentStoreFetchFailed,
// PaymentAwaitingAmount, PaymentTransferring or PaymentTransferSucceeded.
type PaymentState interface {
	paymentState()
}

type PaymentFetchingStore struct {
	StoreID string
}

type PaymentStoreFetchFailed struct {
	StoreID string
	Reason  string
	Err     error
}

// PaymentAwaitingAmount is where the user types an amount. After a failed
// transfer Amount still holds what was typed and Err says why.
type PaymentAwaitingAmount struct {
	Store  models.Store
	Amount string
	Err    string
}

type PaymentTransferring struct {
	Store  models.Store
	Amount float64
}

type PaymentTransferSucceeded struct {
	Store   models.Store
	Amount  float64
	Message string
}

func (PaymentFetchingStore) paymentState()     {}
func (PaymentStoreFetchFailed) paymentState()  {}
func (PaymentAwaitingAmount) paymentState()    {}
func (PaymentTransferring) paymentState()      {}
func (PaymentTransferSucceeded) paymentState() {}

// TransferListener is told about every completed transfer so wallet and
// profile views can re-fetch balances.
type TransferListener func(ctx context.Context, store models.Store, amount float64)

// PaymentFlow pays a store identified by a scanned code from the current
// account's wallet.
type PaymentFlow struct {
	client  api.Client
	session session.Store
	log     logging.Logger
	life    *lifetime
	newKey  func() string

	mu        sync.Mutex
	state     PaymentState
	storeID   string
	inFlight  bool
	pending   *pendingTransfer
	listeners []TransferListener
}

// pendingTransfer is an attempt whose outcome is unknown. Repeating it with
// the same account, store and amount reuses its idempotency key.
type pendingTransfer struct {
	key     string
	account models.ID
	store   models.ID
	amount  float64
}

func (p *pendingTransfer) matches(account, store models.ID, amount float64) bool {
	return p != nil && p.account == account && p.store == store && p.amount == amount
}

// outcomeUnknown reports whether the server may have applied a request that
// failed with err: transport failures, timeouts and 5xx responses.
func outcomeUnknown(err error) bool {
	var se *api.ServerError
	if errors.As(err, &se) {
		return se.Status >= 500
	}
	return !errors.Is(err, api.ErrUnauthorized) && !errors.Is(err, api.ErrNotFound)
}

func NewPaymentFlow(client api.Client, sess session.Store, log logging.Logger) *PaymentFlow {
	return &PaymentFlow{
		client:  client,
		session: sess,
		log:     log.With("flow", "payment"),
		life:    newLifetime(),
		newKey:  uuid.NewString,
		state:   PaymentFetchingStore{},
	}
}

func (f *PaymentFlow) State() PaymentState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *PaymentFlow) Close() {
	f.life.close()
}

// OnTransferred registers fn to run after each successful transfer.
func (f *PaymentFlow) OnTransferred(fn TransferListener) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
}

// Open fetches the store behind storeID.
func (f *PaymentFlow) Open(ctx context.Context, storeID string) (PaymentState, error) {
	f.mu.Lock()
	if f.life.closed() {
		defer f.mu.Unlock()
		return f.state, ErrFlowClosed
	}
	if f.inFlight {
		defer f.mu.Unlock()
		return f.state, ErrTransferInProgress
	}
	f.storeID = storeID
	f.state = PaymentFetchingStore{StoreID: storeID}
	f.mu.Unlock()

	notFound := fmt.Sprintf("Store with ID \"%s\" not found.", storeID)
	if strings.TrimSpace(storeID) == "" {
		return f.settleFetch(ctx, PaymentStoreFetchFailed{StoreID: storeID, Reason: notFound})
	}

	reqCtx, cancel := f.life.bind(ctx)
	defer cancel()

	store, err := f.client.GetStore(reqCtx, storeID)
	if err != nil {
		reason := MsgStoreFetchFailed
		if isServerError(err) {
			reason = notFound
		}
		f.log.Warn(ctx, "store fetch failed", "store", storeID, "error", err)
		return f.settleFetch(ctx, PaymentStoreFetchFailed{StoreID: storeID, Reason: reason, Err: err})
	}
	return f.settleFetch(ctx, PaymentAwaitingAmount{Store: *store})
}

// Retry repeats the last store fetch.
func (f *PaymentFlow) Retry(ctx context.Context) (PaymentState, error) {
	f.mu.Lock()
	storeID := f.storeID
	f.mu.Unlock()
	return f.Open(ctx, storeID)
}

func (f *PaymentFlow) settleFetch(ctx context.Context, next PaymentState) (PaymentState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.life.closed() {
		f.log.Debug(ctx, "discarding late store response", "store", f.storeID)
		return f.state, ErrFlowClosed
	}
	f.state = next
	return f.state, nil
}

// ParseAmount accepts a finite decimal strictly greater than zero.
func ParseAmount(input string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(input), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// CanTransfer reports whether the transfer action is enabled for input.
func (f *PaymentFlow) CanTransfer(input string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight || f.life.closed() {
		return false
	}
	if _, ok := f.state.(PaymentAwaitingAmount); !ok {
		return false
	}
	_, ok := ParseAmount(input)
	return ok
}

// SuccessMessage is the confirmation shown after a transfer.
func SuccessMessage(amount float64, storeName string) string {
	return fmt.Sprintf("Successfully transferred $%.2f to %s!", amount, storeName)
}

// Transfer sends input to the loaded store. Only one transfer runs at a
// time. A retry of an attempt that failed without a definite answer resends
// its idempotency key; anything else gets a fresh one.
func (f *PaymentFlow) Transfer(ctx context.Context, input string) (PaymentState, error) {
	f.mu.Lock()
	if f.life.closed() {
		defer f.mu.Unlock()
		return f.state, ErrFlowClosed
	}
	if f.inFlight {
		defer f.mu.Unlock()
		return f.state, ErrTransferInProgress
	}
	awaiting, ok := f.state.(PaymentAwaitingAmount)
	if !ok {
		defer f.mu.Unlock()
		return f.state, ErrStoreNotReady
	}
	amount, ok := ParseAmount(input)
	if !ok {
		defer f.mu.Unlock()
		return f.state, ErrInvalidAmount
	}
	walletID, ok := awaiting.Store.WalletID()
	if !ok {
		defer f.mu.Unlock()
		return f.state, ErrNoDestinationWallet
	}
	f.inFlight = true
	f.mu.Unlock()

	// The account is read now, not when the store was fetched.
	accountID, err := f.session.AccountID(ctx)
	switch {
	case err != nil:
		err = fmt.Errorf("%w: %w", ErrMissingCredentials, err)
	case accountID.IsZero():
		err = ErrMissingCredentials
	}
	if err != nil {
		f.mu.Lock()
		f.inFlight = false
		f.mu.Unlock()
		return f.State(), err
	}

	f.mu.Lock()
	f.state = PaymentTransferring{Store: awaiting.Store, Amount: amount}
	if !f.pending.matches(accountID, awaiting.Store.ID, amount) {
		f.pending = &pendingTransfer{key: f.newKey(), account: accountID, store: awaiting.Store.ID, amount: amount}
	}
	key := f.pending.key
	f.mu.Unlock()

	reqCtx, cancel := f.life.bind(ctx)
	defer cancel()

	err = f.client.Pay(reqCtx, accountID, api.PayRequest{ToWalletID: walletID, Amount: amount}, key)

	f.mu.Lock()
	f.inFlight = false
	if f.life.closed() {
		defer f.mu.Unlock()
		f.log.Debug(ctx, "discarding late transfer response", "store", awaiting.Store.ID, "key", key)
		return f.state, ErrFlowClosed
	}
	if err != nil {
		if !outcomeUnknown(err) {
			f.pending = nil
		}
		reason := MsgTransferFailed
		if msg, ok := api.Message(err); ok {
			reason = msg
		}
		f.log.Warn(ctx, "transfer failed", "store", awaiting.Store.ID, "amount", amount, "key", key, "error", err)
		f.state = PaymentAwaitingAmount{Store: awaiting.Store, Amount: input, Err: reason}
		defer f.mu.Unlock()
		return f.state, nil
	}

	f.log.Info(ctx, "transfer sent", "store", awaiting.Store.ID, "amount", amount, "key", key)
	f.pending = nil
	f.state = PaymentTransferSucceeded{
		Store:   awaiting.Store,
		Amount:  amount,
		Message: SuccessMessage(amount, awaiting.Store.Name),
	}
	state := f.state
	listeners := append([]TransferListener(nil), f.listeners...)
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(ctx, awaiting.Store, amount)
	}
	return state, nil
}
