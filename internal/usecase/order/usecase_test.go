package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/lumapay/marketplace-order-service/internal/domain"
	"github.com/lumapay/marketplace-order-service/internal/infrastructure/metrics"
)

// stubRepo mimics the store contract: reads return detached copies, so order
// mutations only land through Save or the targeted writes, and Remove and
// UpdateStatusIf are status-guarded. The hooks let tests interleave a
// concurrent transition at the exact point the store is touched.
type stubRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order

	saveErr   error
	saveCalls int
	removed   []string

	beforeRemove      func()
	afterStatusUpdate func(orderID string)
}

func newStubRepo(orders ...*domain.Order) *stubRepo {
	repo := &stubRepo{orders: make(map[string]*domain.Order)}
	for _, order := range orders {
		repo.orders[order.ID] = order
	}
	return repo
}

func (s *stubRepo) matches(order *domain.Order, filter domain.OrderFilter) bool {
	if filter.OrderID != "" && order.ID != filter.OrderID {
		return false
	}
	if filter.OfferID != "" && order.OfferID != filter.OfferID {
		return false
	}
	if filter.Nonce != "" && order.Nonce != filter.Nonce {
		return false
	}
	if filter.Status != "" && order.Status != filter.Status {
		return false
	}
	if filter.ExcludeStatus != "" && order.Status == filter.ExcludeStatus {
		return false
	}
	if filter.Origin != "" && order.Origin != filter.Origin {
		return false
	}
	if filter.UserID != "" && order.ContextForUser(filter.UserID) == nil {
		return false
	}
	if filter.WalletAddress != "" && order.ContextForWallet(filter.WalletAddress) == nil {
		return false
	}
	if !filter.ExpiredBefore.IsZero() {
		if order.ExpirationDate == nil || !order.ExpirationDate.Before(filter.ExpiredBefore) {
			return false
		}
	}
	if !filter.CreatedBefore.IsZero() && !order.CreatedDate.Before(filter.CreatedBefore) {
		return false
	}
	if !filter.CreatedAfter.IsZero() && !order.CreatedDate.After(filter.CreatedAfter) {
		return false
	}
	return true
}

func (s *stubRepo) GetOne(ctx context.Context, filter domain.OrderFilter) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, order := range s.orders {
		if s.matches(order, filter) {
			detached := *order
			return &detached, nil
		}
	}
	return nil, nil
}

func (s *stubRepo) GetOpenOrder(ctx context.Context, offerID, userID string) (*domain.Order, error) {
	return s.GetOne(ctx, domain.OrderFilter{
		OfferID: offerID,
		UserID:  userID,
		Status:  domain.StatusOpened,
	})
}

func (s *stubRepo) GetAll(ctx context.Context, filter domain.OrderFilter, limit int) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []*domain.Order
	for _, order := range s.orders {
		if s.matches(order, filter) {
			detached := *order
			result = append(result, &detached)
		}
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

func (s *stubRepo) CountByOffer(ctx context.Context, offerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, order := range s.orders {
		if order.OfferID == offerID && order.Status != domain.StatusFailed {
			total++
		}
	}
	return total, nil
}

func (s *stubRepo) CountByOfferAndUser(ctx context.Context, offerID, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var total int64
	for _, order := range s.orders {
		if order.OfferID == offerID && order.Status != domain.StatusFailed && order.ContextForUser(userID) != nil {
			total++
		}
	}
	return total, nil
}

func (s *stubRepo) Save(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saveCalls++
	s.orders[order.ID] = order
	return nil
}

func (s *stubRepo) Remove(ctx context.Context, order *domain.Order) error {
	if s.beforeRemove != nil {
		s.beforeRemove()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.ID]
	if !ok || stored.Status != domain.StatusOpened {
		return fmt.Errorf("order %s is no longer opened", order.ID)
	}
	delete(s.orders, order.ID)
	s.removed = append(s.removed, order.ID)
	return nil
}

func (s *stubRepo) UpdateStatusIf(
	ctx context.Context,
	orderID string,
	from, to domain.OrderStatus,
	orderErr *domain.OrderError,
	value *domain.OrderValue,
	statusDate time.Time,
) (bool, error) {
	s.mu.Lock()
	order, ok := s.orders[orderID]
	if !ok || order.Status != from {
		s.mu.Unlock()
		return false, nil
	}
	order.Status = to
	order.CurrentStatusDate = statusDate
	if orderErr != nil {
		order.Error = orderErr
	}
	if value != nil {
		order.Value = value
		order.Error = nil
	}
	s.mu.Unlock()

	if s.afterStatusUpdate != nil {
		s.afterStatusUpdate(orderID)
	}
	return true, nil
}

func (s *stubRepo) UpdateAmount(ctx context.Context, orderID string, amount int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if order, ok := s.orders[orderID]; ok {
		order.Amount = amount
	}
	return nil
}

func (s *stubRepo) get(orderID string) *domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[orderID]
}

func (s *stubRepo) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

// stubLocker serializes per key like the real lease locker, so the creation
// protocol's mutual exclusion holds in tests.
type stubLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
	keys  []string
}

func (s *stubLocker) WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.locks == nil {
		s.locks = make(map[string]*sync.Mutex)
	}
	lock, ok := s.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[key] = lock
	}
	s.keys = append(s.keys, key)
	s.mu.Unlock()

	lock.Lock()
	defer lock.Unlock()
	return fn(ctx)
}

type stubCatalog struct {
	offer     *domain.Offer
	appOffers []*domain.AppOffer
	app       *domain.Application
}

func (s *stubCatalog) GetOffer(ctx context.Context, offerID string) (*domain.Offer, error) {
	return s.offer, nil
}

func (s *stubCatalog) GetAppOffers(ctx context.Context, appID string, offerType domain.OfferType) ([]*domain.AppOffer, error) {
	return s.appOffers, nil
}

func (s *stubCatalog) GetApp(ctx context.Context, appID string) (*domain.Application, error) {
	return s.app, nil
}

type stubWallets struct {
	wallets  map[string]*domain.Wallet
	versions map[string]string
}

func (s *stubWallets) LastUsedWallet(ctx context.Context, userID, deviceID string) (*domain.Wallet, error) {
	return s.wallets[userID], nil
}

func (s *stubWallets) BlockchainVersion(ctx context.Context, walletAddress string) (string, error) {
	return s.versions[walletAddress], nil
}

type stubUsers struct {
	users map[string]*domain.User
}

func (s *stubUsers) FindUser(ctx context.Context, appID, appUserID string) (*domain.User, error) {
	return s.users[appUserID], nil
}

type settlementCall struct {
	method  string
	orderID string
	address string
	amount  int64
}

type stubSettlement struct {
	mu    sync.Mutex
	calls []settlementCall
	err   error
}

func (s *stubSettlement) record(call settlementCall) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.calls = append(s.calls, call)
	return nil
}

func (s *stubSettlement) PayTo(ctx context.Context, recipientAddress, appID string, amount int64, orderID, blockchainVersion string) error {
	return s.record(settlementCall{method: "PayTo", orderID: orderID, address: recipientAddress, amount: amount})
}

func (s *stubSettlement) SubmitTransaction(ctx context.Context, recipientAddress, senderAddress, appID string, amount int64, orderID, payload string) error {
	return s.record(settlementCall{method: "SubmitTransaction", orderID: orderID, address: recipientAddress, amount: amount})
}

func (s *stubSettlement) RegisterWatch(ctx context.Context, address, orderID, appID string) error {
	return s.record(settlementCall{method: "RegisterWatch", orderID: orderID, address: address})
}

func (s *stubSettlement) callsOf(method string) []settlementCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []settlementCall
	for _, call := range s.calls {
		if call.method == method {
			result = append(result, call)
		}
	}
	return result
}

type stubTokens struct {
	payload *domain.ExternalOrderPayload
	err     error
}

func (s *stubTokens) ValidateExternalOrderToken(ctx context.Context, token string, user *domain.User) (*domain.ExternalOrderPayload, error) {
	return s.payload, s.err
}

type stubRateLimit struct {
	err     error
	amounts []int64
}

func (s *stubRateLimit) AssertEarnLimit(ctx context.Context, userID, walletAddress string, amount int64) error {
	s.amounts = append(s.amounts, amount)
	return s.err
}

type stubTransfers struct {
	mu      sync.Mutex
	entries map[string]string
}

func newStubTransfers() *stubTransfers {
	return &stubTransfers{entries: make(map[string]string)}
}

func (s *stubTransfers) Put(ctx context.Context, transferOrderID, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[transferOrderID] = orderID
	return nil
}

func (s *stubTransfers) Get(ctx context.Context, transferOrderID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entries[transferOrderID], nil
}

func (s *stubTransfers) Close() error { return nil }

type stubContent struct {
	formAmount  *int64
	contentType string
	formCalls   int
}

func (s *stubContent) SubmitForm(ctx context.Context, order *domain.Order, form string) error {
	s.formCalls++
	if s.formAmount != nil {
		order.Amount = *s.formAmount
	}
	return nil
}

func (s *stubContent) ContentTypeOf(ctx context.Context, offerID string) (string, error) {
	return s.contentType, nil
}

type stubPublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (s *stubPublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

type testEnv struct {
	repo       *stubRepo
	locker     *stubLocker
	catalog    *stubCatalog
	wallets    *stubWallets
	users      *stubUsers
	settlement *stubSettlement
	tokens     *stubTokens
	rateLimit  *stubRateLimit
	transfers  *stubTransfers
	content    *stubContent
	publisher  *stubPublisher
}

func newTestEnv(orders ...*domain.Order) *testEnv {
	return &testEnv{
		repo:       newStubRepo(orders...),
		locker:     &stubLocker{},
		catalog:    &stubCatalog{},
		wallets:    &stubWallets{wallets: make(map[string]*domain.Wallet), versions: make(map[string]string)},
		users:      &stubUsers{users: make(map[string]*domain.User)},
		settlement: &stubSettlement{},
		tokens:     &stubTokens{},
		rateLimit:  &stubRateLimit{},
		transfers:  newStubTransfers(),
		content:    &stubContent{},
		publisher:  &stubPublisher{},
	}
}

func (e *testEnv) usecase() *OrderUsecase {
	return NewOrderUsecase(Dependencies{
		Repo:       e.repo,
		Locker:     e.locker,
		Catalog:    e.catalog,
		Wallets:    e.wallets,
		Users:      e.users,
		Settlement: e.settlement,
		Tokens:     e.tokens,
		RateLimit:  e.rateLimit,
		Transfers:  e.transfers,
		Content:    e.content,
		Publisher:  e.publisher,
		Metrics:    metrics.NewOrderMetrics(prometheus.NewRegistry()),
	})
}
