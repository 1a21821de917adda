//go:build !integration

package usecase_test

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/rs/zerolog"

	"nutriplan-backend/internal/domain"
	"nutriplan-backend/internal/domain/model"
	"nutriplan-backend/internal/domain/ports/adapter"
	"nutriplan-backend/internal/domain/ports/repository"
	"nutriplan-backend/internal/usecase"
)

var (
	_ usecase.EntitlementUseCase = (*MockEntitlements)(nil)
	_ usecase.EntitlementCache   = (*MockCache)(nil)
	_ usecase.GenerationLock     = (*MockLocker)(nil)
	_ usecase.SessionStore       = (*MockSessionStore)(nil)
	_ usecase.ChatLimiter        = (*MockLimiter)(nil)
)

func nopLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// In-memory fakes with overrideable XxxFunc fields. Defaults behave like a
// well-functioning backing store; tests override single methods to force
// edge cases.

// ---- Trials ----

type MockTrialRepo struct {
	mu     sync.Mutex
	trials map[string]*model.Trial // by user id
	saves  int

	FindByUserFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.Trial, error)
	SaveFunc       func(ctx context.Context, tx repository.Tx, trial *model.Trial) error
}

var _ repository.TrialRepository = (*MockTrialRepo)(nil)

func NewMockTrialRepo() *MockTrialRepo {
	return &MockTrialRepo{trials: make(map[string]*model.Trial)}
}

func (m *MockTrialRepo) FindByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Trial, error) {
	if m.FindByUserFunc != nil {
		return m.FindByUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.trials[userID]; ok {
		return t, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockTrialRepo) Save(ctx context.Context, tx repository.Tx, trial *model.Trial) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, trial)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trials[trial.UserID] = trial
	m.saves++
	return nil
}

func (m *MockTrialRepo) CountActive(ctx context.Context, tx repository.Tx, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.trials {
		if t.ActiveAt(now) {
			n++
		}
	}
	return n, nil
}

func (m *MockTrialRepo) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// ---- Subscriptions ----

type MockSubscriptionRepo struct {
	mu       sync.Mutex
	active   map[string]*model.Subscription // by user id
	lifetime map[string]*model.Subscription
	saved    []*model.Subscription

	FindActiveByUserFunc   func(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error)
	FindLatestByUserFunc   func(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error)
	FindLifetimeByUserFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error)
	SaveFunc               func(ctx context.Context, tx repository.Tx, sub *model.Subscription) error
	FindExpiringFunc       func(ctx context.Context, tx repository.Tx, withinDays int) ([]*model.Subscription, error)
}

var _ repository.SubscriptionRepository = (*MockSubscriptionRepo)(nil)

func NewMockSubscriptionRepo() *MockSubscriptionRepo {
	return &MockSubscriptionRepo{
		active:   make(map[string]*model.Subscription),
		lifetime: make(map[string]*model.Subscription),
	}
}

func (m *MockSubscriptionRepo) Save(ctx context.Context, tx repository.Tx, sub *model.Subscription) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, sub)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.Lifetime {
		m.lifetime[sub.UserID] = sub
	} else {
		m.active[sub.UserID] = sub
	}
	m.saved = append(m.saved, sub)
	return nil
}

func (m *MockSubscriptionRepo) FindActiveByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	if m.FindActiveByUserFunc != nil {
		return m.FindActiveByUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.active[userID]; ok {
		if s.Status == model.SubscriptionStatusActive && (s.ExpiresAt == nil || s.ExpiresAt.After(time.Now())) {
			return s, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindLatestByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	if m.FindLatestByUserFunc != nil {
		return m.FindLatestByUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.active[userID]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindLifetimeByUser(ctx context.Context, tx repository.Tx, userID string) (*model.Subscription, error) {
	if m.FindLifetimeByUserFunc != nil {
		return m.FindLifetimeByUserFunc(ctx, tx, userID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.lifetime[userID]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockSubscriptionRepo) FindExpiring(ctx context.Context, tx repository.Tx, withinDays int) ([]*model.Subscription, error) {
	if m.FindExpiringFunc != nil {
		return m.FindExpiringFunc(ctx, tx, withinDays)
	}
	return nil, nil
}

func (m *MockSubscriptionRepo) CountActiveByTier(ctx context.Context, tx repository.Tx) (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[string]int{}
	for _, s := range m.active {
		out[string(s.Tier)]++
	}
	for _, s := range m.lifetime {
		out[string(s.Tier)]++
	}
	return out, nil
}

func (m *MockSubscriptionRepo) Saved() []*model.Subscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Subscription(nil), m.saved...)
}

// ---- Recipes ----

type MockRecipeRepo struct {
	mu      sync.Mutex
	recipes []*model.Recipe

	ListAllFunc func(ctx context.Context, tx repository.Tx) ([]*model.Recipe, error)
}

var _ repository.RecipeRepository = (*MockRecipeRepo)(nil)

func NewMockRecipeRepo(recipes ...*model.Recipe) *MockRecipeRepo {
	return &MockRecipeRepo{recipes: recipes}
}

func (m *MockRecipeRepo) Save(ctx context.Context, tx repository.Tx, recipe *model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.recipes {
		if r.ID == recipe.ID {
			m.recipes[i] = recipe
			return nil
		}
	}
	m.recipes = append(m.recipes, recipe)
	return nil
}

func (m *MockRecipeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.recipes {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockRecipeRepo) ListAll(ctx context.Context, tx repository.Tx) ([]*model.Recipe, error) {
	if m.ListAllFunc != nil {
		return m.ListAllFunc(ctx, tx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Recipe(nil), m.recipes...), nil
}

func (m *MockRecipeRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.recipes {
		if r.ID == id {
			m.recipes = append(m.recipes[:i], m.recipes[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *MockRecipeRepo) CountByMealType(ctx context.Context, tx repository.Tx) (map[model.MealType]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[model.MealType]int{}
	for _, r := range m.recipes {
		out[r.MealType]++
	}
	return out, nil
}

// ---- Plans ----

type MockPlanRepo struct {
	mu    sync.Mutex
	plans []*model.WeeklyPlan
	items map[string][]*model.PlanItem // by plan id
	ops   []string                     // call order: delete, save_plan, save_items

	deleteWindows [][2]time.Time

	SavePlanFunc       func(ctx context.Context, tx repository.Tx, plan *model.WeeklyPlan) error
	SaveItemsFunc      func(ctx context.Context, tx repository.Tx, items []*model.PlanItem) error
	DeleteByWindowFunc func(ctx context.Context, tx repository.Tx, userID string, start, end time.Time) (int, error)
	FindByWindowFunc   func(ctx context.Context, tx repository.Tx, userID string, start, end time.Time) (*model.WeeklyPlan, error)
	FindItemsFunc      func(ctx context.Context, tx repository.Tx, planID string) ([]*model.PlanItem, error)
}

var _ repository.PlanRepository = (*MockPlanRepo)(nil)

func NewMockPlanRepo() *MockPlanRepo {
	return &MockPlanRepo{items: make(map[string][]*model.PlanItem)}
}

func (m *MockPlanRepo) SavePlan(ctx context.Context, tx repository.Tx, plan *model.WeeklyPlan) error {
	if m.SavePlanFunc != nil {
		return m.SavePlanFunc(ctx, tx, plan)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.plans = append(m.plans, plan)
	m.ops = append(m.ops, "save_plan")
	return nil
}

func (m *MockPlanRepo) SaveItems(ctx context.Context, tx repository.Tx, items []*model.PlanItem) error {
	if m.SaveItemsFunc != nil {
		return m.SaveItemsFunc(ctx, tx, items)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(items) > 0 {
		m.items[items[0].PlanID] = append([]*model.PlanItem(nil), items...)
	}
	m.ops = append(m.ops, "save_items")
	return nil
}

func (m *MockPlanRepo) DeleteByWindow(ctx context.Context, tx repository.Tx, userID string, start, end time.Time) (int, error) {
	if m.DeleteByWindowFunc != nil {
		return m.DeleteByWindowFunc(ctx, tx, userID, start, end)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ops = append(m.ops, "delete")
	m.deleteWindows = append(m.deleteWindows, [2]time.Time{start, end})
	removed := 0
	kept := m.plans[:0]
	for _, p := range m.plans {
		in := p.UserID == userID && !p.StartDate.Before(start) && !p.StartDate.After(end)
		if in {
			delete(m.items, p.ID)
			removed++
			continue
		}
		kept = append(kept, p)
	}
	m.plans = kept
	return removed, nil
}

func (m *MockPlanRepo) FindByWindow(ctx context.Context, tx repository.Tx, userID string, start, end time.Time) (*model.WeeklyPlan, error) {
	if m.FindByWindowFunc != nil {
		return m.FindByWindowFunc(ctx, tx, userID, start, end)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.plans {
		if p.UserID == userID && !p.StartDate.Before(start) && !p.StartDate.After(end) {
			return p, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanRepo) FindItems(ctx context.Context, tx repository.Tx, planID string) ([]*model.PlanItem, error) {
	if m.FindItemsFunc != nil {
		return m.FindItemsFunc(ctx, tx, planID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.items[planID], nil
}

func (m *MockPlanRepo) CountSince(ctx context.Context, tx repository.Tx, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.plans {
		if !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *MockPlanRepo) Ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ops...)
}

func (m *MockPlanRepo) DeleteWindows() [][2]time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][2]time.Time(nil), m.deleteWindows...)
}

func (m *MockPlanRepo) PlanCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.plans)
}

// ---- Users ----

type MockUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo(users ...*model.User) *MockUserRepo {
	m := &MockUserRepo{users: make(map[string]*model.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockUserRepo) Save(ctx context.Context, tx repository.Tx, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.users), nil
}

// ---- Transaction manager ----

// txSentinel is the tx handle MockTxManager hands to the callback, so tests
// can assert writes happened inside the transaction.
type txSentinel struct{}

var TestTx = txSentinel{}

type MockTxManager struct {
	Calls      int
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func NewMockTxManager() *MockTxManager { return &MockTxManager{} }

func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	m.Calls++
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, TestTx)
}

// ---- Locks, caches, limiters, sessions ----

type MockLocker struct {
	TryLockFunc func(ctx context.Context, key string, ttl time.Duration) (string, error)
	UnlockFunc  func(ctx context.Context, key, token string) error
	Unlocked    []string
}

func (m *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if m.TryLockFunc != nil {
		return m.TryLockFunc(ctx, key, ttl)
	}
	return "token", nil
}

func (m *MockLocker) Unlock(ctx context.Context, key, token string) error {
	if m.UnlockFunc != nil {
		return m.UnlockFunc(ctx, key, token)
	}
	m.Unlocked = append(m.Unlocked, key)
	return nil
}

type MockCache struct {
	mu      sync.Mutex
	entries map[string]*model.Entitlement
	Sets    int
	Dels    int
}

func NewMockCache() *MockCache {
	return &MockCache{entries: make(map[string]*model.Entitlement)}
}

func (m *MockCache) Get(ctx context.Context, userID string) (*model.Entitlement, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ent, ok := m.entries[userID]
	return ent, ok
}

func (m *MockCache) Set(ctx context.Context, userID string, ent *model.Entitlement) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[userID] = ent
	m.Sets++
}

func (m *MockCache) Del(ctx context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, userID)
	m.Dels++
}

type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*model.ChatSession
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]*model.ChatSession)}
}

func (m *MockSessionStore) Load(ctx context.Context, userID, sessionID string) (*model.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[userID+"/"+sessionID]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *MockSessionStore) Save(ctx context.Context, session *model.ChatSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.UserID+"/"+session.SessionID] = session
	return nil
}

type MockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	return true, nil
}

// ---- AI adapter ----

type MockAI struct {
	mu    sync.Mutex
	Calls int

	ChatWithUsageFunc func(ctx context.Context, model string, messages []adapter.Message) (string, adapter.Usage, error)
}

var _ adapter.AIServiceAdapter = (*MockAI)(nil)

func (m *MockAI) ListModels(ctx context.Context) ([]string, error) { return []string{"mock"}, nil }

func (m *MockAI) GetModelInfo(name string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: name}, nil
}

func (m *MockAI) CountTokens(ctx context.Context, name string, messages []adapter.Message) (int, error) {
	n := 0
	for _, msg := range messages {
		n += len(msg.Content) / 4
	}
	return n, nil
}

func (m *MockAI) Chat(ctx context.Context, name string, messages []adapter.Message) (string, error) {
	reply, _, err := m.ChatWithUsage(ctx, name, messages)
	return reply, err
}

func (m *MockAI) ChatWithUsage(ctx context.Context, name string, messages []adapter.Message) (string, adapter.Usage, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.ChatWithUsageFunc != nil {
		return m.ChatWithUsageFunc(ctx, name, messages)
	}
	return "mock reply", adapter.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15}, nil
}

// ---- Billing gateway ----

type MockBillingGateway struct {
	CreateCheckoutFunc    func(ctx context.Context, userID, tier string) (adapter.CheckoutSession, error)
	FetchSubscriptionFunc func(ctx context.Context, userID string) (*adapter.SubscriptionState, error)
}

var _ adapter.BillingGateway = (*MockBillingGateway)(nil)

func (m *MockBillingGateway) Name() string { return "mock" }

func (m *MockBillingGateway) CreateCheckout(ctx context.Context, userID, tier string) (adapter.CheckoutSession, error) {
	if m.CreateCheckoutFunc != nil {
		return m.CreateCheckoutFunc(ctx, userID, tier)
	}
	return adapter.CheckoutSession{URL: "https://pay.example/session", Reference: "ref-1"}, nil
}

func (m *MockBillingGateway) FetchSubscription(ctx context.Context, userID string) (*adapter.SubscriptionState, error) {
	if m.FetchSubscriptionFunc != nil {
		return m.FetchSubscriptionFunc(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

// ---- Entitlement stub for downstream use cases ----

type MockEntitlements struct {
	ResolveFunc func(ctx context.Context, userID string) (*model.Entitlement, error)
	Invalidated []string
	mu          sync.Mutex
}

func (m *MockEntitlements) Resolve(ctx context.Context, userID string) (*model.Entitlement, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, userID)
	}
	return &model.Entitlement{HasAccess: true, Tier: model.TierPremium}, nil
}

func (m *MockEntitlements) Invalidate(ctx context.Context, userID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Invalidated = append(m.Invalidated, userID)
}
