package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/creativealip-rgb/Monev-sub001/internal/domain"
)

// --- In-memory store ---

type memStore struct {
	mu       sync.Mutex
	seq      int
	txns     map[string]domain.Transaction
	cats     map[string]domain.Category
	budgets  map[string]domain.Budget
	goals    map[string]domain.Goal
	bills    map[string]domain.Bill
	invs     map[string]domain.Investment
	settings map[string]domain.UserSettings
	users    map[string]domain.User
	tokens   map[string]domain.RefreshToken

	goalsErr error
	txnsErr  error
	// maxRows caps each ListTransactions answer like a PostgREST
	// max-rows setting.
	maxRows int
	// txnsFailures makes the next n ListTransactions calls fail.
	txnsFailures int
}

func newMemStore() *memStore {
	return &memStore{
		txns:     map[string]domain.Transaction{},
		cats:     map[string]domain.Category{},
		budgets:  map[string]domain.Budget{},
		goals:    map[string]domain.Goal{},
		bills:    map[string]domain.Bill{},
		invs:     map[string]domain.Investment{},
		settings: map[string]domain.UserSettings{},
		users:    map[string]domain.User{},
		tokens:   map[string]domain.RefreshToken{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

func notFound(resource, id string) error {
	return &domain.ErrNotFound{Resource: resource, ID: id}
}

func (m *memStore) Ping(_ context.Context) error { return nil }

// Transactions

func (m *memStore) ListTransactions(_ context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.txnsFailures > 0 {
		m.txnsFailures--
		return nil, errors.New("store unavailable")
	}
	if m.txnsErr != nil {
		return nil, m.txnsErr
	}
	out := []domain.Transaction{}
	for _, t := range m.txns {
		if t.UserID != userID {
			continue
		}
		if !f.From.IsZero() && t.OccurredAt.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !t.OccurredAt.Before(f.To) {
			continue
		}
		if f.Type != "" && t.Type != f.Type {
			continue
		}
		if f.CategoryID != "" && t.CategoryID != f.CategoryID {
			continue
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return []domain.Transaction{}, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	if m.maxRows > 0 && len(out) > m.maxRows {
		out = out[:m.maxRows]
	}
	return out, nil
}

func (m *memStore) GetTransaction(_ context.Context, userID, id string) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.txns[id]
	if !ok || t.UserID != userID {
		return nil, notFound("transaction", id)
	}
	return &t, nil
}

func (m *memStore) CreateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := *tx
	t.ID = m.nextID("tx")
	m.txns[t.ID] = t
	return &t, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.txns[tx.ID]; !ok || old.UserID != tx.UserID {
		return nil, notFound("transaction", tx.ID)
	}
	m.txns[tx.ID] = *tx
	t := *tx
	return &t, nil
}

func (m *memStore) DeleteTransaction(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.txns[id]; !ok || t.UserID != userID {
		return notFound("transaction", id)
	}
	delete(m.txns, id)
	return nil
}

// Categories

func (m *memStore) ListCategories(_ context.Context, userID string) ([]domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Category{}
	for _, c := range m.cats {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *memStore) GetCategory(_ context.Context, userID, id string) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cats[id]
	if !ok || c.UserID != userID {
		return nil, notFound("category", id)
	}
	return &c, nil
}

func (m *memStore) CreateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc := *c
	cc.ID = m.nextID("cat")
	m.cats[cc.ID] = cc
	return &cc, nil
}

func (m *memStore) UpdateCategory(_ context.Context, c *domain.Category) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cats[c.ID] = *c
	cc := *c
	return &cc, nil
}

func (m *memStore) DeleteCategory(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.cats[id]; !ok || c.UserID != userID {
		return notFound("category", id)
	}
	delete(m.cats, id)
	return nil
}

// Budgets

func (m *memStore) ListBudgets(_ context.Context, userID string, month, year int) ([]domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Budget{}
	for _, b := range m.budgets {
		if b.UserID == userID && (month == 0 || b.Month == month) && (year == 0 || b.Year == year) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) GetBudget(_ context.Context, userID, id string) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.budgets[id]
	if !ok || b.UserID != userID {
		return nil, notFound("budget", id)
	}
	return &b, nil
}

func (m *memStore) CreateBudget(_ context.Context, b *domain.Budget) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bb := *b
	bb.ID = m.nextID("budget")
	m.budgets[bb.ID] = bb
	return &bb, nil
}

func (m *memStore) UpdateBudget(_ context.Context, b *domain.Budget) (*domain.Budget, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.budgets[b.ID] = *b
	bb := *b
	return &bb, nil
}

func (m *memStore) DeleteBudget(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.budgets[id]; !ok || b.UserID != userID {
		return notFound("budget", id)
	}
	delete(m.budgets, id)
	return nil
}

// Goals

func (m *memStore) ListGoals(_ context.Context, userID string) ([]domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.goalsErr != nil {
		return nil, m.goalsErr
	}
	out := []domain.Goal{}
	for _, g := range m.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) GetGoal(_ context.Context, userID, id string) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.goals[id]
	if !ok || g.UserID != userID {
		return nil, notFound("goal", id)
	}
	return &g, nil
}

func (m *memStore) CreateGoal(_ context.Context, g *domain.Goal) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	gg := *g
	gg.ID = m.nextID("goal")
	m.goals[gg.ID] = gg
	return &gg, nil
}

func (m *memStore) UpdateGoal(_ context.Context, g *domain.Goal) (*domain.Goal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[g.ID] = *g
	gg := *g
	return &gg, nil
}

func (m *memStore) DeleteGoal(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.goals[id]; !ok || g.UserID != userID {
		return notFound("goal", id)
	}
	delete(m.goals, id)
	return nil
}

// Bills

func (m *memStore) ListBills(_ context.Context, userID string) ([]domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Bill{}
	for _, b := range m.bills {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *memStore) GetBill(_ context.Context, userID, id string) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok || b.UserID != userID {
		return nil, notFound("bill", id)
	}
	return &b, nil
}

func (m *memStore) CreateBill(_ context.Context, b *domain.Bill) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bb := *b
	bb.ID = m.nextID("bill")
	m.bills[bb.ID] = bb
	return &bb, nil
}

func (m *memStore) UpdateBill(_ context.Context, b *domain.Bill) (*domain.Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bills[b.ID] = *b
	bb := *b
	return &bb, nil
}

func (m *memStore) DeleteBill(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b, ok := m.bills[id]; !ok || b.UserID != userID {
		return notFound("bill", id)
	}
	delete(m.bills, id)
	return nil
}

// Investments

func (m *memStore) ListInvestments(_ context.Context, userID string) ([]domain.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Investment{}
	for _, i := range m.invs {
		if i.UserID == userID {
			out = append(out, i)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (m *memStore) GetInvestment(_ context.Context, userID, id string) (*domain.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i, ok := m.invs[id]
	if !ok || i.UserID != userID {
		return nil, notFound("investment", id)
	}
	return &i, nil
}

func (m *memStore) CreateInvestment(_ context.Context, i *domain.Investment) (*domain.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ii := *i
	ii.ID = m.nextID("inv")
	m.invs[ii.ID] = ii
	return &ii, nil
}

func (m *memStore) UpdateInvestment(_ context.Context, i *domain.Investment) (*domain.Investment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.invs[i.ID] = *i
	ii := *i
	return &ii, nil
}

func (m *memStore) DeleteInvestment(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i, ok := m.invs[id]; !ok || i.UserID != userID {
		return notFound("investment", id)
	}
	delete(m.invs, id)
	return nil
}

// Settings

func (m *memStore) GetSettings(_ context.Context, userID string) (*domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		return nil, notFound("settings", userID)
	}
	return &s, nil
}

func (m *memStore) GetSettingsByChatID(_ context.Context, chatID int64) (*domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.settings {
		if s.TelegramChatID == chatID {
			return &s, nil
		}
	}
	return nil, notFound("settings", fmt.Sprint(chatID))
}

func (m *memStore) UpsertSettings(_ context.Context, s *domain.UserSettings) (*domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.UserID] = *s
	ss := *s
	return &ss, nil
}

func (m *memStore) ListNotifiable(_ context.Context) ([]domain.UserSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.UserSettings{}
	for _, s := range m.settings {
		if s.TelegramChatID != 0 && s.NotifyEnabled {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

// Users

func (m *memStore) CreateUser(_ context.Context, u *domain.User) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	uu := *u
	uu.ID = m.nextID("user")
	m.users[uu.ID] = uu
	return &uu, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, notFound("user", email)
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	return &u, nil
}

func (m *memStore) StoreRefreshToken(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tokenHash] = domain.RefreshToken{ID: m.nextID("rt"), UserID: userID, TokenHash: tokenHash, ExpiresAt: expiresAt}
	return nil
}

func (m *memStore) GetRefreshToken(_ context.Context, tokenHash string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok {
		return nil, notFound("refresh_token", "")
	}
	return &t, nil
}

func (m *memStore) RevokeRefreshToken(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tokens[tokenHash]
	if !ok {
		return notFound("refresh_token", "")
	}
	t.Revoked = true
	m.tokens[tokenHash] = t
	return nil
}

// seedCategory stores a category and returns its id.
func (m *memStore) seedCategory(userID, name string, typ domain.TxType) string {
	c, _ := m.CreateCategory(context.Background(), &domain.Category{UserID: userID, Name: name, Type: typ})
	return c.ID
}

func (m *memStore) seedTxn(tx domain.Transaction) {
	_, _ = m.CreateTransaction(context.Background(), &tx)
}

// --- Collaborator mocks ---

type mockCategorizer struct {
	suggestion *domain.CategorySuggestion
	err        error
	calls      int
}

func (m *mockCategorizer) Categorize(_ context.Context, _, _ string, _ []string) (*domain.CategorySuggestion, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if m.suggestion == nil {
		return nil, nil
	}
	s := *m.suggestion
	return &s, nil
}

type mockExtractor struct {
	extraction *domain.Extraction
	err        error
	lastKind   domain.MediaKind
}

func (m *mockExtractor) Extract(_ context.Context, media domain.Media) (*domain.Extraction, error) {
	m.lastKind = media.Kind
	if m.err != nil {
		return nil, m.err
	}
	e := *m.extraction
	return &e, nil
}

type mockNotifier struct {
	mu      sync.Mutex
	sent    map[int64]string
	failFor map[int64]bool
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{sent: map[int64]string{}, failFor: map[int64]bool{}}
}

func (m *mockNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFor[chatID] {
		return errors.New("chat not found")
	}
	m.sent[chatID] = text
	return nil
}

// monthsAgo returns a time within the current month minus n months, at a
// fixed day so cadence gaps stay monthly.
func monthsAgo(n, day int) time.Time {
	now := time.Now().UTC()
	return time.Date(now.Year(), now.Month(), day, 12, 0, 0, 0, time.UTC).AddDate(0, -n, 0)
}
