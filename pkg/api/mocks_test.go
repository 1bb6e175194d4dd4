package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"

	"github.com/platinummonkey/tally/pkg/accounts"
	"github.com/platinummonkey/tally/pkg/auth"
	"github.com/platinummonkey/tally/pkg/billing"
	"github.com/platinummonkey/tally/pkg/clients"
	"github.com/platinummonkey/tally/pkg/invoice"
	"github.com/platinummonkey/tally/pkg/logos"
	"github.com/platinummonkey/tally/pkg/mail"
	"github.com/platinummonkey/tally/pkg/middleware"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/projects"
)

const testToken = "tally_test_token"

// mockAccountStore implements accounts.Store for testing
type mockAccountStore struct {
	mu       sync.Mutex
	accounts map[uuid.UUID]*accounts.Account

	createFunc        func(ctx context.Context, a *accounts.Account) error
	getByEmailFunc    func(ctx context.Context, email string) (*accounts.Account, error)
	updateProfileFunc func(ctx context.Context, id uuid.UUID, req *accounts.UpdateProfileRequest) (*accounts.Account, error)
	setLogoKeyFunc    func(ctx context.Context, id uuid.UUID, key string) error
}

func (m *mockAccountStore) Create(ctx context.Context, a *accounts.Account) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return accounts.ErrEmailTaken
		}
	}
	a.ID = uuid.New()
	m.accounts[a.ID] = a
	return nil
}

func (m *mockAccountStore) GetByID(ctx context.Context, id uuid.UUID) (*accounts.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, accounts.ErrNotFound
	}
	copied := *a
	return &copied, nil
}

func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == accounts.NormalizeEmail(email) {
			return a, nil
		}
	}
	return nil, accounts.ErrNotFound
}

func (m *mockAccountStore) UpdateProfile(ctx context.Context, id uuid.UUID, req *accounts.UpdateProfileRequest) (*accounts.Account, error) {
	if m.updateProfileFunc != nil {
		return m.updateProfileFunc(ctx, id, req)
	}
	return nil, errors.New("not implemented")
}

func (m *mockAccountStore) SetLogoKey(ctx context.Context, id uuid.UUID, key string) error {
	if m.setLogoKeyFunc != nil {
		return m.setLogoKeyFunc(ctx, id, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return accounts.ErrNotFound
	}
	a.LogoKey = key
	return nil
}

func (m *mockAccountStore) ActivatePro(ctx context.Context, email, customerID string) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *mockAccountStore) RevokePro(ctx context.Context, customerID string) (bool, error) {
	return false, errors.New("not implemented")
}

func (m *mockAccountStore) ExpireTrials(ctx context.Context, now time.Time) (int64, error) {
	return 0, errors.New("not implemented")
}

// mockSessionStore implements auth.SessionStore for testing
type mockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]*auth.Session
	revoked  []string
}

func (m *mockSessionStore) Create(ctx context.Context, accountID uuid.UUID) (string, *auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := "tally_" + uuid.NewString()
	session := &auth.Session{ID: uuid.New(), AccountID: accountID, ExpiresAt: time.Now().Add(time.Hour)}
	m.sessions[token] = session
	return token, session, nil
}

func (m *mockSessionStore) Lookup(ctx context.Context, token string) (*auth.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[token]
	if !ok {
		return nil, auth.ErrInvalidSession
	}
	return s, nil
}

func (m *mockSessionStore) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	m.revoked = append(m.revoked, token)
	return nil
}

func (m *mockSessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	return 0, nil
}

// mockClientStore implements clients.Store for testing
type mockClientStore struct {
	createFunc func(ctx context.Context, userID uuid.UUID, in *clients.Input) (*clients.Client, error)
	getFunc    func(ctx context.Context, userID, id uuid.UUID) (*clients.Client, error)
	listFunc   func(ctx context.Context, userID uuid.UUID) ([]*clients.Client, error)
	updateFunc func(ctx context.Context, userID, id uuid.UUID, in *clients.Input) (*clients.Client, error)
	deleteFunc func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockClientStore) Create(ctx context.Context, userID uuid.UUID, in *clients.Input) (*clients.Client, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClientStore) Get(ctx context.Context, userID, id uuid.UUID) (*clients.Client, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, id)
	}
	return nil, clients.ErrNotFound
}

func (m *mockClientStore) List(ctx context.Context, userID uuid.UUID) ([]*clients.Client, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockClientStore) Update(ctx context.Context, userID, id uuid.UUID, in *clients.Input) (*clients.Client, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, userID, id, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockClientStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, id)
	}
	return errors.New("not implemented")
}

// mockProjectStore implements projects.Store for testing
type mockProjectStore struct {
	createFunc func(ctx context.Context, userID uuid.UUID, in *projects.Input) (*projects.Project, error)
	getFunc    func(ctx context.Context, userID, id uuid.UUID) (*projects.Project, error)
	listFunc   func(ctx context.Context, userID uuid.UUID) ([]*projects.Project, error)
	updateFunc func(ctx context.Context, userID, id uuid.UUID, in *projects.Input) (*projects.Project, error)
	deleteFunc func(ctx context.Context, userID, id uuid.UUID) error
}

func (m *mockProjectStore) Create(ctx context.Context, userID uuid.UUID, in *projects.Input) (*projects.Project, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProjectStore) Get(ctx context.Context, userID, id uuid.UUID) (*projects.Project, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, userID, id)
	}
	return nil, projects.ErrNotFound
}

func (m *mockProjectStore) List(ctx context.Context, userID uuid.UUID) ([]*projects.Project, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, userID)
	}
	return nil, nil
}

func (m *mockProjectStore) Update(ctx context.Context, userID, id uuid.UUID, in *projects.Input) (*projects.Project, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, userID, id, in)
	}
	return nil, errors.New("not implemented")
}

func (m *mockProjectStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, userID, id)
	}
	return errors.New("not implemented")
}

// memoryInvoiceStore implements invoice.Store in memory
type memoryInvoiceStore struct {
	mu       sync.Mutex
	invoices []*invoice.Invoice
	err      error
}

func (m *memoryInvoiceStore) add(inv *invoice.Invoice) *invoice.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	m.invoices = append(m.invoices, inv)
	return inv
}

func (m *memoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if m.err != nil {
		return m.err
	}
	inv.CreatedAt = time.Now()
	inv.UpdatedAt = inv.CreatedAt
	m.add(inv)
	return nil
}

func (m *memoryInvoiceStore) Get(ctx context.Context, userID, id uuid.UUID) (*invoice.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invoices {
		if inv.ID == id && inv.UserID == userID {
			copied := *inv
			return &copied, nil
		}
	}
	return nil, invoice.ErrNotFound
}

func (m *memoryInvoiceStore) List(ctx context.Context, userID uuid.UUID) ([]*invoice.Invoice, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*invoice.Invoice
	for i := len(m.invoices) - 1; i >= 0; i-- {
		if m.invoices[i].UserID == userID {
			out = append(out, m.invoices[i])
		}
	}
	return out, nil
}

func (m *memoryInvoiceStore) Update(ctx context.Context, inv *invoice.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.invoices {
		if existing.ID == inv.ID && existing.UserID == inv.UserID {
			m.invoices[i] = inv
			return nil
		}
	}
	return invoice.ErrNotFound
}

func (m *memoryInvoiceStore) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.invoices {
		if existing.ID == id && existing.UserID == userID {
			m.invoices = append(m.invoices[:i], m.invoices[i+1:]...)
			return nil
		}
	}
	return invoice.ErrNotFound
}

func (m *memoryInvoiceStore) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, inv := range m.invoices {
		if inv.UserID == userID {
			count++
		}
	}
	return count, nil
}

// mockSender implements mail.Sender for testing
type mockSender struct {
	mu   sync.Mutex
	sent []*mail.Message
	err  error
}

func (m *mockSender) Send(ctx context.Context, msg *mail.Message) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return "msg_123", nil
}

// mockWebhookProcessor implements WebhookProcessor for testing
type mockWebhookProcessor struct {
	handleFunc func(ctx context.Context, payload []byte, header string) (*stripe.Event, billing.Outcome, error)
}

func (m *mockWebhookProcessor) Handle(ctx context.Context, payload []byte, header string) (*stripe.Event, billing.Outcome, error) {
	if m.handleFunc != nil {
		return m.handleFunc(ctx, payload, header)
	}
	return nil, "", errors.New("not implemented")
}

// memoryEventLog implements billing.EventLog in memory
type memoryEventLog struct {
	seen map[string]string
}

func (m *memoryEventLog) Seen(ctx context.Context, eventID string) (bool, error) {
	_, ok := m.seen[eventID]
	return ok, nil
}

func (m *memoryEventLog) Record(ctx context.Context, eventID, eventType string) error {
	m.seen[eventID] = eventType
	return nil
}

// memoryObjects implements logos.ObjectStore in memory
type memoryObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted chan string
}

func newMemoryObjects() *memoryObjects {
	return &memoryObjects{objects: map[string][]byte{}, deleted: make(chan string, 8)}
}

func (m *memoryObjects) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memoryObjects) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, logos.ErrNotFound
	}
	return data, nil
}

func (m *memoryObjects) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	m.deleted <- key
	return nil
}

func (m *memoryObjects) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// testEnv is a server wired to in-memory dependencies and one signed-in account
type testEnv struct {
	server   *Server
	account  *accounts.Account
	accounts *mockAccountStore
	sessions *mockSessionStore
	clients  *mockClientStore
	projects *mockProjectStore
	invoices *memoryInvoiceStore
	mailer   *mockSender
	billing  *mockWebhookProcessor
	objects  *memoryObjects
	limiter  *middleware.RateLimiter
	metrics  *observability.Metrics
}

func newTestEnv(t *testing.T, isPro bool) *testEnv {
	t.Helper()

	account := &accounts.Account{
		ID:           uuid.New(),
		Email:        "owner@example.com",
		Name:         "Olive Owner",
		BusinessName: "Olive Design",
		IsPro:        isPro,
	}
	env := &testEnv{
		account:  account,
		accounts: &mockAccountStore{accounts: map[uuid.UUID]*accounts.Account{account.ID: account}},
		sessions: &mockSessionStore{sessions: map[string]*auth.Session{
			testToken: {ID: uuid.New(), AccountID: account.ID, ExpiresAt: time.Now().Add(time.Hour)},
		}},
		clients:  &mockClientStore{},
		projects: &mockProjectStore{},
		invoices: &memoryInvoiceStore{},
		mailer:   &mockSender{},
		billing:  &mockWebhookProcessor{},
		objects:  newMemoryObjects(),
		limiter:  middleware.NewRateLimiter(middleware.LoginRateLimitConfig()),
		metrics:  observability.NewMetrics(prometheus.NewRegistry()),
	}

	env.server = NewServer(Dependencies{
		Accounts: env.accounts,
		Sessions: env.sessions,
		Limiter:  env.limiter,
		Clients:  env.clients,
		Projects: env.projects,
		Invoices: env.invoices,
		Mailer:   env.mailer,
		MailFrom: "invoices@tally.test",
		Logos:    logos.NewService(env.objects),
		Billing:  env.billing,
		Metrics:  env.metrics,
		Logger:   observability.NewLogger(observability.ErrorLevel, io.Discard),
	})
	return env
}

// do sends a request through the full middleware stack, signed in unless token is empty
func (e *testEnv) do(method, path string, body io.Reader, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(method, path string, payload interface{}) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			panic(err)
		}
		body = bytes.NewReader(data)
	}
	return e.do(method, path, body, testToken)
}

// envelope mirrors httputil.Envelope with a raw data field
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), "body: %s", w.Body.String())
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func assertStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("status = %d, want %d, body: %s", w.Code, want, w.Body.String())
	}
}

var _ http.Handler = (*Server)(nil)
