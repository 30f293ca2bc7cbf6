package checkout

import (
	"context"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/cart"
	"github.com/chaitanyaponnada/projecthub/internal/payu"
)

type mockRepo struct {
	checkouts map[string]*Checkout
	items     map[string][]CheckoutItem
	purchases []Purchase
	createErr error
}

func newMockRepo() *mockRepo {
	return &mockRepo{checkouts: map[string]*Checkout{}, items: map[string][]CheckoutItem{}}
}

func (m *mockRepo) Create(_ context.Context, c Checkout, items []CheckoutItem) error {
	if m.createErr != nil {
		return m.createErr
	}
	c.CreatedAt = time.Now()
	m.checkouts[c.TxnID] = &c
	m.items[c.TxnID] = items
	return nil
}

func (m *mockRepo) Get(_ context.Context, txnID string) (Checkout, error) {
	c, ok := m.checkouts[txnID]
	if !ok {
		return Checkout{}, ErrNotFound
	}
	return *c, nil
}

func (m *mockRepo) MarkPaid(_ context.Context, txnID string) (Checkout, []Purchase, error) {
	c, ok := m.checkouts[txnID]
	if !ok {
		return Checkout{}, nil, ErrNotFound
	}
	if c.Status != StatusPaid {
		if !CanTransition(c.Status, StatusPaid) {
			return Checkout{}, nil, ErrInvalidTransition
		}
		c.Status = StatusPaid
		for _, it := range m.items[txnID] {
			m.purchases = append(m.purchases, Purchase{
				TxnID: txnID, ProjectID: it.ProjectID, UserID: c.UserID, PriceCents: it.PriceCents,
			})
		}
	}
	var out []Purchase
	for _, p := range m.purchases {
		if p.TxnID == txnID {
			out = append(out, p)
		}
	}
	return *c, out, nil
}

func (m *mockRepo) MarkCancelled(_ context.Context, txnID string) error {
	c, ok := m.checkouts[txnID]
	if !ok {
		return ErrNotFound
	}
	if c.Status == StatusPending {
		c.Status = StatusCancelled
	}
	return nil
}

func (m *mockRepo) ListPurchasesByUser(_ context.Context, userID string) ([]Purchase, error) {
	var out []Purchase
	for _, p := range m.purchases {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockRepo) HasPurchase(_ context.Context, userID, projectID string) (bool, error) {
	for _, p := range m.purchases {
		if p.UserID == userID && p.ProjectID == projectID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockRepo) ListSales(_ context.Context) ([]Sale, error) { return nil, nil }

type mockCarts struct {
	carts map[string]*cart.Cart
}

func newMockCarts() *mockCarts { return &mockCarts{carts: map[string]*cart.Cart{}} }

func (m *mockCarts) Get(_ context.Context, userID string) (*cart.Cart, error) {
	if c, ok := m.carts[userID]; ok {
		cp := *c
		cp.Items = append([]cart.Item(nil), c.Items...)
		return &cp, nil
	}
	return &cart.Cart{UserID: userID}, nil
}

func (m *mockCarts) Save(_ context.Context, c *cart.Cart) error {
	m.carts[c.UserID] = c
	return nil
}

func (m *mockCarts) Clear(_ context.Context, userID string) error {
	delete(m.carts, userID)
	return nil
}

type mockPublisher struct {
	published []kafkago.Message
}

func (m *mockPublisher) Publish(key, value []byte, headers ...kafkago.Header) {
	m.published = append(m.published, kafkago.Message{Key: key, Value: value, Headers: headers})
}

var testCreds = payu.Credentials{Key: "K1", Salt: "S1"}

func newTestService(repo *mockRepo, carts *mockCarts, pub *mockPublisher) *Service {
	return NewService(repo, carts, pub, zap.NewNop(), testCreds,
		"http://localhost:8080/payment/callback", "projecthub-api")
}

func filledCart(t *testing.T, carts *mockCarts, userID string) {
	t.Helper()
	c := &cart.Cart{UserID: userID}
	require.NoError(t, c.Add(cart.Item{ProjectID: "p1", Title: "Library System", PriceCents: 10000}))
	require.NoError(t, c.Add(cart.Item{ProjectID: "p2", Title: "Chat App", PriceCents: 5000}))
	require.NoError(t, carts.Save(context.Background(), c))
}

func initiateReq() payu.Request {
	return payu.Request{
		TxnID:       "TXN123",
		ProductInfo: "Project:1",
		FirstName:   "Alice",
		Email:       "alice@x.com",
		Phone:       "9999999999",
	}
}

func TestInitiate_EmptyCart(t *testing.T) {
	svc := newTestService(newMockRepo(), newMockCarts(), &mockPublisher{})

	_, err := svc.Initiate(context.Background(), "u1", initiateReq())
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestInitiate_SnapshotsCartAndSigns(t *testing.T) {
	repo := newMockRepo()
	carts := newMockCarts()
	filledCart(t, carts, "u1")
	svc := newTestService(repo, carts, &mockPublisher{})

	payload, err := svc.Initiate(context.Background(), "u1", initiateReq())
	require.NoError(t, err)

	assert.Equal(t, "150.00", payload.Amount) // derived from cart total
	assert.Equal(t, "K1", payload.Key)
	assert.Len(t, payload.Hash, 128)
	assert.Equal(t, "http://localhost:8080/payment/callback", payload.SuccessURL)

	c, err := repo.Get(context.Background(), "TXN123")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, c.Status)
	assert.Equal(t, 15000, c.TotalCents)
	assert.Len(t, repo.items["TXN123"], 2)

	// the cart must survive until the payment confirms
	got, err := carts.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
}

func TestInitiate_SuppliedAmountPassedThrough(t *testing.T) {
	repo := newMockRepo()
	carts := newMockCarts()
	filledCart(t, carts, "u1")
	svc := newTestService(repo, carts, &mockPublisher{})

	req := initiateReq()
	req.Amount = "150.0" // as provided, no normalization
	payload, err := svc.Initiate(context.Background(), "u1", req)
	require.NoError(t, err)
	assert.Equal(t, "150.0", payload.Amount)
}

func TestInitiate_MissingCredentials(t *testing.T) {
	repo := newMockRepo()
	carts := newMockCarts()
	filledCart(t, carts, "u1")
	svc := NewService(repo, carts, &mockPublisher{}, zap.NewNop(),
		payu.Credentials{}, "http://localhost:8080/payment/callback", "projecthub-api")

	_, err := svc.Initiate(context.Background(), "u1", initiateReq())
	assert.ErrorIs(t, err, payu.ErrMissingCredentials)
	// nothing signed means nothing snapshotted
	assert.Empty(t, repo.checkouts)
}

func successCallback(amount string) payu.Callback {
	cb := payu.Callback{
		Status:      payu.StatusSuccess,
		TxnID:       "TXN123",
		Amount:      amount,
		ProductInfo: "Project:1",
		FirstName:   "Alice",
		Email:       "alice@x.com",
	}
	cb.Hash = payu.ResponseHash(testCreds, cb)
	return cb
}

func TestHandleCallback_VerifiedSuccessSettles(t *testing.T) {
	repo := newMockRepo()
	carts := newMockCarts()
	pub := &mockPublisher{}
	filledCart(t, carts, "u1")
	svc := newTestService(repo, carts, pub)

	_, err := svc.Initiate(context.Background(), "u1", initiateReq())
	require.NoError(t, err)

	res, err := svc.HandleCallback(context.Background(), successCallback("150.00"))
	require.NoError(t, err)
	assert.True(t, res.Verified)
	assert.Equal(t, "TXN123", res.TxnID)

	c, err := repo.Get(context.Background(), "TXN123")
	require.NoError(t, err)
	assert.Equal(t, StatusPaid, c.Status)

	purchases, err := svc.ListPurchases(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, purchases, 2)

	owned, err := svc.HasPurchase(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.True(t, owned)

	got, err := carts.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)

	require.Len(t, pub.published, 1)
	assert.Equal(t, []byte("TXN123"), pub.published[0].Key)
}

func TestHandleCallback_ProviderFailurePreservesCart(t *testing.T) {
	repo := newMockRepo()
	carts := newMockCarts()
	pub := &mockPublisher{}
	filledCart(t, carts, "u1")
	svc := newTestService(repo, carts, pub)

	_, err := svc.Initiate(context.Background(), "u1", initiateReq())
	require.NoError(t, err)

	cb := successCallback("150.00")
	cb.Status = "failure"
	res, err := svc.HandleCallback(context.Background(), cb)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Empty(t, res.Reason)

	c, err := repo.Get(context.Background(), "TXN123")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, c.Status)

	got, err := carts.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Empty(t, pub.published)
}

func TestHandleCallback_HashMismatchIsCancelled(t *testing.T) {
	repo := newMockRepo()
	carts := newMockCarts()
	pub := &mockPublisher{}
	filledCart(t, carts, "u1")
	svc := newTestService(repo, carts, pub)

	_, err := svc.Initiate(context.Background(), "u1", initiateReq())
	require.NoError(t, err)

	cb := successCallback("150.00")
	cb.Amount = "1.00" // tampered after signing
	res, err := svc.HandleCallback(context.Background(), cb)
	require.NoError(t, err)
	assert.False(t, res.Verified)
	assert.Equal(t, payu.ReasonHashMismatch, res.Reason)

	c, err := repo.Get(context.Background(), "TXN123")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, c.Status)

	got, err := carts.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, got.Items, 2)
	assert.Empty(t, pub.published)
}

func TestHandleCallback_ReplayedSuccessIsIdempotent(t *testing.T) {
	repo := newMockRepo()
	carts := newMockCarts()
	pub := &mockPublisher{}
	filledCart(t, carts, "u1")
	svc := newTestService(repo, carts, pub)

	_, err := svc.Initiate(context.Background(), "u1", initiateReq())
	require.NoError(t, err)

	first, err := svc.HandleCallback(context.Background(), successCallback("150.00"))
	require.NoError(t, err)
	second, err := svc.HandleCallback(context.Background(), successCallback("150.00"))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	purchases, err := svc.ListPurchases(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, purchases, 2) // no double credit
}

func TestStatusTransitions(t *testing.T) {
	assert.True(t, CanTransition(StatusPending, StatusPaid))
	assert.True(t, CanTransition(StatusPending, StatusCancelled))
	assert.False(t, CanTransition(StatusPaid, StatusCancelled))
	assert.False(t, CanTransition(StatusCancelled, StatusPaid))
	assert.False(t, CanTransition(StatusPaid, StatusPending))
}

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "150.00", FormatAmount(15000))
	assert.Equal(t, "0.05", FormatAmount(5))
	assert.Equal(t, "99.99", FormatAmount(9999))
}
