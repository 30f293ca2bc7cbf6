package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/cart"
	kafkax "github.com/chaitanyaponnada/projecthub/internal/kafka"
	"github.com/chaitanyaponnada/projecthub/internal/payu"
)

var ErrEmptyCart = errors.New("checkout: cart is empty")

type Repository interface {
	Create(ctx context.Context, c Checkout, items []CheckoutItem) error
	Get(ctx context.Context, txnID string) (Checkout, error)
	MarkPaid(ctx context.Context, txnID string) (Checkout, []Purchase, error)
	MarkCancelled(ctx context.Context, txnID string) error
	ListPurchasesByUser(ctx context.Context, userID string) ([]Purchase, error)
	HasPurchase(ctx context.Context, userID, projectID string) (bool, error)
	ListSales(ctx context.Context) ([]Sale, error)
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

// Service drives the checkout state machine: snapshot-and-sign on the
// way out, verify-and-settle on the way back.
type Service struct {
	repo     Repository
	carts    cart.Store
	producer Publisher
	log      *zap.Logger

	creds       payu.Credentials
	callbackURL string
	service     string
}

func NewService(repo Repository, carts cart.Store, producer Publisher, log *zap.Logger,
	creds payu.Credentials, callbackURL, serviceName string) *Service {
	return &Service{
		repo:        repo,
		carts:       carts,
		producer:    producer,
		log:         log,
		creds:       creds,
		callbackURL: callbackURL,
		service:     serviceName,
	}
}

// Initiate snapshots the current cart under the caller-supplied txn id
// and returns the signed provider payload. The cart itself is left
// intact; it is only cleared once the provider confirms payment.
func (s *Service) Initiate(ctx context.Context, userID string, req payu.Request) (payu.Payload, error) {
	c, err := s.carts.Get(ctx, userID)
	if err != nil {
		return payu.Payload{}, fmt.Errorf("load cart: %w", err)
	}
	if len(c.Items) == 0 {
		return payu.Payload{}, ErrEmptyCart
	}

	total := c.TotalCents()
	if req.Amount == "" {
		req.Amount = FormatAmount(total)
	}

	// both callback URLs point at the same verifier; the posted status
	// field decides the outcome
	payload, err := payu.Sign(s.creds, req, s.callbackURL, s.callbackURL)
	if err != nil {
		return payu.Payload{}, err
	}

	items := make([]CheckoutItem, 0, len(c.Items))
	for _, it := range c.Items {
		items = append(items, CheckoutItem{
			TxnID:      req.TxnID,
			ProjectID:  it.ProjectID,
			Title:      it.Title,
			PriceCents: it.PriceCents,
		})
	}
	snapshot := Checkout{
		TxnID:       req.TxnID,
		UserID:      userID,
		Amount:      req.Amount,
		ProductInfo: req.ProductInfo,
		TotalCents:  total,
		Status:      StatusPending,
	}
	if err := s.repo.Create(ctx, snapshot, items); err != nil {
		return payu.Payload{}, fmt.Errorf("create checkout %s: %w", req.TxnID, err)
	}

	s.log.Info("checkout initiated",
		zap.String("txn_id", req.TxnID),
		zap.String("user_id", userID),
		zap.Int("total_cents", total),
	)
	return payload, nil
}

// HandleCallback authenticates the provider callback and applies the
// outcome. The returned Result drives the redirect regardless of any
// settlement error: a verified payment stays a success for the payer
// even if a local write needs reconciliation later.
//
// Note: the provider's transaction-status API is not re-queried here;
// the signature on the redirected payload is the only proof. A
// hardened deployment should confirm server-to-server before crediting.
func (s *Service) HandleCallback(ctx context.Context, cb payu.Callback) (payu.Result, error) {
	res, err := payu.Verify(s.creds, cb)
	if err != nil {
		return payu.Result{}, err
	}

	if !res.Verified {
		if res.Reason == payu.ReasonHashMismatch {
			s.log.Warn("callback hash mismatch, treating as cancelled",
				zap.String("txn_id", cb.TxnID))
		}
		// cancelled: the checkout closes but the cart stays intact
		if err := s.repo.MarkCancelled(ctx, cb.TxnID); err != nil && !errors.Is(err, ErrNotFound) {
			s.log.Error("mark cancelled failed", zap.String("txn_id", cb.TxnID), zap.Error(err))
		}
		return res, nil
	}

	if err := s.settle(ctx, cb.TxnID); err != nil {
		s.log.Error("settlement failed after verified payment",
			zap.String("txn_id", cb.TxnID), zap.Error(err))
	}
	return res, nil
}

func (s *Service) settle(ctx context.Context, txnID string) error {
	c, purchases, err := s.repo.MarkPaid(ctx, txnID)
	if err != nil {
		return err
	}

	if err := s.carts.Clear(ctx, c.UserID); err != nil {
		s.log.Warn("cart clear failed", zap.String("user_id", c.UserID), zap.Error(err))
	}

	items := make([]PurchasedItem, 0, len(purchases))
	for _, p := range purchases {
		items = append(items, PurchasedItem{ProjectID: p.ProjectID, PriceCents: p.PriceCents})
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventCheckoutCompleted,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.service,
		CorrelationID: txnID,
		Payload: kafkax.MustMarshal(CheckoutCompletedPayload{
			TxnID:      txnID,
			UserID:     c.UserID,
			Items:      items,
			TotalCents: c.TotalCents,
		}),
	}
	s.producer.Publish(PartitionKey(txnID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventCheckoutCompleted)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
	return nil
}

func (s *Service) ListPurchases(ctx context.Context, userID string) ([]Purchase, error) {
	return s.repo.ListPurchasesByUser(ctx, userID)
}

func (s *Service) HasPurchase(ctx context.Context, userID, projectID string) (bool, error) {
	return s.repo.HasPurchase(ctx, userID, projectID)
}

func (s *Service) ListSales(ctx context.Context) ([]Sale, error) {
	return s.repo.ListSales(ctx)
}

// FormatAmount renders cents the way the provider expects: "150.00".
func FormatAmount(cents int) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}
