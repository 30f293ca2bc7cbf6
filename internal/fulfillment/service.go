package fulfillment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/chaitanyaponnada/projecthub/internal/checkout"
	kafkax "github.com/chaitanyaponnada/projecthub/internal/kafka"
	"github.com/chaitanyaponnada/projecthub/internal/redisx"
)

type Fulfiller interface {
	Fulfill(ctx context.Context, txnID, userID string, projectIDs []string) error
}

// Service consumes checkout.completed events and turns them into
// download grants and sales counters.
type Service struct {
	Repo        Fulfiller
	Redis       *redis.Client
	Log         *zap.Logger
	ServiceName string
}

// HandleCheckoutCompleted is installed as the consumer handler.
func (s *Service) HandleCheckoutCompleted(ctx context.Context, m kafkago.Message) error {
	var env checkout.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return fmt.Errorf("decode envelope: %w", err)
	}
	if env.EventType != checkout.EventCheckoutCompleted {
		return nil // ignore
	}

	// dedup on event_id; the repo write is idempotent anyway, this
	// just skips the work on redelivery
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, env.EventID)
	if seen, _ := redisx.Exists(ctx, s.Redis, dkey); seen {
		return nil
	}

	p, err := kafkax.UnwrapPayload[checkout.CheckoutCompletedPayload](env.Payload)
	if err != nil {
		return err
	}

	projectIDs := make([]string, 0, len(p.Items))
	for _, it := range p.Items {
		projectIDs = append(projectIDs, it.ProjectID)
	}

	if err := s.Repo.Fulfill(ctx, p.TxnID, p.UserID, projectIDs); err != nil {
		return fmt.Errorf("fulfill %s: %w", p.TxnID, err)
	}
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()

	s.Log.Info("checkout fulfilled",
		zap.String("txn_id", p.TxnID),
		zap.String("user_id", p.UserID),
		zap.Int("items", len(projectIDs)),
	)
	return nil
}
