package user

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetTicketKeyPrefix = "reset_ticket:"

// errTicketNotFound is internal; the service maps it to ErrNoPendingReset.
var errTicketNotFound = errors.New("reset ticket not found")

// ResetTicketStore holds the confirmed-reset context between the "confirm
// code" and "submit new password" steps. Tickets are keyed by an opaque
// random token so concurrent reset flows for different users never collide,
// and each ticket is consumable exactly once.
type ResetTicketStore interface {
	// Create stores a ticket mapping to the user it authorizes, expiring
	// after ttl.
	Create(ctx context.Context, ticket, userID string, ttl time.Duration) error

	// Consume atomically retrieves and deletes a ticket, returning the user
	// it authorizes. A second consume of the same ticket fails.
	Consume(ctx context.Context, ticket string) (userID string, err error)
}

// redisTicketStore implements ResetTicketStore on redis. Tickets are stored
// under the token's hash so a redis snapshot never contains usable tickets.
type redisTicketStore struct {
	client *redis.Client
}

// NewRedisTicketStore creates a redis-backed reset ticket store.
func NewRedisTicketStore(client *redis.Client) ResetTicketStore {
	return &redisTicketStore{client: client}
}

func (s *redisTicketStore) Create(ctx context.Context, ticket, userID string, ttl time.Duration) error {
	return s.client.Set(ctx, resetTicketKeyPrefix+hashToken(ticket), userID, ttl).Err()
}

func (s *redisTicketStore) Consume(ctx context.Context, ticket string) (string, error) {
	// GETDEL makes retrieval and invalidation one atomic step: of two
	// concurrent resets with the same ticket, exactly one gets the user ID.
	userID, err := s.client.GetDel(ctx, resetTicketKeyPrefix+hashToken(ticket)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errTicketNotFound
		}
		return "", err
	}
	return userID, nil
}
