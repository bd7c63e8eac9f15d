package leadstore

import (
	"context"
	"fmt"

	"lead-checkout/config"
	"lead-checkout/models"
)

// Store is the append-only collection of customer leads. Create writes
// exactly one new record per call and returns its generated id.
type Store interface {
	Create(ctx context.Context, lead models.CustomerLead) (string, error)
	Close() error
}

// PersistenceError is the error every driver returns for a failed write.
type PersistenceError = models.PersistenceError

// New opens the store selected by conf.Driver.
func New(ctx context.Context, conf config.Store) (Store, error) {
	switch conf.Driver {
	case config.DriverPostgres:
		return NewPostgres(ctx, conf.Postgres)
	case config.DriverFirestore:
		return NewFirestore(ctx, conf.Firestore)
	default:
		return nil, fmt.Errorf("unknown store driver %q", conf.Driver)
	}
}
