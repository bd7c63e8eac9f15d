package leadstore

import (
	"context"
	"fmt"

	"lead-checkout/config"
	"lead-checkout/models"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/thanhpk/randstr"
)

const createCustomersTable = `CREATE TABLE IF NOT EXISTS customers (
	id VARCHAR ( 32 ) PRIMARY KEY,
	email VARCHAR ( 320 ) NOT NULL,
	whatsapp VARCHAR ( 32 ) NOT NULL,
	whatsapp_e164 VARCHAR ( 20 ),
	plan_id VARCHAR ( 64 ) NOT NULL,
	plan_name VARCHAR ( 128 ),
	plan_price VARCHAR ( 64 ),
	is_annual BOOLEAN NOT NULL,
	setup_fee NUMERIC ( 12, 2 ) NOT NULL,
	status VARCHAR ( 16 ) NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);`

// no ON CONFLICT: repeated submissions from the same email get new rows
const insertCustomer = `insert into customers(id, email, whatsapp, whatsapp_e164, plan_id, plan_name, plan_price, is_annual, setup_fee, status, created_at, updated_at) values($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())`

type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to postgres and makes sure the customers table
// exists.
func NewPostgres(ctx context.Context, conf config.Postgres) (*Postgres, error) {
	return connectPostgres(ctx, conf.ConnString())
}

func connectPostgres(ctx context.Context, connStr string) (*Postgres, error) {
	// https://github.com/jackc/pgx#example-usage
	pool, err := pgxpool.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	_, err = pool.Exec(ctx, createCustomersTable)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// NewLeadID generates the opaque record id.
func NewLeadID() string {
	return randstr.Hex(32)
}

func (p *Postgres) Create(ctx context.Context, lead models.CustomerLead) (string, error) {
	id := NewLeadID()
	_, err := p.pool.Exec(
		ctx,
		insertCustomer,
		id,
		lead.Email,
		lead.Phone,
		lead.PhoneE164,
		lead.PlanID,
		lead.PlanName,
		lead.PlanPrice,
		lead.IsAnnual,
		lead.SetupFee,
		string(models.LeadStatusPending),
	)
	if err != nil {
		return "", &PersistenceError{
			Op:  "insert",
			Err: fmt.Errorf("failed to insert lead for plan %v: %w", lead.PlanID, err),
		}
	}

	return id, nil
}

// Get reads a lead back by id. Only used by operators and tests; the
// checkout flow never reads leads.
func (p *Postgres) Get(ctx context.Context, id string) (models.CustomerLead, error) {
	lead := models.CustomerLead{ID: id}
	var status string
	var phoneE164 *string
	err := p.pool.QueryRow(
		ctx,
		"select email, whatsapp, whatsapp_e164, plan_id, plan_name, plan_price, is_annual, setup_fee::float8, status, created_at, updated_at from customers where id=$1",
		id,
	).Scan(
		&lead.Email,
		&lead.Phone,
		&phoneE164,
		&lead.PlanID,
		&lead.PlanName,
		&lead.PlanPrice,
		&lead.IsAnnual,
		&lead.SetupFee,
		&status,
		&lead.CreatedAt,
		&lead.UpdatedAt,
	)
	if err != nil {
		return lead, fmt.Errorf("failed to query lead id %v: %w", id, err)
	}
	lead.Status = models.LeadStatus(status)
	if phoneE164 != nil {
		lead.PhoneE164 = *phoneE164
	}
	return lead, nil
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
