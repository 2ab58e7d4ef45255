package storage

import (
	"context"
	"encoding/json"

	"github.com/lucasvieira/agendou/libs/db"
)

// Message is one delivery attempt, kept for audit and debugging.
type Message struct {
	OrgID     string
	Channel   string
	Recipient string
	Kind      string
	Payload   map[string]any
	Status    string
}

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Insert(ctx context.Context, m Message) error {
	payload, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO relay_messages (organization_id, channel, recipient, kind, payload, status)
		VALUES (NULLIF($1, '')::uuid, $2, $3, $4, $5, $6)
	`, m.OrgID, m.Channel, m.Recipient, m.Kind, payload, m.Status)
	return err
}
