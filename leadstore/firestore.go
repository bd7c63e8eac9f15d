package leadstore

import (
	"context"
	"fmt"
	"time"

	"lead-checkout/config"
	"lead-checkout/models"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
)

// firestoreLead is the document shape of the customers collection.
type firestoreLead struct {
	Email        string    `firestore:"email"`
	WhatsApp     string    `firestore:"whatsapp"`
	WhatsAppE164 string    `firestore:"whatsappE164,omitempty"`
	PlanID       string    `firestore:"planId"`
	PlanName     string    `firestore:"planName"`
	PlanPrice    string    `firestore:"planPrice"`
	IsAnnual     bool      `firestore:"isAnnual"`
	SetupFee     float64   `firestore:"setupFee"`
	Status       string    `firestore:"status"`
	CreatedAt    time.Time `firestore:"createdAt,serverTimestamp"`
	UpdatedAt    time.Time `firestore:"updatedAt,serverTimestamp"`
}

type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore opens a client for the configured project. With
// FIRESTORE_EMULATOR_HOST set the client talks to the emulator instead.
func NewFirestore(ctx context.Context, conf config.Firestore) (*Firestore, error) {
	opts := []option.ClientOption{}
	if conf.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(conf.CredentialsFile))
	}
	client, err := firestore.NewClient(ctx, conf.ProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client for project %v: %w", conf.ProjectID, err)
	}
	collection := conf.Collection
	if collection == "" {
		collection = "customers"
	}
	return &Firestore{client: client, collection: collection}, nil
}

func (f *Firestore) Create(ctx context.Context, lead models.CustomerLead) (string, error) {
	doc := firestoreLead{
		Email:        lead.Email,
		WhatsApp:     lead.Phone,
		WhatsAppE164: lead.PhoneE164,
		PlanID:       lead.PlanID,
		PlanName:     lead.PlanName,
		PlanPrice:    lead.PlanPrice,
		IsAnnual:     lead.IsAnnual,
		SetupFee:     lead.SetupFee,
		Status:       string(models.LeadStatusPending),
	}
	ref, _, err := f.client.Collection(f.collection).Add(ctx, doc)
	if err != nil {
		return "", &PersistenceError{
			Op:  "add",
			Err: fmt.Errorf("failed to add lead for plan %v: %w", lead.PlanID, err),
		}
	}
	return ref.ID, nil
}

// Get reads a lead document back by id.
func (f *Firestore) Get(ctx context.Context, id string) (models.CustomerLead, error) {
	snap, err := f.client.Collection(f.collection).Doc(id).Get(ctx)
	if err != nil {
		return models.CustomerLead{}, fmt.Errorf("failed to get lead %v: %w", id, err)
	}
	var doc firestoreLead
	if err := snap.DataTo(&doc); err != nil {
		return models.CustomerLead{}, fmt.Errorf("failed to decode lead %v: %w", id, err)
	}
	return models.CustomerLead{
		ID:        id,
		Email:     doc.Email,
		Phone:     doc.WhatsApp,
		PhoneE164: doc.WhatsAppE164,
		PlanID:    doc.PlanID,
		PlanName:  doc.PlanName,
		PlanPrice: doc.PlanPrice,
		IsAnnual:  doc.IsAnnual,
		SetupFee:  doc.SetupFee,
		Status:    models.LeadStatus(doc.Status),
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}
