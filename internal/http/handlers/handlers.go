// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the Handlers aggregate and its collaborator interfaces.
// Handlers are transport-thin: they validate input, delegate to application
// services, and translate service errors into HTTP results.
package handlers

import (
	"context"
	"time"

	"github.com/tbourn/go-wa-assistant/internal/services"
)

// MessageDispatcher feeds inbound conversation turns into the engine.
type MessageDispatcher interface {
	HandleIncoming(ctx context.Context, instanceID string, msg services.InboundMessage)
}

// NotesIndex receives tenant reference notes for the retrieval index.
type NotesIndex interface {
	SetNotes(tenant, text string)
}

// Handlers bundles the HTTP endpoints with their injected dependencies.
type Handlers struct {
	tenants *services.TenantService
	audit   *services.AuditService
	bot     MessageDispatcher
	notes   NotesIndex

	// webhookToken guards the ingestion endpoint; empty disables the check.
	webhookToken string
	// dispatchTimeout bounds the detached processing of one webhook delivery.
	dispatchTimeout time.Duration
}

// New constructs the Handlers aggregate. A dispatchTimeout <= 0 defaults to
// 60 seconds.
func New(tenants *services.TenantService, audit *services.AuditService, bot MessageDispatcher, notes NotesIndex, webhookToken string, dispatchTimeout time.Duration) *Handlers {
	if dispatchTimeout <= 0 {
		dispatchTimeout = 60 * time.Second
	}
	return &Handlers{
		tenants:         tenants,
		audit:           audit,
		bot:             bot,
		notes:           notes,
		webhookToken:    webhookToken,
		dispatchTimeout: dispatchTimeout,
	}
}
