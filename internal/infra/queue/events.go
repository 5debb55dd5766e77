package mq

import (
	"time"

	"github.com/google/uuid"
)

// Routing keys for project lifecycle messages on the topic exchange.
const (
	RoutingProjectCreated = "project.created"
	RoutingProjectUpdated = "project.updated"
	RoutingProjectDeleted = "project.deleted"
)

// ProjectEvent is the body published for every project lifecycle
// change. Consumers rebuild search indexes and activity feeds from it.
type ProjectEvent struct {
	ProjectID  uuid.UUID `json:"project_id"`
	OwnerType  string    `json:"owner_type"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Slug       string    `json:"slug"`
	Public     bool      `json:"public"`
	OccurredAt time.Time `json:"occurred_at"`
}
