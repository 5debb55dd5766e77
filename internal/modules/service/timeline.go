package service

import (
	"bytes"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/openplans/planbox/internal/modules/model"
)

// EventInput is one submitted timeline entry. An ID ties it back to an
// existing event; without one the entry is created fresh.
type EventInput struct {
	ID          *uuid.UUID `json:"id"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
}

// TimelinePayload distinguishes the three shapes an "events" field can
// take in a request body: absent (leave the timeline alone), null
// (rejected by validation), or a list (reconcile against it).
type TimelinePayload struct {
	Present bool
	Null    bool
	Items   []EventInput
}

func (t *TimelinePayload) UnmarshalJSON(b []byte) error {
	t.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		t.Null = true
		return nil
	}
	return sonic.Unmarshal(b, &t.Items)
}

func (t TimelinePayload) MarshalJSON() ([]byte, error) {
	if !t.Present || t.Null {
		return []byte("null"), nil
	}
	return sonic.Marshal(t.Items)
}

// timelinePlan is the outcome of reconciling a submitted event list
// against the currently stored one. Upserts are ordered by their final
// index; entries with a nil ID are inserts.
type timelinePlan struct {
	Upserts   []*model.Event
	DeleteIDs []uuid.UUID
}

// planTimeline computes the edit plan that makes the stored timeline
// equal the submitted list. Every submitted entry gets the index of its
// position in the list, so indices come out dense (0..n-1) regardless
// of the previous ordering. Stored events the submission does not
// mention are deleted. A submitted ID that matches nothing is treated
// as a fresh insert with a server-assigned ID.
func planTimeline(existing []*model.Event, submitted []EventInput) timelinePlan {
	byID := make(map[uuid.UUID]*model.Event, len(existing))
	for _, e := range existing {
		byID[e.ID] = e
	}

	plan := timelinePlan{}
	seen := make(map[uuid.UUID]bool, len(submitted))
	for i, in := range submitted {
		e := &model.Event{
			Label:       in.Label,
			Description: in.Description,
			Index:       i,
		}
		if in.ID != nil {
			if old, ok := byID[*in.ID]; ok {
				e.ID = old.ID
				seen[old.ID] = true
			}
		}
		plan.Upserts = append(plan.Upserts, e)
	}

	for _, old := range existing {
		if !seen[old.ID] {
			plan.DeleteIDs = append(plan.DeleteIDs, old.ID)
		}
	}
	return plan
}
