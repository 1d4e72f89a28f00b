package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// OpKind is the mutation recorded in the pending queue.
type OpKind string

const (
	OpAdd    OpKind = "add"
	OpDelete OpKind = "delete"
)

// OpStatus distinguishes replayable operations from dead-lettered ones.
type OpStatus string

const (
	OpReady  OpStatus = "ready"
	OpFailed OpStatus = "failed"
)

// PendingOperation is a mutation made offline and not yet replayed.
type PendingOperation struct {
	ID         string
	Kind       Kind
	Op         OpKind
	EntityID   string
	Payload    json.RawMessage
	CreatedAt  time.Time
	RetryCount int
	LastError  string
	Status     OpStatus
}

// PendingID builds the deterministic queue key, so re-enqueueing the same
// mutation overwrites instead of duplicating.
func PendingID(kind Kind, op OpKind, entityID string) string {
	return fmt.Sprintf("%s:%s:%s", kind, op, entityID)
}

// NewAddOperation records an offline insert of entity.
func NewAddOperation[T Entity[T]](kind Kind, entity T, now time.Time) (PendingOperation, error) {
	payload, err := json.Marshal(entity)
	if err != nil {
		return PendingOperation{}, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return PendingOperation{
		ID:        PendingID(kind, OpAdd, entity.GetID()),
		Kind:      kind,
		Op:        OpAdd,
		EntityID:  entity.GetID(),
		Payload:   payload,
		CreatedAt: now,
		Status:    OpReady,
	}, nil
}

// NewDeleteOperation records an offline delete of id.
func NewDeleteOperation(kind Kind, id string, now time.Time) PendingOperation {
	return PendingOperation{
		ID:        PendingID(kind, OpDelete, id),
		Kind:      kind,
		Op:        OpDelete,
		EntityID:  id,
		Payload:   deletePayload(id),
		CreatedAt: now,
		Status:    OpReady,
	}
}

// Remapped returns a copy of op that refers to newID instead of its current
// entity id. The payload "id" field is rewritten too.
func (op PendingOperation) Remapped(newID string) (PendingOperation, error) {
	out := op
	out.EntityID = newID
	out.ID = PendingID(op.Kind, op.Op, newID)

	if op.Op == OpDelete || len(op.Payload) == 0 {
		out.Payload = deletePayload(newID)
		return out, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(op.Payload, &fields); err != nil {
		return op, fmt.Errorf("decode payload of %s: %w", op.ID, err)
	}
	fields["id"] = newID
	b, err := json.Marshal(fields)
	if err != nil {
		return op, err
	}
	out.Payload = b
	return out, nil
}

// DecodePayload unmarshals the payload of an add operation.
func DecodePayload[T any](op PendingOperation) (T, error) {
	var v T
	if err := json.Unmarshal(op.Payload, &v); err != nil {
		return v, fmt.Errorf("decode payload of %s: %w", op.ID, err)
	}
	return v, nil
}

func deletePayload(id string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"id": id})
	return b
}
