// internal/models/entity.go
package models

import "fmt"

// EntityType names the kind of row a verification or report points at.
type EntityType string

const (
	EntityAgent    EntityType = "agent"
	EntityProperty EntityType = "property"
)

// EntityRef is a closed sum of AgentRef and PropertyRef. Consumers
// type-switch over the two concrete types.
type EntityRef interface {
	EntityType() EntityType
	EntityID() string
	isEntityRef()
}

type AgentRef struct{ ID string }

type PropertyRef struct{ ID string }

func (r AgentRef) EntityType() EntityType    { return EntityAgent }
func (r AgentRef) EntityID() string          { return r.ID }
func (AgentRef) isEntityRef()                {}
func (r PropertyRef) EntityType() EntityType { return EntityProperty }
func (r PropertyRef) EntityID() string       { return r.ID }
func (PropertyRef) isEntityRef()             {}

// ParseEntityRef builds an EntityRef from its stored columns.
func ParseEntityRef(entityType, id string) (EntityRef, error) {
	switch EntityType(entityType) {
	case EntityAgent:
		return AgentRef{ID: id}, nil
	case EntityProperty:
		return PropertyRef{ID: id}, nil
	default:
		return nil, fmt.Errorf("unknown entity type %q", entityType)
	}
}

// EntityVerificationStatus is agents.verification_status / properties.verification_status.
type EntityVerificationStatus string

const (
	EntityPending  EntityVerificationStatus = "pending"
	EntityVerified EntityVerificationStatus = "verified"
	EntityRejected EntityVerificationStatus = "rejected"
)
