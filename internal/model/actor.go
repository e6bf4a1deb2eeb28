package model

import "github.com/google/uuid"

// Actor is the authenticated caller of an engine operation.
type Actor interface {
	ActorID() uuid.UUID
	ActorRole() Role
}

// Student is an authenticated student.
type Student struct {
	ID uuid.UUID
}

func (s Student) ActorID() uuid.UUID { return s.ID }
func (s Student) ActorRole() Role    { return RoleStudent }

// Tutor is the authenticated tutor.
type Tutor struct {
	ID uuid.UUID
}

func (t Tutor) ActorID() uuid.UUID { return t.ID }
func (t Tutor) ActorRole() Role    { return RoleTutor }

// ActorFor converts a profile into its role-specific actor.
func ActorFor(p *Profile) Actor {
	if p.IsTutor() {
		return Tutor{ID: p.ID}
	}
	return Student{ID: p.ID}
}
