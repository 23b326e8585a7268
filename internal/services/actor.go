package services

import "github.com/yukikurage/taskboard/internal/models"

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID      uint64
	Name    string
	IsAdmin bool
}

// SystemActor performs maintenance from the command line.
var SystemActor = Actor{Name: "system", IsAdmin: true}

// ActorFromUser builds the actor for a loaded user.
func ActorFromUser(user *models.User) Actor {
	return Actor{
		ID:      user.ID,
		Name:    user.DisplayName(),
		IsAdmin: user.IsAdmin(),
	}
}

// CanRead reports whether the actor may see the task.
func (a Actor) CanRead(task *models.Task) bool {
	return task.IsOwnedBy(a.ID) || task.IsPublic() || a.IsAdmin
}
