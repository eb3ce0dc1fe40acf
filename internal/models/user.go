package models

import "strconv"

// User is a local account. Its decimal id is the owner id of its todos.
type User struct {
	ID             int64
	Username       string
	HashedPassword string
}

// OwnerID returns the identifier todos are scoped by.
func (u User) OwnerID() string {
	return strconv.FormatInt(u.ID, 10)
}

// Identity is what the identity provider hands to the session layer.
type Identity struct {
	ID       string
	Username string
}
