package model

import "time"

// User role values as stored in users.role.  Administrators manage
// events but may not hold bookings themselves.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents an application user record as stored in the `users`
// table.  The json tags are omitted because these structs are used
// internally by the repository layer; handlers define separate response
// types with appropriate JSON tags.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name, copied onto bookings when no explicit
//                 contact name is supplied.
//  Email        – unique email address.
//  PasswordHash – bcrypt hashed password.
//  Role         – "user" or "admin".
//  CreatedAt    – timestamp of creation.
type User struct {
	ID           uint64    // users.id
	Name         string    // users.name
	Email        string    // users.email
	PasswordHash string    // users.password
	Role         string    // users.role
	CreatedAt    time.Time // users.created_at
}
