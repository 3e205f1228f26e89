package domain

import "time"

type ID string

type User struct {
	ID           ID
	Email        string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Profile is the public view of a user; it never carries the password hash.
type Profile struct {
	ID        ID
	Email     string
	Username  string
	CreatedAt time.Time
}

func (u User) Profile() Profile {
	return Profile{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		CreatedAt: u.CreatedAt,
	}
}
