package models

import "strconv"

// UserData is the identity embedded in tokens and stored with every session.
// Users themselves are owned by the authentication service.
type UserData struct {
	ID       int64  `bson:"id" json:"id"`
	Username string `bson:"username" json:"username"`
	Email    string `bson:"email" json:"email"`
}

// Subject returns the user id as a JWT subject.
func (u *UserData) Subject() string {
	return strconv.FormatInt(u.ID, 10)
}
