package models

import "time"

type User struct {
	UserID    string    `json:"userid" bson:"userid"`
	Username  string    `json:"username" bson:"username"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Password  string    `json:"-" bson:"password"`
	Role      []string  `json:"role" bson:"role"`
	LastLogin time.Time `json:"last_login,omitempty" bson:"last_login,omitempty"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}
