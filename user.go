package main

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type User struct {
	ID      string    `json:"id"`
	Email   string    `json:"email"`
	Hash    []byte    `json:"hash"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
	Admin   bool      `json:"admin"`
}

func NewUser(email string, password string, admin bool) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &User{
		ID:      uuid.New().String(),
		Email:   email,
		Hash:    hash,
		Created: now,
		Updated: now,
		Admin:   admin,
	}, nil
}

func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword(u.Hash, []byte(password)) == nil
}

func (u *User) MarshalBinary() ([]byte, error) {
	return json.Marshal(u)
}

func (u *User) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, u)
}
