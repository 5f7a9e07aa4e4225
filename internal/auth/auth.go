// Copyright 2024 the cloudstore authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package auth issues and validates the bearer credentials used by the
// owner-scoped endpoints. The storage core only ever sees the opaque
// principal id.
package auth

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrEmailTaken reports a registration with an email that is already
	// in use.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials reports a login with an unknown email or a
	// wrong password. The two cases are deliberately not distinguished.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken reports a bearer token that is missing, malformed,
	// expired or refers to a principal that no longer exists.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Principal is an authenticated owner identity.
type Principal struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type user struct {
	Principal
	passwordHash []byte
}

// Service keeps the user registry and signs session tokens.
type Service struct {
	mtx     sync.RWMutex
	byEmail map[string]*user
	byID    map[string]*user
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewService creates an auth service signing HS256 tokens with the given
// secret. Tokens expire after ttl.
func NewService(secret []byte, ttl time.Duration) *Service {
	return &Service{
		byEmail: make(map[string]*user),
		byID:    make(map[string]*user),
		secret:  secret,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Register creates a new principal. The password is stored as a bcrypt hash.
func (s *Service) Register(name, email, password string) (Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return Principal{}, errors.New("name, email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Principal{}, err
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if _, taken := s.byEmail[email]; taken {
		return Principal{}, ErrEmailTaken
	}
	u := &user{
		Principal:    Principal{ID: uuid.NewString(), Name: name, Email: email},
		passwordHash: hash,
	}
	s.byEmail[email] = u
	s.byID[u.ID] = u
	return u.Principal, nil
}

// Login checks the credentials and returns the principal with a fresh token.
func (s *Service) Login(email, password string) (Principal, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	s.mtx.RLock()
	u, ok := s.byEmail[email]
	s.mtx.RUnlock()
	if !ok {
		return Principal{}, "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword(u.passwordHash, []byte(password)); err != nil {
		return Principal{}, "", ErrInvalidCredentials
	}
	token, err := s.Token(u.Principal)
	if err != nil {
		return Principal{}, "", err
	}
	return u.Principal, token, nil
}

// Token signs a session token for the principal.
func (s *Service) Token(p Principal) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":   p.ID,
		"email": p.Email,
		"iat":   now.Unix(),
		"exp":   now.Add(s.ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Authenticate validates a bearer token and resolves it to a live principal.
func (s *Service) Authenticate(tokenString string) (Principal, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Principal{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	s.mtx.RLock()
	u, ok := s.byID[sub]
	s.mtx.RUnlock()
	if !ok {
		return Principal{}, ErrInvalidToken
	}
	return u.Principal, nil
}
