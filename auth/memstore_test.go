package auth

import (
	"context"
	"strings"
	"sync"

	"agriconnect/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	mu       sync.Mutex
	accounts map[primitive.ObjectID]*models.Account
}

func newMemStore() *memStore {
	return &memStore{accounts: map[primitive.ObjectID]*models.Account{}}
}

func (m *memStore) Insert(_ context.Context, a *models.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.accounts {
		if existing.Email == a.Email {
			return ErrDuplicateEmail
		}
		if existing.PhoneNumber == a.PhoneNumber {
			return ErrDuplicatePhone
		}
	}
	a.ID = primitive.NewObjectID()
	cp := *a
	m.accounts[a.ID] = &cp
	return nil
}

func (m *memStore) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.Email == strings.ToLower(email) {
			cp := *a
			return &cp, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memStore) Update(_ context.Context, id primitive.ObjectID, set bson.M) (*models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[id]
	if !ok {
		return nil, ErrAccountNotFound
	}
	for k, v := range set {
		switch k {
		case "fullName":
			a.FullName = v.(string)
		case "phoneNumber":
			a.PhoneNumber = v.(string)
		case "password":
			a.Password = v.(string)
		}
	}
	cp := *a
	return &cp, nil
}
