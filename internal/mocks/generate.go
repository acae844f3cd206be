// Package mocks provides gomock doubles for the console's ports.
//
// The mocks are generated with go.uber.org/mock. To regenerate after an
// interface change, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	store := mocks.NewMockSessionStore(ctrl)
//	store.EXPECT().Get(gomock.Any(), "sid").Return(domainauth.Session{}, errors.New("down"))
//
// Hand-written stateful doubles live in internal/mocks/auth.
package mocks

// SessionStore: Save, Get, Delete.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/brokerdesk/admin-console/internal/ports SessionStore

// Authenticator: Login.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=authenticator_mock.go github.com/brokerdesk/admin-console/internal/ports Authenticator
