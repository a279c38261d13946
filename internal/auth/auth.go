// Package auth checks SLNP logins against bcrypt password hashes.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/stuffbucket/slnpd/internal/logging"
	"github.com/stuffbucket/slnpd/internal/server"
	"github.com/stuffbucket/slnpd/internal/slnp"
)

// HandlerLogin is the handler identifier for the login command.
const HandlerLogin = "auth.login"

// dummyHashes caches one hash per bcrypt cost. Unknown users are compared
// against the dummy at the cost of the configured hashes.
var dummyHashes sync.Map

func dummyHash(cost int) []byte {
	if h, ok := dummyHashes.Load(cost); ok {
		return h.([]byte)
	}
	h, err := bcrypt.GenerateFromPassword([]byte("slnpd"), cost)
	if err != nil {
		h, _ = bcrypt.GenerateFromPassword([]byte("slnpd"), bcrypt.DefaultCost)
	}
	actual, _ := dummyHashes.LoadOrStore(cost, h)
	return actual.([]byte)
}

// Credentials maps user names to bcrypt hashes.
type Credentials map[string]string

// Verify reports whether password matches the stored hash for user.
func (c Credentials) Verify(user, password string) bool {
	hash, ok := c[user]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash(c.cost()), []byte(password))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// cost returns the highest bcrypt cost among the stored hashes, or
// bcrypt.DefaultCost when there are none.
func (c Credentials) cost() int {
	cost := 0
	for _, h := range c {
		if n, err := bcrypt.Cost([]byte(h)); err == nil && n > cost {
			cost = n
		}
	}
	if cost == 0 {
		return bcrypt.DefaultCost
	}
	return cost
}

// Hash returns a bcrypt hash of password for the config file.
func Hash(password string) (string, error) {
	if password == "" {
		return "", errors.New("password is empty")
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// LoginHandler authenticates a session with SLNPLogin.
type LoginHandler struct {
	Credentials Credentials
}

// Handle implements server.Handler.
func (h LoginHandler) Handle(_ context.Context, req *server.Request) (slnp.Response, error) {
	v := req.ReadOne("BenutzerName", "Passwort")
	user, password := v[0], v[1]

	if !h.Credentials.Verify(user, password) {
		logging.L().Warn("login failed", "session", req.Session.ID, "user", user)
		return slnp.Response{}, slnp.NewError(slnp.ErrLoginFailed, "Login failed for %s", user)
	}
	req.Session.Login(user)
	logging.L().Info("login", "session", req.Session.ID, "user", user)
	return slnp.Success(slnp.Value("OKMsg", "Login successful")), nil
}

// Register binds the login handler to router.
func Register(router *server.Router, creds Credentials) {
	router.Handle(HandlerLogin, LoginHandler{Credentials: creds})
}
