package auth

import (
	"context"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/stuffbucket/slnpd/internal/ill"
	"github.com/stuffbucket/slnpd/internal/schema"
	"github.com/stuffbucket/slnpd/internal/server"
)

func testCredentials(t *testing.T) Credentials {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte("geheim"), bcrypt.MinCost)
	if err != nil {
		t.Fatal(err)
	}
	return Credentials{"zfl": string(h)}
}

func TestVerify(t *testing.T) {
	creds := testCredentials(t)

	tests := []struct {
		name     string
		user     string
		password string
		want     bool
	}{
		{"correct password", "zfl", "geheim", true},
		{"wrong password", "zfl", "falsch", false},
		{"unknown user", "nobody", "geheim", false},
		{"empty password", "zfl", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := creds.Verify(tt.user, tt.password); got != tt.want {
				t.Errorf("Verify(%q, %q) = %v, want %v", tt.user, tt.password, got, tt.want)
			}
		})
	}
}

func TestUnknownUserCost(t *testing.T) {
	def, err := Hash("geheim")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}

	tests := []struct {
		name  string
		creds Credentials
		want  int
	}{
		{"min cost hashes", testCredentials(t), bcrypt.MinCost},
		{"default cost hashes", Credentials{"zfl": def}, bcrypt.DefaultCost},
		{"no users", Credentials{}, bcrypt.DefaultCost},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := bcrypt.Cost(dummyHash(tt.creds.cost()))
			if err != nil {
				t.Fatalf("bcrypt.Cost() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("unknown-user hash cost = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestHash(t *testing.T) {
	h, err := Hash("geheim")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if !strings.HasPrefix(h, "$2") {
		t.Errorf("Hash() = %q, want bcrypt hash", h)
	}
	if !(Credentials{"u": h}).Verify("u", "geheim") {
		t.Error("Verify() rejected the hashed password")
	}
	if _, err := Hash(""); err == nil {
		t.Error("Hash(\"\") error = nil, want error")
	}
}

func TestLoginGate(t *testing.T) {
	reg, err := schema.Builtin()
	if err != nil {
		t.Fatalf("Builtin() error = %v", err)
	}
	router := server.NewRouter()
	ill.Register(router, ill.NewMemoryBackend())
	Register(router, testCredentials(t))
	d, err := router.Bind(reg)
	if err != nil {
		t.Fatalf("Bind() error = %v", err)
	}
	e := server.NewEngine(server.EngineConfig{Dispatcher: d, RequireLogin: true})
	sess := server.NewSession(nil)
	ctx := context.Background()

	alive := "SLNPAlive\nSLNPEndCommand\n"
	if got := e.Process(ctx, sess, alive); got != "510 SLNPEvalError: Not logged in\n" {
		t.Errorf("before login = %q, want not logged in", got)
	}

	got := e.Process(ctx, sess, "SLNPLogin\nBenutzerName:zfl\nPasswort:falsch\nSLNPEndCommand\n")
	if want := "520 Login failed for zfl\n"; got != want {
		t.Errorf("bad login = %q, want %q", got, want)
	}
	if sess.LoggedIn() {
		t.Fatal("LoggedIn() = true after failed login")
	}

	got = e.Process(ctx, sess, "SLNPLogin\nBenutzerName:zfl\nPasswort:geheim\nSLNPEndCommand\n")
	if want := "600 SLNPLogin\n601 OKMsg:Login successful\n250 SLNPEndOfData\n"; got != want {
		t.Errorf("login = %q, want %q", got, want)
	}
	if !sess.LoggedIn() || sess.User() != "zfl" {
		t.Errorf("LoggedIn() = %v, User() = %q; want true, zfl", sess.LoggedIn(), sess.User())
	}

	if got := e.Process(ctx, sess, alive); !strings.HasPrefix(got, "600 SLNPAlive\n") {
		t.Errorf("after login = %q, want success", got)
	}
}
