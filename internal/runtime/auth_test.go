package runtime

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var testSecret = []byte("test-secret")

func runAuth(t *testing.T, token string) (int, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var subject string
	handler := EchoAuthMiddleware(testSecret)(func(c echo.Context) error {
		subject, _ = c.Get("user_id").(string)
		return c.NoContent(http.StatusOK)
	})
	if err := handler(c); err != nil {
		if he, ok := err.(*echo.HTTPError); ok {
			return he.Code, subject
		}
		t.Fatalf("unexpected error: %v", err)
	}
	return rec.Code, subject
}

func TestAuthMiddlewareAcceptsSignedToken(t *testing.T) {
	tok, err := SignJWT("user-42", testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	code, subject := runAuth(t, tok)
	if code != http.StatusOK {
		t.Fatalf("status %d", code)
	}
	if subject != "user-42" {
		t.Fatalf("subject %q", subject)
	}
}

func TestAuthMiddlewareRejectsMissingToken(t *testing.T) {
	if code, _ := runAuth(t, ""); code != http.StatusUnauthorized {
		t.Fatalf("status %d", code)
	}
}

func TestAuthMiddlewareRejectsUnexpectedSigningMethod(t *testing.T) {
	// Valid HMAC signature over the right secret, but not the method the
	// middleware pins.
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, jwt.MapClaims{
		"sub": "user-42",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(testSecret)
	if err != nil {
		t.Fatal(err)
	}
	if code, _ := runAuth(t, signed); code != http.StatusUnauthorized {
		t.Fatalf("status %d", code)
	}
}

func TestAuthMiddlewareRejectsExpiredToken(t *testing.T) {
	tok, err := SignJWT("user-42", testSecret, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if code, _ := runAuth(t, tok); code != http.StatusUnauthorized {
		t.Fatalf("status %d", code)
	}
}
