package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/CodedInternet/vehicledash/comms"
	"github.com/asdine/storm/v3"
	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/render"
	"golang.org/x/crypto/bcrypt"
	"net/http"
	"strings"
	"time"
)

var (
	JWT_LIFESPAN time.Duration = time.Hour
)

type contextKey string

// jwtKey holds the validated *jwt.Token in a request context.
const jwtKey contextKey = "jwt"

// User is someone allowed to log in to the dashboard. Anyone logged in may
// watch; steering needs Admin or Driver.
type User struct {
	ID       int    `storm:"increment"` // pk
	Email    string `storm:"unique"`
	Name     string
	Password string
	Admin    bool
	Driver   bool
}

// Sets the User.Password to the hashed value for the provided plain text
func (u *User) SetPassword(pass []byte) {
	hash, _ := bcrypt.GenerateFromPassword(pass, bcrypt.DefaultCost)
	u.Password = string(hash)
}

// VerifyPassword returns bcrypt's error untouched.
func (u *User) VerifyPassword(pass []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), pass)
}

func (u *User) CanSteer() bool {
	return u.Admin || u.Driver
}

// SteeringDeniedError is returned when a view without steering rights sends
// a vehicle command.
type SteeringDeniedError struct {
	Subject string
}

func (err SteeringDeniedError) Error() string {
	if err.Subject == "" {
		return "steering requires a logged in driver"
	}
	return fmt.Sprintf("%s may not steer the vehicle", err.Subject)
}

// vehicleCommands change the vehicle rather than the view.
var vehicleCommands = map[string]bool{
	"setpoint": true,
}

// authorizeCommand checks cmd against the token carried by ctx. The user is
// looked up on every command so a revoked driver stops at once.
func authorizeCommand(ctx context.Context, cmd comms.Cmd) error {
	if !vehicleCommands[cmd.Cmd] {
		return nil
	}
	subject := tokenSubject(ctx)
	if subject == "" {
		return SteeringDeniedError{}
	}

	var user User
	if err := ENV.DB.One("Email", subject, &user); err != nil {
		if err == storm.ErrNotFound {
			return SteeringDeniedError{Subject: subject}
		}
		return err
	}
	if !user.CanSteer() {
		return SteeringDeniedError{Subject: subject}
	}
	return nil
}

// tokenSubject is the subject of the validated token in ctx, if any.
func tokenSubject(ctx context.Context) string {
	token, ok := ctx.Value(jwtKey).(*jwt.Token)
	if !ok {
		return ""
	}
	claims, ok := token.Claims.(*jwt.StandardClaims)
	if !ok {
		return ""
	}
	return claims.Subject
}

type LoginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (l *LoginPayload) Bind(r *http.Request) error {
	if l.Email == "" {
		return errors.New("email is required")
	}
	return nil
}

type JWTPayload struct {
	SignedToken string `json:"token"`
	Driver      bool   `json:"driver"`
}

// newJWT signs a token for sub, issued by this vehicle.
func newJWT(sub string) (ts string, err error) {
	now := time.Now().UTC()
	claims := jwt.StandardClaims{
		Issuer:    ENV.JWT_ISSUER,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(JWT_LIFESPAN).Unix(),
		Subject:   sub,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte(ENV.JWT_SECRET))
}

func parseJWT(ts string) (*jwt.Token, error) {
	token, err := jwt.ParseWithClaims(ts, &jwt.StandardClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(ENV.JWT_SECRET), nil
	})
	if err != nil {
		if jwterr, ok := err.(*jwt.ValidationError); ok && jwterr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, errors.New("Token has expired")
		}
		return nil, errors.New("Invalid token")
	}
	if !token.Valid {
		return nil, errors.New("Invalid token")
	}
	return token, nil
}

// requestToken finds a token in the query (browsers cannot set headers on
// a WebSocket), the Authorization header or the jwt cookie.
func requestToken(r *http.Request) string {
	if ts := r.URL.Query().Get("jwt"); ts != "" {
		return ts
	}
	bearer := r.Header.Get("Authorization")
	if len(bearer) > 7 && strings.ToUpper(bearer[0:6]) == "BEARER" {
		return bearer[7:]
	}
	if cookie, err := r.Cookie("jwt"); err == nil {
		return cookie.Value
	}
	return ""
}

// Login checks a user's password and returns a fresh token.
func Login(w http.ResponseWriter, r *http.Request) {
	data := &LoginPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	var user User
	if err := ENV.DB.One("Email", data.Email, &user); err != nil {
		if err == storm.ErrNotFound {
			render.Render(w, r, ErrNotFound)
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	if err := user.VerifyPassword([]byte(data.Password)); err != nil {
		if err == bcrypt.ErrMismatchedHashAndPassword {
			render.Render(w, r, ErrPermissionDenied(errors.New("Invalid password")))
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	ts, err := newJWT(user.Email)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, JWTPayload{SignedToken: ts, Driver: user.CanSteer()})
}

// JWTRefresh swaps a valid token for one with a new expiry.
func JWTRefresh(w http.ResponseWriter, r *http.Request) {
	subject := tokenSubject(r.Context())
	if subject == "" {
		render.Render(w, r, ErrUnauthorized(JWTEmpty))
		return
	}

	ts, err := newJWT(subject)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, JWTPayload{SignedToken: ts})
}

var (
	JWTEmpty = errors.New("Bearer token not provided")
)

// ValidateJWT rejects requests without a valid token.
func ValidateJWT(next http.Handler) http.Handler {
	return jwtMiddleware(next, true)
}

// IdentifyJWT attaches a token when one is sent but lets anonymous viewers
// through. A token that is sent must still be valid.
func IdentifyJWT(next http.Handler) http.Handler {
	return jwtMiddleware(next, false)
}

func jwtMiddleware(next http.Handler, required bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts := requestToken(r)
		if ts == "" {
			if required {
				render.Render(w, r, ErrUnauthorized(JWTEmpty))
				return
			}
			next.ServeHTTP(w, r)
			return
		}

		token, err := parseJWT(ts)
		if err != nil {
			render.Render(w, r, ErrUnauthorized(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), jwtKey, token)))
	})
}
