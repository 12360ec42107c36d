package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/dgrijalva/jwt-go"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

const JWT_LIFESPAN = time.Hour

type operatorContextKey struct{}

var (
	JWTEmpty      = errors.New("Bearer token not provided")
	errNotAdmin   = errors.New("only admin operators may drive the bot")
	errNoOperator = errors.New("operator no longer exists")
)

//---
// Structs
//

// User is an operator of the bot. Everyone can watch, only admins can drive.
type User struct {
	ID       int    `storm:"increment"` // pk
	Email    string `storm:"unique"`
	Name     string
	Password string
	Admin    bool
}

// SetPassword stores the bcrypt hash of pass. bcrypt refuses passwords over 72 bytes.
func (u *User) SetPassword(pass []byte) error {
	hash, err := bcrypt.GenerateFromPassword(pass, bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hash)
	return nil
}

// Compares User.Password with the provided plain text.
// Returns values directly as provided by the bcrypt library for downstream processing.
func (u *User) VerifyPassword(pass []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), pass)
}

// CreateUser stores a new operator, named after their email
func CreateUser(db *storm.DB, email, password string, admin bool) (user *User, err error) {
	if email == "" || password == "" {
		return nil, errors.New("email and password are required")
	}

	user = &User{
		Email: email,
		Name:  email,
		Admin: admin,
	}
	if err = user.SetPassword([]byte(password)); err != nil {
		return nil, errors.Wrapf(err, "unable to hash password for %s", email)
	}

	if err = db.Save(user); err != nil {
		return nil, errors.Wrapf(err, "unable to save user %s", email)
	}
	return
}

func CreateSuperuser(db *storm.DB, email, password string) (*User, error) {
	return CreateUser(db, email, password, true)
}

// OperatorClaims identifies the operator behind a request and whether they may drive.
type OperatorClaims struct {
	jwt.StandardClaims
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
}

func (c OperatorClaims) Valid() error {
	if err := c.StandardClaims.Valid(); err != nil {
		return err
	}
	if !c.VerifyIssuer(ENV.JWT_ISSUER, true) {
		return &jwt.ValidationError{
			Inner:  errors.Errorf("token issued by %q", c.Issuer),
			Errors: jwt.ValidationErrorIssuer,
		}
	}
	return nil
}

// operatorFrom returns the claims ValidateJWT attached to the request, if any.
func operatorFrom(ctx context.Context) (claims *OperatorClaims, ok bool) {
	claims, ok = ctx.Value(operatorContextKey{}).(*OperatorClaims)
	return
}

//---
// Payloads
//---

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
	Admin       bool   `json:"admin"`
}

// newJWT signs a token for user, carrying their admin flag as of now
func newJWT(user *User) (payload JWTPayload, err error) {
	now := time.Now().UTC()
	claims := OperatorClaims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    ENV.JWT_ISSUER,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(JWT_LIFESPAN).Unix(),
			Subject:   user.Email,
		},
		Name:  user.Name,
		Admin: user.Admin,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	payload.SignedToken, err = token.SignedString([]byte(ENV.JWT_SECRET))
	payload.Admin = user.Admin
	return
}

//---
// Views
//---

// Login checks an operator's password and hands out a token
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

	switch err := user.VerifyPassword([]byte(data.Password)); err {
	case nil:
	case bcrypt.ErrMismatchedHashAndPassword:
		render.Render(w, r, ErrPermissionDenied(errors.New("Invalid password")))
		return
	default:
		render.Render(w, r, ErrRender(err))
		return
	}

	payload, err := newJWT(&user)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, payload)
}

// JWTRefresh reissues the token from the stored operator, so admin changes and removals take effect
func JWTRefresh(w http.ResponseWriter, r *http.Request) {
	claims, _ := operatorFrom(r.Context())

	var user User
	if err := ENV.DB.One("Email", claims.Subject, &user); err != nil {
		if err == storm.ErrNotFound {
			render.Render(w, r, ErrUnauthorized(errNoOperator))
			return
		}
		render.Render(w, r, ErrRender(err))
		return
	}

	payload, err := newJWT(&user)
	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, payload)
}

//---
// Authentication middleware
//---

// tokenFromRequest looks in the query, the Authorization header and the jwt cookie, in that order.
// Browsers can not set headers on a websocket upgrade, hence the query.
func tokenFromRequest(r *http.Request) string {
	if token := r.URL.Query().Get("jwt"); token != "" {
		return token
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

func parseOperator(tokenStr string) (*OperatorClaims, error) {
	claims := &OperatorClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims,
		func(*jwt.Token) (interface{}, error) { return []byte(ENV.JWT_SECRET), nil })
	if err == nil {
		return claims, nil
	}

	jwterr, ok := err.(*jwt.ValidationError)
	switch {
	case !ok || jwterr.Errors&(jwt.ValidationErrorMalformed|jwt.ValidationErrorUnverifiable|jwt.ValidationErrorSignatureInvalid) != 0:
	case jwterr.Errors&jwt.ValidationErrorExpired != 0:
		return nil, errors.New("Token has expired")
	case jwterr.Errors&jwt.ValidationErrorIssuer != 0:
		return nil, errors.New("Token belongs to another bot")
	}
	return nil, errors.New("Invalid token")
}

// ValidateJWT rejects requests without a valid operator token and attaches the claims to the context.
func ValidateJWT(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenStr := tokenFromRequest(r)
		if tokenStr == "" {
			render.Render(w, r, ErrUnauthorized(JWTEmpty))
			return
		}

		claims, err := parseOperator(tokenStr)
		if err != nil {
			render.Render(w, r, ErrUnauthorized(err))
			return
		}

		ctx := context.WithValue(r.Context(), operatorContextKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin only lets admin operators through. It must run after ValidateJWT.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := operatorFrom(r.Context())
		if !ok || !claims.Admin {
			render.Render(w, r, ErrPermissionDenied(errNotAdmin))
			return
		}
		next.ServeHTTP(w, r)
	})
}
