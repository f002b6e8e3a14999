package api

import (
	"crypto/subtle"
	"net/http"
	"time"

	"github.com/km-arc/go-inject/framework/auth"
	"github.com/km-arc/go-inject/framework/container"
	gohttp "github.com/km-arc/go-inject/framework/http"
	"github.com/km-arc/go-inject/framework/keys"
	"github.com/km-arc/go-inject/framework/rest"
)

// Account holds a user profile and its password.
type Account struct {
	Profile  auth.UserProfile
	Password string
}

// Directory is a static user directory keyed by username.
type Directory map[string]Account

// Verify implements auth.BasicVerifyFunc.
func (d Directory) Verify(username, password string, done func(*auth.UserProfile, error)) {
	acc, ok := d[username]
	if !ok || subtle.ConstantTimeCompare([]byte(acc.Password), []byte(password)) != 1 {
		done(nil, nil)
		return
	}
	p := acc.Profile
	done(&p, nil)
}

// AccountController reports the current user and issues bearer tokens.
type AccountController struct {
	User       *auth.UserProfile
	Strategies auth.Strategies
}

var AccountControllerClass = container.MustClass("api.AccountController", func() *AccountController {
	return &AccountController{}
})

// TokenTTL is the lifetime of issued bearer tokens.
var TokenTTL = time.Hour

func init() {
	must(container.InjectProperty(AccountControllerClass, "User", keys.CurrentUser))
	must(container.InjectProperty(AccountControllerClass, "Strategies", keys.AuthStrategies))
}

func (c *AccountController) WhoAmI() *auth.UserProfile { return c.User }

func (c *AccountController) Token() (*rest.Result, error) {
	bearer, ok := c.Strategies[BearerStrategy].(*auth.BearerStrategy)
	if !ok {
		return nil, gohttp.NewError(http.StatusNotFound, "Token issuing is disabled.")
	}
	token, err := bearer.IssueToken(c.User, TokenTTL)
	if err != nil {
		return nil, err
	}
	return &rest.Result{Status: http.StatusCreated, Body: map[string]any{
		"token_type": "Bearer",
		"token":      token,
		"expires_in": int(TokenTTL.Seconds()),
	}}, nil
}
