package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/apperr"
	"github.com/Windi-Fikriyansyah/estudiantes_freelance/internal/services/account"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

type GoogleOAuthHandler struct {
	Auth            *AuthHandler
	Accounts        *account.Service
	GoogleClientID  string
	GoogleSecret    string
	GoogleRedirect  string
	FrontendBaseURL string
	Log             *zap.Logger
}

func (h *GoogleOAuthHandler) oauthCfg() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     h.GoogleClientID,
		ClientSecret: h.GoogleSecret,
		RedirectURL:  h.GoogleRedirect,
		Endpoint:     google.Endpoint,
		Scopes:       []string{"openid", "email", "profile"},
	}
}

func randomState(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func (h *GoogleOAuthHandler) tempCookie(c *fiber.Ctx, name, value string, maxAge int) {
	c.Cookie(&fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HTTPOnly: true,
		Secure:   h.Auth.SecureCookie,
		SameSite: "Lax",
		MaxAge:   maxAge,
	})
}

// safeNext keeps redirects on the frontend.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	return next
}

func (h *GoogleOAuthHandler) GoogleStart(c *fiber.Ctx) error {
	if h.GoogleClientID == "" {
		return apperr.New(apperr.NotFound, "Inicio de sesión con Google no configurado")
	}
	st, err := randomState(32)
	if err != nil {
		return apperr.Internalf(err, "oauth state")
	}

	h.tempCookie(c, "oauth_state", st, 10*60)
	h.tempCookie(c, "oauth_next", safeNext(c.Query("next", "/")), 10*60)

	return c.Redirect(h.oauthCfg().AuthCodeURL(st, oauth2.AccessTypeOffline), http.StatusTemporaryRedirect)
}

type googleUserInfo struct {
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

func (h *GoogleOAuthHandler) GoogleCallback(c *fiber.Ctx) error {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		return apperr.New(apperr.Validation, "Faltan code/state")
	}
	if st := c.Cookies("oauth_state"); st == "" || st != state {
		return apperr.New(apperr.Validation, "State inválido")
	}
	next := safeNext(c.Cookies("oauth_next"))

	ctx := c.UserContext()
	tok, err := h.oauthCfg().Exchange(ctx, code)
	if err != nil {
		h.Log.Warn("google code exchange", zap.Error(err))
		return apperr.New(apperr.Unauthorized, "No se pudo validar el código de Google")
	}

	resp, err := h.oauthCfg().Client(ctx, tok).Get(googleUserInfoURL)
	if err != nil {
		return apperr.Internalf(err, "google userinfo")
	}
	defer resp.Body.Close()

	var gu googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&gu); err != nil {
		return apperr.Internalf(err, "decode google userinfo")
	}
	if !gu.VerifiedEmail {
		return apperr.New(apperr.Unauthorized, "El correo de Google no está verificado")
	}

	sess, err := h.Accounts.LoginWithGoogle(ctx, gu.Email, gu.Name, gu.Picture)
	if apperr.Is(err, apperr.Unauthorized) {
		return c.Redirect(h.FrontendBaseURL+"/login?err="+url.QueryEscape("Cuenta inactiva"), http.StatusTemporaryRedirect)
	}
	if err != nil {
		return err
	}

	h.Auth.setSessionCookie(c, sess.Token)
	h.tempCookie(c, "oauth_state", "", -1)
	h.tempCookie(c, "oauth_next", "", -1)

	return c.Redirect(h.FrontendBaseURL+next, http.StatusTemporaryRedirect)
}
