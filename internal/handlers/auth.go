package handlers

import (
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"featherpress/internal/middleware"
	"featherpress/internal/models"
	"featherpress/internal/session"
	"featherpress/internal/site"
	"featherpress/internal/store"
)

// usernamePattern limits usernames to URL- and display-safe characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions *session.Store
	users    *store.UserStore
	site     *site.Service
	issuer   string
}

// NewAuth creates a new Auth handler group. issuer names the site in
// authenticator apps during TOTP enrollment.
func NewAuth(sessions *session.Store, users *store.UserStore, siteSvc *site.Service, issuer string) *Auth {
	return &Auth{sessions: sessions, users: users, site: siteSvc, issuer: issuer}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Code     string `json:"code"` // TOTP code, required only with 2FA enabled
}

// Login handles POST /auth/login.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := a.users.FindByUsername(req.Username)
	if err != nil {
		slog.Error("login lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	}
	if user == nil || !a.users.CheckPassword(user, req.Password) {
		writeError(w, http.StatusUnauthorized, "Invalid username or password.")
		return
	}

	if user.TOTPEnabled {
		if req.Code == "" {
			writeError(w, http.StatusUnauthorized, "Two-factor code required.")
			return
		}
		if user.TOTPSecret == nil || !totp.Validate(req.Code, *user.TOTPSecret) {
			writeError(w, http.StatusUnauthorized, "Invalid two-factor code.")
			return
		}
	}

	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	}); err != nil {
		slog.Error("session create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not start a session.")
		return
	}

	slog.Info("user logged in", "user", user.Username)
	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// Logout handles POST /auth/logout.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Error("session destroy failed", "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

type registerRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// Register handles POST /auth/register. Open only while the
// show_registration setting is on; new accounts are members.
func (a *Auth) Register(w http.ResponseWriter, r *http.Request) {
	if !a.site.Info(nil).Settings.ShowRegistration {
		writeError(w, http.StatusForbidden, "Registration is closed.")
		return
	}

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if msg := validateNewUser(req.Username, req.Email, req.Password); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if existing, err := a.users.FindByUsername(req.Username); err != nil {
		slog.Error("register lookup failed", "error", err)
		writeError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		return
	} else if existing != nil {
		writeError(w, http.StatusConflict, "That username is taken.")
		return
	}

	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		displayName = req.Username
	}

	user, err := a.users.Create(req.Username, req.Email, req.Password, displayName, models.RoleMember)
	if err != nil {
		slog.Error("register create failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not create the account.")
		return
	}

	if _, err := a.sessions.Create(r.Context(), w, &session.Data{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	}); err != nil {
		slog.Error("session create failed", "error", err)
	}

	slog.Info("user registered", "user", user.Username)
	writeJSON(w, http.StatusCreated, map[string]any{"user": user})
}

// TwoFASetup handles POST /auth/2fa/setup: generates a pending TOTP
// secret and returns it with a QR code for authenticator apps. The
// secret activates only after a successful verify.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      a.issuer,
		AccountName: sess.Username,
	})
	if err != nil {
		slog.Error("totp generate failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not generate a secret.")
		return
	}

	if err := a.users.SetTOTPSecret(sess.UserID, key.Secret()); err != nil {
		slog.Error("save totp secret failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not store the secret.")
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		slog.Error("qr code generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not render the QR code.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret":  key.Secret(),
		"qr_png":  base64.StdEncoding.EncodeToString(qrPNG),
		"otp_url": key.URL(),
	})
}

// TwoFAVerify handles POST /auth/2fa/verify: confirms the first code
// from the authenticator and switches two-factor auth on.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	user, err := a.users.FindByID(sess.UserID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Could not load your account.")
		return
	}
	if user.TOTPSecret == nil {
		writeError(w, http.StatusBadRequest, "Run setup before verifying.")
		return
	}
	if !totp.Validate(req.Code, *user.TOTPSecret) {
		writeError(w, http.StatusUnauthorized, "Invalid two-factor code.")
		return
	}

	if err := a.users.EnableTOTP(sess.UserID); err != nil {
		slog.Error("enable totp failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Could not enable two-factor auth.")
		return
	}

	slog.Info("two-factor auth enabled", "user", sess.Username)
	writeJSON(w, http.StatusOK, map[string]bool{"totp_enabled": true})
}

// validateNewUser checks account creation inputs.
func validateNewUser(username, email, password string) string {
	if !usernamePattern.MatchString(username) {
		return "Username must be 3-32 characters: letters, digits, - or _."
	}
	if email == "" || !strings.Contains(email, "@") {
		return "A valid email address is required."
	}
	if len(password) < 8 {
		return "Password must be at least 8 characters."
	}
	return ""
}
