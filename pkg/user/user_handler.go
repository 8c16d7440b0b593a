package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/budgetwatch/budgetwatch/internal/rest"
	"github.com/budgetwatch/budgetwatch/internal/validation"
	log "github.com/sirupsen/logrus"
)

// SessionCookieName is the cookie carrying the session token for browser clients.
const SessionCookieName = "session"

type UserDTO struct {
	Uid           string `json:"uid"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
}

type RegisterDTO struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SessionDTO struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserDTO   `json:"user"`
}

type Handler struct {
	userService Service
}

func NewHandler(userService Service) *Handler {
	return &Handler{
		userService: userService,
	}
}

// Register godoc
// @Summary Register a new user
// @Description Creates an unverified account and emails a verification link
// @Tags Auth
// @Accept json
// @Produce json
// @Param user body RegisterDTO true "Registration"
// @Success 201 {object} UserDTO
// @Failure 400 {object} rest.ValidationErrorResponse "Invalid request"
// @Failure 409 {object} rest.ErrorResponse "Email already registered"
// @Router /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	log.Debug("Registering user")

	var dto RegisterDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}

	created, err := h.userService.Register(r.Context(), RegisterRequest{
		Name:     dto.Name,
		Email:    dto.Email,
		Password: dto.Password,
	})
	if err != nil {
		var verr *validation.Error
		switch {
		case errors.As(err, &verr):
			rest.WriteJSON(w, http.StatusBadRequest, rest.ValidationErrorResponse{Error: "Invalid user data", Fields: verr.Fields})
		case errors.Is(err, ErrEmailTaken):
			rest.WriteJSON(w, http.StatusConflict, rest.ValidationErrorResponse{
				Error:  "Invalid user data",
				Fields: map[string][]string{"email": {"This email is already registered"}},
			})
		default:
			log.Errorf("failed to register user: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Could not create account, please try again", "")
		}
		return
	}

	rest.WriteJSON(w, http.StatusCreated, userToDTO(&created))
}

// VerifyEmail godoc
// @Summary Verify email address
// @Tags Auth
// @Param token query string true "Verification token"
// @Param email query string true "Email"
// @Success 204 "No Content"
// @Failure 400 {object} rest.ErrorResponse
// @Router /api/auth/verify-email [get]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	log.Debug("Verifying email")
	token := r.URL.Query().Get("token")
	email := r.URL.Query().Get("email")
	if token == "" || email == "" {
		rest.WriteError(w, http.StatusBadRequest, "Token and email are required", "")
		return
	}

	err := h.userService.VerifyEmail(r.Context(), token, email)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidToken):
			rest.WriteError(w, http.StatusBadRequest, "Invalid token", "")
		case errors.Is(err, ErrTokenEmailMismatch):
			rest.WriteError(w, http.StatusBadRequest, "The link does not match the given email", "")
		case errors.Is(err, ErrTokenExpired):
			rest.WriteError(w, http.StatusBadRequest, "Token expired", "Request a new verification link")
		default:
			log.Errorf("failed to verify email: %v", err)
			rest.WriteError(w, http.StatusInternalServerError, "Could not verify your email, please try again", "")
		}
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Login godoc
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param credentials body LoginDTO true "Credentials"
// @Success 200 {object} SessionDTO
// @Failure 401 {object} rest.ErrorResponse
// @Failure 403 {object} rest.ErrorResponse "Email not verified"
// @Router /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	log.Debug("Logging in")

	var dto LoginDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		rest.WriteError(w, http.StatusBadRequest, "Invalid request body format", "")
		return
	}
	if dto.Email == "" || dto.Password == "" {
		rest.WriteError(w, http.StatusBadRequest, "Email and password are required", "")
		return
	}

	session, err := h.userService.Login(r.Context(), dto.Email, dto.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidCredentials):
			rest.WriteError(w, http.StatusUnauthorized, "Invalid credentials", "")
		case errors.Is(err, ErrEmailNotVerified):
			rest.WriteError(w, http.StatusForbidden, "Email not verified", "Check your inbox for the verification link")
		default:
			log.Errorf("failed to log in: %v", err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	rest.WriteJSON(w, http.StatusOK, SessionDTO{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt,
		User:      userToDTO(&session.User),
	})
}

// Logout clears the session cookie. Tokens are stateless, so bearer clients simply drop theirs.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// CurrentUser godoc
// @Summary Get current user
// @Tags User
// @Produce json
// @Success 200 {object} UserDTO
// @Failure 401 {string} string "Unauthorized"
// @Router /api/user/current [get]
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	log.Trace("Getting current user")

	currentUser, err := h.userService.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if errors.Is(err, ErrNoUser) {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rest.WriteJSON(w, http.StatusOK, userToDTO(&currentUser))
}

func userToDTO(user *User) UserDTO {
	return UserDTO{
		Uid:           user.Uid,
		Name:          user.Name,
		Email:         user.Email,
		EmailVerified: user.IsEmailVerified(),
	}
}
