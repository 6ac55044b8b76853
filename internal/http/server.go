package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"brightpath/server/internal/auth"
	"brightpath/server/internal/config"
	"brightpath/server/internal/crypto"
	"brightpath/server/internal/guard"
	"brightpath/server/internal/model"
	"brightpath/server/internal/payments"
	"brightpath/server/internal/repository"
)

const authCookieName = "bp_token"

// CheckoutCreator is the payment-provider surface the checkout endpoint
// needs; satisfied by *payments.Client.
type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, plan payments.Plan, origin string) (payments.Session, error)
}

// AttemptStore records and lists sponsorship checkout attempts.
type AttemptStore interface {
	CreateCheckoutAttempt(ctx context.Context, attempt model.CheckoutAttempt) error
	ListCheckoutAttempts(ctx context.Context, limit int) ([]model.CheckoutAttempt, error)
}

// ProfileSource resolves the profile (and therefore the authoritative role)
// for a user.
type ProfileSource interface {
	GetProfileByUserID(ctx context.Context, userID string) (model.Profile, error)
}

// ContentStore is the read-only surface behind the public content API.
type ContentStore interface {
	ListFAQs(ctx context.Context) ([]model.FAQ, error)
	ListReviews(ctx context.Context) ([]model.Review, error)
	ListCoreValues(ctx context.Context) ([]model.CoreValue, error)
	ListServices(ctx context.Context) ([]model.Service, error)
	ListCreditPlans(ctx context.Context) ([]model.CreditPlan, error)
	ListBlogPosts(ctx context.Context) ([]model.BlogPost, error)
	GetBlogPostBySlug(ctx context.Context, slug string) (model.BlogPost, error)
	ListCreditTransactions(ctx context.Context, profileID string, limit int) ([]model.CreditTransaction, error)
}

type Server struct {
	cfg      config.Config
	store    *repository.Store
	content  ContentStore
	profiles ProfileSource
	attempts AttemptStore
	checkout CheckoutCreator
	redis    *redis.Client
}

func NewServer(cfg config.Config, store *repository.Store, checkout CheckoutCreator, redisClient *redis.Client) *Server {
	s := &Server{
		cfg:      cfg,
		store:    store,
		checkout: checkout,
		redis:    redisClient,
	}
	if store != nil {
		s.content = store
		s.profiles = store
		s.attempts = store
	}
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/auth/signup", s.handleSignup)
	r.Post("/auth/login", s.handleLogin)
	r.Post("/auth/refresh", s.handleRefresh)
	r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
	r.With(s.authMiddleware).Get("/auth/me", s.handleGetMe)
	r.With(s.authMiddleware).Patch("/profile", s.handleUpdateProfile)

	r.Route("/api", func(r chi.Router) {
		r.Get("/faqs", s.handleListFAQs)
		r.With(s.authMiddleware, s.requireRoles(guard.RoleAdmin)).Post("/faqs", s.handleCreateFAQ)
		r.Get("/reviews", s.handleListReviews)
		r.Get("/core-values", s.handleListCoreValues)
		r.Get("/services", s.handleListServices)
		r.Get("/credit-plans", s.handleListCreditPlans)
		r.Get("/blog", s.handleListBlogPosts)
		r.Get("/blog/{slug}", s.handleGetBlogPost)
		r.With(s.authMiddleware).Get("/credits/transactions", s.handleListCreditTransactions)
		r.With(s.authMiddleware, s.requireRoles(guard.RoleAdmin, guard.RoleOpsAdmin)).
			Get("/admin/checkout-attempts", s.handleListCheckoutAttempts)

		// All methods route here so non-POST can answer 405 with Allow.
		r.HandleFunc("/create-checkout-session", s.handleCreateCheckoutSession)
	})

	return r
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	User         userSummary `json:"user"`
}

type userSummary struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role,omitempty"`
}

type profileSummary struct {
	ID               string  `json:"id"`
	UserID           string  `json:"user_id"`
	FullName         string  `json:"full_name"`
	Email            string  `json:"email"`
	Role             string  `json:"role"`
	AvailableCredits int     `json:"available_credits"`
	Bio              *string `json:"bio,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	AvatarURL        *string `json:"avatar_url,omitempty"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeError(w, http.StatusBadRequest, "missing_fields")
		return
	}
	role := guard.RoleStudent
	if req.Role != "" {
		parsed, ok := guard.ParseRole(strings.TrimSpace(strings.ToLower(req.Role)))
		if !ok {
			writeError(w, http.StatusBadRequest, "invalid_role")
			return
		}
		role = parsed
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "password_hash_failed")
		return
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		writeError(w, http.StatusConflict, "email_already_registered")
		return
	}

	// The account exists once the user row is in. A failed profile insert
	// leaves the role unresolved until repaired; it does not fail signup.
	profile := model.Profile{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		FullName:  req.FullName,
		Email:     user.Email,
		Role:      string(role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateProfile(r.Context(), profile); err != nil {
		log.Printf("signup: profile insert failed for user %s: %v", user.ID, err)
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), user, string(role), r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	setAuthCookie(w, accessToken, s.cfg.AccessTokenTTL)

	writeJSON(w, http.StatusCreated, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: userSummary{
			ID:       user.ID,
			Email:    user.Email,
			FullName: req.FullName,
			Role:     string(role),
		},
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing_credentials")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if err := crypto.CheckPassword(user.PasswordHash, req.Password); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid_credentials")
		return
	}

	summary := userSummary{ID: user.ID, Email: user.Email}
	if profile, err := s.store.GetProfileByUserID(r.Context(), user.ID); err == nil {
		summary.FullName = profile.FullName
		summary.Role = profile.Role
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), user, summary.Role, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	setAuthCookie(w, accessToken, s.cfg.AccessTokenTTL)

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         summary,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}
	if req.RefreshToken == "" {
		writeError(w, http.StatusBadRequest, "missing_refresh_token")
		return
	}

	tokenHash := crypto.HashToken(req.RefreshToken)
	session, err := s.store.GetRefreshSession(r.Context(), tokenHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusUnauthorized, "invalid_refresh_token")
			return
		}
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}
	if session.RevokedAt != nil || session.ExpiresAt.Before(time.Now().UTC()) {
		writeError(w, http.StatusUnauthorized, "refresh_token_expired")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), session.UserID)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "user_not_found")
		return
	}

	summary := userSummary{ID: user.ID, Email: user.Email}
	if profile, err := s.store.GetProfileByUserID(r.Context(), user.ID); err == nil {
		summary.FullName = profile.FullName
		summary.Role = profile.Role
	}

	if err := s.store.RevokeRefreshSession(r.Context(), session.ID, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "server_error")
		return
	}

	accessToken, refreshToken, err := s.issueTokens(r.Context(), user, summary.Role, r.UserAgent(), clientIP(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token_error")
		return
	}
	setAuthCookie(w, accessToken, s.cfg.AccessTokenTTL)

	writeJSON(w, http.StatusOK, authResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         summary,
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	if err := s.store.RevokeRefreshSessionsByUser(r.Context(), claims.UserID, time.Now().UTC()); err != nil {
		writeError(w, http.StatusInternalServerError, "logout_failed")
		return
	}
	clearAuthCookie(w)
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type meResponse struct {
	User    userSummary     `json:"user"`
	Profile *profileSummary `json:"profile"`
}

func (s *Server) handleGetMe(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	user, err := s.store.GetUserByID(r.Context(), claims.UserID)
	if err != nil {
		writeError(w, http.StatusNotFound, "user_not_found")
		return
	}

	resp := meResponse{User: userSummary{ID: user.ID, Email: user.Email}}
	if profile, err := s.store.GetProfileByUserID(r.Context(), user.ID); err == nil {
		resp.User.FullName = profile.FullName
		resp.User.Role = profile.Role
		summary := mapProfileSummary(profile)
		resp.Profile = &summary
	}
	writeJSON(w, http.StatusOK, resp)
}

type updateProfileRequest struct {
	FullName  *string `json:"full_name,omitempty"`
	Bio       *string `json:"bio,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())
	if claims == nil {
		writeError(w, http.StatusUnauthorized, "missing_token")
		return
	}

	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request")
		return
	}

	update := repository.ProfileUpdate{
		Bio:       req.Bio,
		Phone:     req.Phone,
		AvatarURL: req.AvatarURL,
	}
	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name != "" {
			update.FullName = &name
		}
	}

	profile, err := s.store.UpdateProfile(r.Context(), claims.UserID, update)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(w, http.StatusNotFound, "profile_not_found")
			return
		}
		writeError(w, http.StatusInternalServerError, "update_failed")
		return
	}
	writeJSON(w, http.StatusOK, mapProfileSummary(profile))
}

func mapProfileSummary(profile model.Profile) profileSummary {
	return profileSummary{
		ID:               profile.ID,
		UserID:           profile.UserID,
		FullName:         profile.FullName,
		Email:            profile.Email,
		Role:             profile.Role,
		AvailableCredits: profile.AvailableCredits,
		Bio:              profile.Bio,
		Phone:            profile.Phone,
		AvatarURL:        profile.AvatarURL,
	}
}

func (s *Server) issueTokens(ctx context.Context, user model.User, role, userAgent, ip string) (string, string, error) {
	accessToken, err := auth.NewAccessToken(s.cfg.JWTSecret, s.cfg.JWTIssuer, s.cfg.AccessTokenTTL, auth.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   role,
	})
	if err != nil {
		return "", "", err
	}

	refreshToken, err := crypto.NewRefreshToken()
	if err != nil {
		return "", "", err
	}

	now := time.Now().UTC()
	session := model.RefreshSession{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: crypto.HashToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.RefreshTokenTTL),
	}
	if userAgent != "" {
		session.UserAgent = &userAgent
	}
	if ip != "" {
		session.IPAddress = &ip
	}
	if err := s.store.CreateRefreshSession(ctx, session); err != nil {
		return "", "", err
	}

	return accessToken, refreshToken, nil
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			if cookie, err := r.Cookie(authCookieName); err == nil {
				token = cookie.Value
			}
		}
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing_token")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid_token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireRoles(allow ...guard.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := claimsFromContext(r.Context())
			decision := guard.Evaluate(guard.Input{
				RequireAuth:   true,
				Allow:         allow,
				Authenticated: claims != nil,
				Role:          s.resolveRole(r.Context(), claims),
				RequestedPath: r.URL.Path,
			})
			switch decision.State {
			case guard.Allowed:
				next.ServeHTTP(w, r)
			default:
				if decision.RedirectTo == guard.LoginPath {
					writeError(w, http.StatusUnauthorized, "authentication_required")
					return
				}
				writeError(w, http.StatusForbidden, "forbidden")
			}
		})
	}
}

// resolveRole returns nil while the role is unknown: no profile row, an
// unrecognized role value, or an unreachable database. The guard treats
// nil as "do not deny".
func (s *Server) resolveRole(ctx context.Context, claims *auth.Claims) *guard.Role {
	if claims == nil || s.profiles == nil {
		return nil
	}
	profile, err := s.profiles.GetProfileByUserID(ctx, claims.UserID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			log.Printf("role lookup failed for user %s: %v", claims.UserID, err)
		}
		return nil
	}
	role, ok := guard.ParseRole(profile.Role)
	if !ok {
		return nil
	}
	return &role
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func setAuthCookie(w http.ResponseWriter, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearAuthCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     authCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeRawJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	return ""
}
