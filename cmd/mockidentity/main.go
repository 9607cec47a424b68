package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"

	"dealeraccess/internal/auth"
	"dealeraccess/internal/domain"
	"dealeraccess/internal/platform/config"
	"dealeraccess/internal/platform/server"
)

const sessionTTL = 8 * time.Hour

type seedUser struct {
	password    string
	role        string
	territories []string
	team        []string
	managerID   string
}

// Demo accounts line up with the mock dealer API's seeded records.
var seedUsers = map[string]seedUser{
	"exec-001":    {password: "demo", role: domain.RoleExecutive},
	"mgr-sales-1": {password: "demo", role: domain.RoleSalesManager, territories: []string{"north", "east"}, team: []string{"rep-001", "rep-002"}, managerID: "exec-001"},
	"mgr-svc-1":   {password: "demo", role: domain.RoleServiceManager, territories: []string{"north"}, team: []string{"tech-001", "tech-002"}, managerID: "exec-001"},
	"fin-001":     {password: "demo", role: domain.RoleFinanceManager, managerID: "exec-001"},
	"rep-001":     {password: "demo", role: domain.RoleSalesRep, territories: []string{"north"}, managerID: "mgr-sales-1"},
	"tech-001":    {password: "demo", role: domain.RoleServiceTechnician, territories: []string{"north"}, managerID: "mgr-svc-1"},
	"admin":       {password: "admin", role: domain.RoleAdmin},
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required,max=72"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
}

func main() {
	addr := envOr("IDENTITY_ADDR", ":8081")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}

	hashes, err := hashSeedPasswords()
	if err != nil {
		slog.Error("hashing seed passwords", "error", err)
		os.Exit(1)
	}
	validate := validator.New()

	slog.Info("mock identity service starting", "addr", addr, "users", len(seedUsers))

	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
			return
		}
		if err := validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "username and password are required")
			return
		}

		seed, ok := seedUsers[req.Username]
		if !ok || auth.CheckPassword(hashes[req.Username], req.Password) != nil {
			slog.Info("login rejected", "username", req.Username)
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
			return
		}

		user, err := domain.NewUserContext(req.Username, seed.role, seed.territories, seed.team, seed.managerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "seed user has an unknown role")
			return
		}
		signed, err := auth.IssueToken(cfg.JWTSecret, user, sessionTTL)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", "failed to sign token")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     "session",
			Value:    signed,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
			MaxAge:   int(sessionTTL.Seconds()),
		})
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(loginResponse{
			AccessToken: signed,
			ExpiresIn:   int(sessionTTL.Seconds()),
			TokenType:   "Bearer",
			Role:        seed.role,
		})
	})

	mux.HandleFunc("GET /auth/roles", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string][]string{"roles": domain.RoleIDs()})
	})

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "mock-identity"})
	})

	srv := server.New("mock-identity", addr, mux, server.WithLogger(logger))
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}
}

// hashSeedPasswords bcrypt-hashes every seed password at startup.
func hashSeedPasswords() (map[string]string, error) {
	hashes := make(map[string]string, len(seedUsers))
	for name, u := range seedUsers {
		h, err := auth.HashPassword(u.password)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", name, err)
		}
		hashes[name] = h
	}
	return hashes, nil
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.ErrorResponse{Error: code, Message: msg})
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
