// Package auth provides authentication and tiered authorization.
//
// Accounts carry one of three ordered roles (user < admin < head). Sessions
// are cookie-based and stored in SQLite via scs; invite tokens are signed,
// time-boxed JWTs that let a freshly provisioned account claim itself and set
// a password.
//
// # Configuration
//
//	AUTH_SESSION_SECRET=<hex-32-bytes>  # Auto-generated if empty
//	AUTH_SESSION_LIFETIME=24h           # Session duration
//	AUTH_INVITE_TTL=24h                 # Invite token validity
//	AUTH_BCRYPT_COST=12                 # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true            # HTTPS-only cookies
//
// # Usage
//
//	authService := auth.NewService(db.DB, cfg.Auth)
//	middleware := auth.NewMiddleware(authService, sessionManager)
//	admin.Use(middleware.RequireTier(entities.UserRoleAdmin))
package auth
