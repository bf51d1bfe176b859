package middleware

import (
	"net/http"

	"github.com/edutour/sales-crm/internal/config"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

func isDevelopment(environment string) bool {
	return environment == "" || environment == "development" || environment == "local"
}

// originPolicy decides which origins are accepted. An explicit list wins;
// "*" accepts any origin; with nothing configured development accepts any
// origin and every other environment accepts none.
func originPolicy(cfg *config.CORSConfig, environment string, logger *zap.Logger) ([]string, func(*http.Request, string) bool) {
	anyOrigin := func(_ *http.Request, origin string) bool { return origin != "" }

	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			if !isDevelopment(environment) {
				logger.Warn("CORS configured with wildcard origin outside development",
					zap.String("environment", environment))
			}
			return nil, anyOrigin
		}
	}
	if len(cfg.AllowedOrigins) > 0 {
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", cfg.AllowedOrigins))
		return cfg.AllowedOrigins, nil
	}
	if isDevelopment(environment) {
		logger.Info("CORS allows all origins in development")
		return nil, anyOrigin
	}
	logger.Warn("CORS has no allowed origins; cross-origin requests are denied",
		zap.String("environment", environment))
	// an empty AllowedOrigins list would mean "*" to go-chi/cors
	return nil, func(*http.Request, string) bool { return false }
}

// CORS returns the cross-origin middleware for the configured environment
func CORS(cfg *config.CORSConfig, environment string, logger *zap.Logger) func(http.Handler) http.Handler {
	origins, originFunc := originPolicy(cfg, environment, logger)
	return cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowOriginFunc:  originFunc,
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   append([]string{RequestIDHeader}, cfg.ExposedHeaders...),
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	})
}
