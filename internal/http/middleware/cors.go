package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
	"github.com/valisyam/shub/internal/config"
	"go.uber.org/zap"
)

func isDevelopment(environment string) bool {
	return environment == "" || environment == "development" || environment == "local"
}

func allowAnyOrigin(r *http.Request, origin string) bool {
	return origin != ""
}

// CORS returns a CORS middleware configured from the application config.
// The portal frontend (App.ClientBaseURL) is always allowed.
func CORS(cfg *config.CORSConfig, app *config.AppConfig, logger *zap.Logger) func(http.Handler) http.Handler {
	options := cors.Options{
		AllowedMethods:   cfg.AllowedMethods,
		AllowedHeaders:   cfg.AllowedHeaders,
		ExposedHeaders:   cfg.ExposedHeaders,
		AllowCredentials: cfg.AllowCredentials,
		MaxAge:           cfg.MaxAge,
	}

	origins := make([]string, 0, len(cfg.AllowedOrigins)+1)
	wildcard := false
	for _, origin := range cfg.AllowedOrigins {
		if origin == "*" {
			wildcard = true
			continue
		}
		origins = append(origins, origin)
	}

	switch {
	case wildcard:
		if !isDevelopment(app.Environment) {
			logger.Warn("CORS configured with wildcard origin in non-development environment",
				zap.String("environment", app.Environment))
		}
		options.AllowOriginFunc = allowAnyOrigin
	case len(origins) == 0 && isDevelopment(app.Environment):
		options.AllowOriginFunc = allowAnyOrigin
		logger.Info("CORS configured to allow all origins in development mode")
	default:
		if app.ClientBaseURL != "" {
			origins = append(origins, app.ClientBaseURL)
		}
		if len(origins) == 0 {
			// Empty AllowedOrigins means "*" in go-chi/cors
			options.AllowOriginFunc = func(r *http.Request, origin string) bool { return false }
			logger.Warn("CORS configured with no allowed origins - all cross-origin requests will be denied",
				zap.String("environment", app.Environment))
			break
		}
		options.AllowedOrigins = origins
		logger.Info("CORS configured with explicit origins", zap.Strings("origins", origins))
	}

	return cors.Handler(options)
}
