package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// NewDotEnvModule loads .env.<APP_ENV> and then .env into the process environment.
// A variable already set is never overwritten, so the real environment wins over
// .env.<APP_ENV>, which wins over .env. Loading happens when the module is built
// so every provider sees the variables.
func NewDotEnvModule() fx.Option {
	loaded, failed := loadDotEnv(defaultDotEnvPaths(os.Getenv(envAppEnv)))

	return fx.Module("dotenv",
		fx.Invoke(func(log *zap.Logger) {
			if len(loaded) > 0 {
				log.Info("loaded env files", zap.Strings("paths", loaded))
			}
			for path, err := range failed {
				log.Warn("failed to load env file", zap.String("path", path), zap.Error(err))
			}
		}),
	)
}

func defaultDotEnvPaths(env string) []string {
	if env == "" {
		return []string{".env"}
	}
	return []string{".env." + env, ".env"}
}

// loadDotEnv skips missing files; any other failure is reported per path.
func loadDotEnv(paths []string) (loaded []string, failed map[string]error) {
	failed = map[string]error{}
	for _, path := range paths {
		err := godotenv.Load(path)
		switch {
		case err == nil:
			loaded = append(loaded, path)
		case errors.Is(err, fs.ErrNotExist):
		default:
			failed[path] = err
		}
	}
	return loaded, failed
}
