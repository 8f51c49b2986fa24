package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/hotstinder/hotstinder/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()
		_ = os.Setenv("HOTSTINDER_JWT_SECRET", testSecret)

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.JWTSecret, convey.ShouldEqual, testSecret)
				convey.So(cfg.MaxLeaderboardLimit, convey.ShouldEqual, 100)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"http://localhost:3000"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("HOTSTINDER_ADDR", ":8080")
			_ = os.Setenv("HOTSTINDER_QUEUE_SIZE", "500")
			_ = os.Setenv("HOTSTINDER_RATING_DELTA", "30")
			_ = os.Setenv("HOTSTINDER_CORS_ORIGINS", "https://a.example, https://b.example")
			_ = os.Setenv("HOTSTINDER_ADMIN_BATTLETAGS", "Admin#1234")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.QueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.RatingDelta, convey.ShouldEqual, 30)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
				convey.So(cfg.AdminBattleTags, convey.ShouldResemble, []string{"Admin#1234"})
			})
		})

		convey.Convey("When loading config with a YAML file and env overrides", func() {
			tmpFile := createTempConfigFile(`
addr: ":9090"
worker_count: 3
max_synthetic_matches: 20
cors_origins:
  - https://hotstinder.example
`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("HOTSTINDER_CONFIG", tmpFile)
			_ = os.Setenv("HOTSTINDER_WORKER_COUNT", "6")

			cfg, err := config.Load(ctx)

			convey.Convey("Then env should win over the file and the file over defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 6)
				convey.So(cfg.MaxSyntheticMatches, convey.ShouldEqual, 20)
				convey.So(cfg.MaxSyntheticUsers, convey.ShouldEqual, 100)
				convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://hotstinder.example"})
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()
			_ = os.Setenv("HOTSTINDER_CONFIG", tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("HOTSTINDER_CONFIG", "/non/existent/file.yaml")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("HOTSTINDER_ADDR", "")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("HOTSTINDER_QUEUE_SIZE", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When no jwt secret is configured", func() {
			_ = os.Unsetenv("HOTSTINDER_JWT_SECRET")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should refuse to start", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "jwt_secret must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the jwt secret is too short", func() {
			_ = os.Setenv("HOTSTINDER_JWT_SECRET", "change-me")

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "jwt_secret must be at least")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the generation caps are zeroed", func() {
			_ = os.Setenv("HOTSTINDER_MAX_SYNTHETIC_MATCHES", "0")

			_, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})
	})
}

const testSecret = "loader-test-secret-0123456789"

func clearConfigEnvVars() {
	for _, envVar := range []string{
		"HOTSTINDER_CONFIG",
		"HOTSTINDER_ADDR",
		"HOTSTINDER_QUEUE_SIZE",
		"HOTSTINDER_WORKER_COUNT",
		"HOTSTINDER_RATING_DELTA",
		"HOTSTINDER_CORS_ORIGINS",
		"HOTSTINDER_ADMIN_BATTLETAGS",
		"HOTSTINDER_MAX_SYNTHETIC_MATCHES",
		"HOTSTINDER_JWT_SECRET",
	} {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "hotstinder-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
