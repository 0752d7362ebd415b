package internal_test

import (
	"os"
	"time"

	"github.com/frahmantamala/storeadmin/internal"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func setenv(key, value string) {
	prev, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
			return
		}
		_ = os.Unsetenv(key)
	})
}

func validConfig() *internal.Config {
	cfg := &internal.Config{
		Env: "test",
		Server: internal.ServerConfig{
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
		},
		Database: internal.DatabaseConfig{MaxOpenConns: 10, MaxIdleConns: 2},
		Security: internal.SecurityConfig{
			JWTSecret:        "access-secret",
			JWTRefreshSecret: "refresh-secret",
		},
	}
	cfg.ApplyDefaults()
	return cfg
}

var _ = Describe("Config", func() {
	Describe("ParseDuration", func() {
		It("accepts the day suffix", func() {
			d, err := internal.ParseDuration("30d")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(720 * time.Hour))
		})

		It("falls back to Go durations", func() {
			d, err := internal.ParseDuration("15m")
			Expect(err).NotTo(HaveOccurred())
			Expect(d).To(Equal(15 * time.Minute))
		})

		It("rejects garbage", func() {
			_, err := internal.ParseDuration("xd")
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ApplyDefaults", func() {
		It("fills token lifetimes and bcrypt cost", func() {
			cfg := validConfig()
			Expect(cfg.Security.AccessTokenDuration).To(Equal(internal.DefaultAccessTokenDuration))
			Expect(cfg.Security.RefreshTokenDuration).To(Equal(internal.DefaultRefreshTokenDuration))
			Expect(cfg.Security.BCryptCost).To(Equal(internal.DefaultBCryptCost))
			Expect(cfg.Server.Port).To(Equal(8080))
			Expect(cfg.Observability.Metrics.Path).To(Equal("/metrics"))
		})
	})

	Describe("Validate", func() {
		It("accepts a complete config", func() {
			Expect(validConfig().Validate()).To(Succeed())
		})

		It("rejects identical secrets", func() {
			cfg := validConfig()
			cfg.Security.JWTRefreshSecret = cfg.Security.JWTSecret
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("must differ")))
		})

		It("rejects a missing access secret", func() {
			cfg := validConfig()
			cfg.Security.JWTSecret = ""
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("jwt_secret is required")))
		})

		It("rejects an out-of-range bcrypt cost", func() {
			cfg := validConfig()
			cfg.Security.BCryptCost = 4
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("bcrypt_cost")))
		})

		It("rejects a refresh lifetime shorter than the access lifetime", func() {
			cfg := validConfig()
			cfg.Security.RefreshTokenDuration = time.Minute
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("refresh_token_duration")))
		})

		It("rejects more idle than open connections", func() {
			cfg := validConfig()
			cfg.Database.MaxIdleConns = 20
			Expect(cfg.Validate()).To(MatchError(ContainSubstring("max_idle_conns")))
		})
	})

	Describe("LoadConfigFromEnv", func() {
		It("reads the security settings", func() {
			setenv("JWT_SECRET", "a")
			setenv("JWT_REFRESH_SECRET", "b")
			setenv("JWT_EXPIRES_IN", "10m")
			setenv("JWT_REFRESH_EXPIRES_IN", "7d")
			setenv("BCRYPT_ROUNDS", "11")

			cfg, err := internal.LoadConfigFromEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Security.JWTSecret).To(Equal("a"))
			Expect(cfg.Security.JWTRefreshSecret).To(Equal("b"))
			Expect(cfg.Security.AccessTokenDuration).To(Equal(10 * time.Minute))
			Expect(cfg.Security.RefreshTokenDuration).To(Equal(7 * 24 * time.Hour))
			Expect(cfg.Security.BCryptCost).To(Equal(11))
		})

		It("reports malformed values instead of using defaults", func() {
			setenv("JWT_EXPIRES_IN", "abc")
			setenv("BCRYPT_ROUNDS", "many")

			cfg, err := internal.LoadConfigFromEnv()
			Expect(cfg).To(BeNil())
			Expect(err).To(MatchError(ContainSubstring("JWT_EXPIRES_IN")))
			Expect(err).To(MatchError(ContainSubstring("BCRYPT_ROUNDS")))
		})

		It("reads the proxy trust flag", func() {
			setenv("TRUST_PROXY_HEADERS", "true")

			cfg, err := internal.LoadConfigFromEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.TrustProxyHeaders).To(BeTrue())
		})

		It("does not trust proxy headers by default", func() {
			cfg, err := internal.LoadConfigFromEnv()
			Expect(err).NotTo(HaveOccurred())
			Expect(cfg.Server.TrustProxyHeaders).To(BeFalse())
		})
	})
})
