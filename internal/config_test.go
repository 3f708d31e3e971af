package internal_test

import (
	"errors"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/issue-tracker/internal"
)

var _ = Describe("Config", func() {
	It("accepts the defaults", func() {
		Expect(internal.DefaultConfig().Validate()).To(Succeed())
	})

	DescribeTable("rejects",
		func(mutate func(c *internal.Config), msg string) {
			cfg := internal.DefaultConfig()
			mutate(cfg)
			Expect(cfg.Validate()).To(MatchError(ContainSubstring(msg)))
		},
		Entry("a port out of range", func(c *internal.Config) { c.Server.Port = 70000 }, "invalid port"),
		Entry("a file driver without dir", func(c *internal.Config) { c.Storage.Dir = "" }, "dir is required"),
		Entry("sqlite without dsn", func(c *internal.Config) { c.Storage.Driver = internal.StorageSQLite }, "dsn is required"),
		Entry("redis without addr", func(c *internal.Config) { c.Storage.Driver = internal.StorageRedis }, "redis.addr is required"),
		Entry("a short token secret", func(c *internal.Config) { c.Security.TokenSecret = "short" }, "at least 16 characters"),
		Entry("a remote classifier without key", func(c *internal.Config) { c.Classifier.Provider = internal.ClassifierGemini }, "api_key is required"),
		Entry("an unknown classifier", func(c *internal.Config) { c.Classifier.Provider = "oracle" }, `unknown provider "oracle"`),
		Entry("attachments without credentials", func(c *internal.Config) {
			c.Attachments.Endpoint = "localhost:9000"
			c.Attachments.Bucket = "files"
		}, "access_key and secret_key are required"),
		Entry("an unknown log format", func(c *internal.Config) { c.Logging.Format = "xml" }, `invalid format "xml"`),
	)

	It("reports every broken section at once", func() {
		cfg := internal.DefaultConfig()
		cfg.Server.Port = 0
		cfg.Logging.Level = "loud"

		err := cfg.Validate()
		Expect(err).To(MatchError(ContainSubstring("server config")))
		Expect(err).To(MatchError(ContainSubstring("logging config")))
	})

	It("reads overrides from the environment", func() {
		GinkgoT().Setenv("HTTP_PORT", "9999")
		GinkgoT().Setenv("STORAGE_DRIVER", "redis")
		GinkgoT().Setenv("REDIS_ADDR", "redis://cache:6379/1")
		GinkgoT().Setenv("TOKEN_TTL", "2h")
		GinkgoT().Setenv("ATTACHMENTS_USE_SSL", "true")

		cfg := internal.LoadConfigFromEnv()
		Expect(cfg.Server.Port).To(Equal(9999))
		Expect(cfg.Storage.Driver).To(Equal(internal.StorageRedis))
		Expect(cfg.Storage.Redis.Addr).To(Equal("redis://cache:6379/1"))
		Expect(cfg.Security.TokenTTL).To(Equal(2 * time.Hour))
		Expect(cfg.Attachments.UseSSL).To(BeTrue())
	})
})

var _ = Describe("AppError", func() {
	It("matches its sentinel through a cause chain", func() {
		err := internal.ErrUploadFailed.WithCause(errors.New("bucket offline"))
		Expect(errors.Is(err, internal.ErrUploadFailed)).To(BeTrue())

		status, _ := err.ToHTTPResponse()
		Expect(status).To(Equal(http.StatusBadGateway))
	})
})
