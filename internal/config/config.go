package config

import (
	"crypto/rsa"
	"encoding/base64"
	"encoding/pem"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joho/godotenv"
	"github.com/launchdarkly/go-sdk-common/v3/ldcontext"
	ld "github.com/launchdarkly/go-server-sdk/v7"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"

	DefaultNoticeWindowLastDay = 5
)

type Config struct {
	OrganizationName string
	AppName          string
	AppPort          string
	AppUrl           string
	Env              string

	// Persistence
	StoreDriver string
	DBUrl       string

	// Auth
	RSAPublicKey *rsa.PublicKey

	// Notice workflow. A property's own window, when set, wins.
	NoticeWindowLastDay    int
	VacateReminderLeadDays int

	// Notifications
	SendGridAPIKey    string
	SendGridFromEmail string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromPhone   string
	RabbitMQURL       string
	RabbitMQExchange  string

	// Log shipping
	FluentHost string
	FluentPort string

	// Background jobs
	ConsistencyCheckSchedule string
	VacateReminderSchedule   string

	OwnershipCacheTTL time.Duration

	// LaunchDarkly flags (env fallbacks when LD_SDK_KEY is unset)
	LDFlag_SendgridSandboxMode bool
	LDFlag_CORSHighSecurity    bool
	LDFlag_SeedDbWithTestData  bool
}

const (
	OrganizationName    = utils.OrganizationName
	LDConnectionTimeout = 5 * time.Second
	ldContextKind       = "service"
)

// AppName can be set with -ldflags; APP_NAME overrides it.
var AppName = "occupancy-service"

func LoadConfig() *Config {
	// .env is optional; real deployments inject env vars directly.
	if err := godotenv.Load(); err != nil {
		utils.Logger.Debug("No .env file loaded")
	}

	appName := envOr("APP_NAME", AppName)
	utils.Logger.Info("Loading config for app: ", appName)

	env := os.Getenv("ENV")
	if env == "" {
		utils.Logger.Fatal("ENV env var is missing")
	}
	appPort := os.Getenv("APP_PORT")
	if appPort == "" {
		utils.Logger.Fatal("APP_PORT env var is missing")
	}
	appUrl := envOr("APP_URL", "http://localhost:"+appPort)

	storeDriver := envOr("STORE_DRIVER", StoreDriverPostgres)
	dbURL := os.Getenv("DB_URL")
	switch storeDriver {
	case StoreDriverPostgres:
		if dbURL == "" {
			utils.Logger.Fatal("DB_URL env var is missing")
		}
	case StoreDriverMemory:
	default:
		utils.Logger.Fatalf("STORE_DRIVER %q not supported", storeDriver)
	}

	pubB64 := os.Getenv("JWT_PUBLIC_KEY_BASE64")
	if pubB64 == "" {
		utils.Logger.Fatal("JWT_PUBLIC_KEY_BASE64 env var is missing")
	}
	pubKey, err := ParseRSAPublicKeyBase64(pubB64)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to parse RSA public key")
	}

	noticeDay := envInt("NOTICE_WINDOW_LAST_DAY", DefaultNoticeWindowLastDay)
	cacheTTL, err := time.ParseDuration(envOr("OWNERSHIP_CACHE_TTL", "5m"))
	if err != nil {
		utils.Logger.WithError(err).Fatal("OWNERSHIP_CACHE_TTL is not a duration")
	}

	cfg := &Config{
		OrganizationName:           OrganizationName,
		AppName:                    appName,
		AppPort:                    appPort,
		AppUrl:                     appUrl,
		Env:                        env,
		StoreDriver:                storeDriver,
		DBUrl:                      dbURL,
		RSAPublicKey:               pubKey,
		NoticeWindowLastDay:        noticeDay,
		VacateReminderLeadDays:     envInt("VACATE_REMINDER_LEAD_DAYS", 2),
		SendGridAPIKey:             os.Getenv("SENDGRID_API_KEY"),
		SendGridFromEmail:          envOr("SENDGRID_FROM_EMAIL", "no-reply@pgfinder.app"),
		TwilioAccountSID:           os.Getenv("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:            os.Getenv("TWILIO_AUTH_TOKEN"),
		TwilioFromPhone:            os.Getenv("TWILIO_FROM_PHONE"),
		RabbitMQURL:                os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange:           envOr("RABBITMQ_EXCHANGE", "occupancy.events"),
		FluentHost:                 os.Getenv("FLUENT_HOST"),
		FluentPort:                 os.Getenv("FLUENT_PORT"),
		ConsistencyCheckSchedule:   envOr("CONSISTENCY_CHECK_SCHEDULE", "15 3 * * *"),
		VacateReminderSchedule:     envOr("VACATE_REMINDER_SCHEDULE", "0 8 * * *"),
		OwnershipCacheTTL:          cacheTTL,
		LDFlag_SendgridSandboxMode: envBool("SENDGRID_SANDBOX_MODE", env != "prod"),
		LDFlag_CORSHighSecurity:    envBool("CORS_HIGH_SECURITY", false),
		LDFlag_SeedDbWithTestData:  envBool("SEED_DB_WITH_TEST_DATA", false),
	}

	if ldSDKKey := os.Getenv("LD_SDK_KEY"); ldSDKKey != "" {
		cfg.applyLaunchDarkly(ldSDKKey)
	}

	if cfg.NoticeWindowLastDay < 1 || cfg.NoticeWindowLastDay > 31 {
		utils.Logger.Fatalf("notice window last day %d outside 1..31", cfg.NoticeWindowLastDay)
	}
	return cfg
}

func (c *Config) applyLaunchDarkly(sdkKey string) {
	ldClient, err := ld.MakeClient(sdkKey, LDConnectionTimeout)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Failed to create LaunchDarkly client")
	}
	if !ldClient.Initialized() {
		ldClient.Close()
		utils.Logger.Fatal("LaunchDarkly client failed to initialize")
	}
	defer ldClient.Close()

	ctx := ldcontext.NewWithKind(ldcontext.Kind(ldContextKind), c.AppName+"-"+c.Env)

	noticeDay, err := ldClient.IntVariation("notice_window_last_day", ctx, c.NoticeWindowLastDay)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving notice_window_last_day flag")
	}
	utils.Logger.Debugf("notice_window_last_day flag: %d", noticeDay)
	c.NoticeWindowLastDay = noticeDay

	sgSandboxFlag, err := ldClient.BoolVariation("sendgrid_sandbox_mode", ctx, c.LDFlag_SendgridSandboxMode)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_sandbox_mode flag")
	}
	utils.Logger.Debugf("sendgrid_sandbox_mode flag: %t", sgSandboxFlag)
	c.LDFlag_SendgridSandboxMode = sgSandboxFlag

	corsHighSecurityFlag, err := ldClient.BoolVariation("cors_high_security", ctx, c.LDFlag_CORSHighSecurity)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving cors_high_security flag")
	}
	utils.Logger.Debugf("cors_high_security flag: %t", corsHighSecurityFlag)
	c.LDFlag_CORSHighSecurity = corsHighSecurityFlag

	seedFlag, err := ldClient.BoolVariation("seed_db_with_test_data", ctx, c.LDFlag_SeedDbWithTestData)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving seed_db_with_test_data flag")
	}
	utils.Logger.Debugf("seed_db_with_test_data flag: %t", seedFlag)
	c.LDFlag_SeedDbWithTestData = seedFlag

	fromEmail, err := ldClient.StringVariation("sendgrid_from_email", ctx, c.SendGridFromEmail)
	if err != nil {
		utils.Logger.WithError(err).Fatal("Error retrieving sendgrid_from_email flag")
	}
	if fromEmail != "" {
		c.SendGridFromEmail = fromEmail
	}
}

// ParseRSAPublicKeyBase64 decodes a base64-wrapped PEM public key.
func ParseRSAPublicKeyBase64(b64 string) (*rsa.PublicKey, error) {
	pubPEM, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if block, _ := pem.Decode(pubPEM); block == nil {
		return nil, jwt.ErrKeyMustBePEMEncoded
	}
	return jwt.ParseRSAPublicKeyFromPEM(pubPEM)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		utils.Logger.WithError(err).Fatalf("%s must be an integer", key)
	}
	return n
}

func envBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		utils.Logger.WithError(err).Fatalf("%s must be a boolean", key)
	}
	return b
}

func (c *Config) Close() {}
