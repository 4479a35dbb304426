package app

import (
	"github.com/realstay2025-maker/pgfinder-sub001/internal/config"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/services"
	"github.com/realstay2025-maker/pgfinder-sub001/internal/utils"
	"github.com/sendgrid/sendgrid-go"
	twilio "github.com/twilio/twilio-go"
)

// NewNotifier enables every channel that has credentials configured. The
// returned close func releases the RabbitMQ connection, if any.
func NewNotifier(cfg *config.Config) (*services.MultiNotifier, func()) {
	var channels []services.Notifier
	closeFn := func() {}

	if cfg.SendGridAPIKey != "" {
		sgClient := sendgrid.NewSendClient(cfg.SendGridAPIKey)
		channels = append(channels, services.NewEmailNotifier(
			sgClient, cfg.OrganizationName, cfg.SendGridFromEmail, cfg.LDFlag_SendgridSandboxMode,
		))
	} else {
		utils.Logger.Info("SENDGRID_API_KEY unset; email notifications disabled")
	}

	if cfg.TwilioAccountSID != "" && cfg.TwilioFromPhone != "" {
		twClient := twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: cfg.TwilioAccountSID,
			Password: cfg.TwilioAuthToken,
		})
		channels = append(channels, services.NewSMSNotifier(twClient, cfg.TwilioFromPhone))
	} else {
		utils.Logger.Info("Twilio credentials unset; SMS notifications disabled")
	}

	if cfg.RabbitMQURL != "" {
		pub, err := services.NewEventPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, cfg.AppName)
		if err != nil {
			utils.Logger.WithError(err).Warn("RabbitMQ unavailable; occupancy events will not be published")
		} else {
			channels = append(channels, pub)
			closeFn = func() {
				if err := pub.Close(); err != nil {
					utils.Logger.WithError(err).Warn("RabbitMQ close failed")
				}
			}
		}
	}

	return services.NewMultiNotifier(channels...), closeFn
}
