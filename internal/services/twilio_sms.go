package services

import (
	"fmt"
	"regexp"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioSMSService implements SMSService using Twilio API
type TwilioSMSService struct {
	client      *twilio.RestClient
	fromNumber  string
	logger      *logrus.Logger
	breaker     *gobreaker.CircuitBreaker
	rateLimiter *SMSRateLimiter
}

// NewTwilioSMSService creates a new Twilio SMS service
func NewTwilioSMSService(accountSID, authToken, fromNumber string, rateLimiter *SMSRateLimiter, logger *logrus.Logger) *TwilioSMSService {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	settings := gobreaker.Settings{
		Name:    "twilio",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "circuit_breaker",
				"service":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Info("Circuit breaker state changed")
		},
	}

	return &TwilioSMSService{
		client:      client,
		fromNumber:  fromNumber,
		logger:      logger,
		breaker:     gobreaker.NewCircuitBreaker(settings),
		rateLimiter: rateLimiter,
	}
}

// SendMessage sends an SMS message via Twilio
func (s *TwilioSMSService) SendMessage(phoneNumber, message string) error {
	// Validate phone number format (E.164)
	normalizedNumber, err := normalizePhoneNumber(phoneNumber)
	if err != nil {
		return fmt.Errorf("invalid phone number format: %w", err)
	}

	// Check rate limiting
	if s.rateLimiter != nil {
		if err := s.rateLimiter.Allow(normalizedNumber); err != nil {
			s.logger.WithField("to", normalizedNumber).Warn("SMS rate limited")
			return fmt.Errorf("rate limit exceeded: %w", err)
		}
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(normalizedNumber)
	params.SetFrom(s.fromNumber)
	params.SetBody(message)

	_, err = s.breaker.Execute(func() (interface{}, error) {
		return s.client.Api.CreateMessage(params)
	})
	if err != nil {
		s.logger.WithError(err).Error("Twilio SMS send failed")
		return mapTwilioError(err)
	}

	s.logger.WithField("to", normalizedNumber).Info("SMS sent")
	return nil
}

// normalizePhoneNumber ensures phone number is in E.164 format
func normalizePhoneNumber(phone string) (string, error) {
	// Remove all non-digit characters except +
	re := regexp.MustCompile(`[^\d+]`)
	cleaned := re.ReplaceAllString(phone, "")

	// Add + if not present
	if !regexp.MustCompile(`^\+`).MatchString(cleaned) {
		// Assume US number if no country code
		if regexp.MustCompile(`^\d{10}$`).MatchString(cleaned) {
			cleaned = "+1" + cleaned
		} else {
			return "", fmt.Errorf("invalid phone number format")
		}
	}

	// Validate E.164 format
	if !regexp.MustCompile(`^\+[1-9]\d{1,14}$`).MatchString(cleaned) {
		return "", fmt.Errorf("invalid phone number format")
	}

	return cleaned, nil
}

// mapTwilioError maps Twilio-specific errors to user-friendly messages
func mapTwilioError(err error) error {
	errStr := err.Error()

	switch {
	case regexp.MustCompile(`(?i)invalid.*phone.*number`).MatchString(errStr):
		return fmt.Errorf("invalid phone number")
	case regexp.MustCompile(`(?i)unverified.*number`).MatchString(errStr):
		return fmt.Errorf("phone number not verified for trial account")
	case regexp.MustCompile(`(?i)insufficient.*funds`).MatchString(errStr):
		return fmt.Errorf("SMS service temporarily unavailable")
	case regexp.MustCompile(`(?i)rate.*limit`).MatchString(errStr):
		return fmt.Errorf("too many SMS requests, please try again later")
	default:
		return fmt.Errorf("failed to send SMS: %w", err)
	}
}
