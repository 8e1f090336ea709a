package services

import (
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/greg-czaplicki/parlay-picker/internal/engine"
)

// AlertService sends SMS notifications when scoring surfaces a matchup edge
// above the configured value threshold. Each player is alerted at most once
// per event and round, so odds drift doesn't spam the recipient.
type AlertService struct {
	sms       SMSService
	recipient string
	threshold float64
	logger    *logrus.Logger

	mu       sync.Mutex
	notified map[string]bool
}

func NewAlertService(sms SMSService, recipient string, threshold float64, logger *logrus.Logger) *AlertService {
	return &AlertService{
		sms:       sms,
		recipient: recipient,
		threshold: threshold,
		logger:    logger,
		notified:  make(map[string]bool),
	}
}

// ScanAndAlert inspects freshly scored records and sends one message covering
// every new above-threshold play. Send failures are logged, never propagated;
// alerting must not disturb the scoring path.
func (s *AlertService) ScanAndAlert(records []engine.DerivedRecord) int {
	if s.recipient == "" {
		return 0
	}

	s.mu.Lock()
	var fresh []engine.DerivedRecord
	for _, rec := range records {
		if rec.ValueScore < s.threshold {
			continue
		}
		key := fmt.Sprintf("%s|r%d|%d", rec.Player.EventName, rec.Player.RoundNum, rec.Player.PlayerID)
		if s.notified[key] {
			continue
		}
		s.notified[key] = true
		fresh = append(fresh, rec)
	}
	s.mu.Unlock()

	if len(fresh) == 0 {
		return 0
	}

	if err := s.sms.SendMessage(s.recipient, s.formatMessage(fresh)); err != nil {
		s.logger.WithError(err).Warn("Value alert delivery failed")
		return 0
	}

	s.logger.WithFields(logrus.Fields{
		"component": "alerts",
		"plays":     len(fresh),
	}).Info("Value alert sent")
	return len(fresh)
}

// Reset clears the notified set, typically between rounds
func (s *AlertService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified = make(map[string]bool)
}

func (s *AlertService) formatMessage(records []engine.DerivedRecord) string {
	var b strings.Builder
	b.WriteString("Value plays:\n")
	for _, rec := range records {
		odds := "n/a"
		if rec.Player.Odds != nil {
			odds = fmt.Sprintf("%+.0f", *rec.Player.Odds)
		}
		fmt.Fprintf(&b, "%s (%s) value %.2f odds %s\n",
			rec.Player.Name, rec.Player.GroupID, rec.ValueScore, odds)
	}
	return strings.TrimRight(b.String(), "\n")
}
