package mail

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	commoncfg "github.com/umar1110/Donation-Plantform-Server/common/config"
)

// Sender delivers one message to one recipient
type Sender interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// LogSender logs instead of sending; used when no relay is configured
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, subject, html, text string) error {
	s.logger.Info("Mail relay not configured, receipt email logged only",
		zap.String("to", to),
		zap.String("subject", subject),
	)
	return nil
}

type relayRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
	Text    string `json:"text"`
}

// RelaySender posts messages to an HTTP mail relay
type RelaySender struct {
	httpClient *resty.Client
	url        string
	from       string
	logger     *zap.Logger
}

// NewRelaySender creates a relay client; the API key, when set, is sent as a bearer token
func NewRelaySender(cfg commoncfg.MailConfig, logger *zap.Logger) (*RelaySender, error) {
	if cfg.RelayURL == "" {
		return nil, errors.New("mail relay url is required")
	}
	client := resty.New().
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(3 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || (r != nil && r.StatusCode() >= 500)
		}).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	return &RelaySender{
		httpClient: client,
		url:        cfg.RelayURL,
		from:       cfg.From,
		logger:     logger,
	}, nil
}

func (s *RelaySender) Send(ctx context.Context, to, subject, html, text string) error {
	resp, err := s.httpClient.R().
		SetContext(ctx).
		SetBody(relayRequest{
			From:    s.from,
			To:      to,
			Subject: subject,
			HTML:    html,
			Text:    text,
		}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("failed to call mail relay: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail relay returned %d: %s", resp.StatusCode(), resp.String())
	}

	s.logger.Debug("Receipt email relayed",
		zap.String("to", to),
		zap.Int("status_code", resp.StatusCode()),
	)
	return nil
}
