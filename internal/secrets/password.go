package secrets

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/zalando/go-keyring"

	"jobmonitor/internal/config"
)

const (
	// "Service" groups the monitor's secrets in the OS keychain.
	KeyringService = "jobmonitor"

	EnvSMTPPassword  = "SMTP_PASSWORD"
	EnvTelegramToken = "TELEGRAM_BOT_TOKEN"
)

var ErrNotFound = errors.New("secret not found")

// Kind names a secret the monitor knows how to look up.
type Kind string

const (
	SMTPPassword  Kind = "smtp"
	TelegramToken Kind = "telegram"
)

// Account is the keyring account a secret of kind k is stored under.
func Account(k Kind, cfg config.Config) (string, error) {
	switch k {
	case SMTPPassword:
		smtp := cfg.Notification.SMTP
		if strings.TrimSpace(smtp.Username) == "" || strings.TrimSpace(smtp.Host) == "" {
			return "", errors.New("notification.smtp.username and host are required")
		}
		return fmt.Sprintf("jobmonitor:smtp:%s@%s", smtp.Username, smtp.Host), nil
	case TelegramToken:
		return "jobmonitor:telegram", nil
	}
	return "", fmt.Errorf("unknown secret kind %q", k)
}

func envFor(k Kind) string {
	if k == TelegramToken {
		return EnvTelegramToken
	}
	return EnvSMTPPassword
}

// Get looks in the environment first, then the keychain.
func Get(k Kind, cfg config.Config) (string, error) {
	if v := strings.TrimSpace(os.Getenv(envFor(k))); v != "" {
		return v, nil
	}
	acct, err := Account(k, cfg)
	if err != nil {
		return "", err
	}
	v, err := keyring.Get(KeyringService, acct)
	if err == nil && strings.TrimSpace(v) != "" {
		return v, nil
	}
	return "", fmt.Errorf("%w: %s (set %s or store it in the keychain)", ErrNotFound, k, envFor(k))
}

func Set(k Kind, cfg config.Config, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.New("secret is empty")
	}
	acct, err := Account(k, cfg)
	if err != nil {
		return err
	}
	return keyring.Set(KeyringService, acct, value)
}

func Delete(k Kind, cfg config.Config) error {
	acct, err := Account(k, cfg)
	if err != nil {
		return err
	}
	if err := keyring.Delete(KeyringService, acct); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrNotFound, k)
		}
		return err
	}
	return nil
}
