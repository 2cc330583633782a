package service

import (
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

const defaultMFAIssuer = "usermgmt"

type TOTPProvider struct {
	Issuer    string
	Period    uint
	Skew      uint
	Digits    otp.Digits
	Algorithm otp.Algorithm
}

func NewTOTPProvider(issuer string) *TOTPProvider {
	return &TOTPProvider{
		Issuer:    issuer,
		Period:    30,
		Skew:      1,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}
}

// GenerateSecret returns a fresh base32 secret and the otpauth:// URL an
// authenticator app scans to enrol it.
func (p *TOTPProvider) GenerateSecret(accountName string) (string, string, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      p.issuer(),
		AccountName: accountName,
		Period:      p.period(),
		Digits:      p.digits(),
		Algorithm:   p.Algorithm,
	})
	if err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

func (p *TOTPProvider) ValidateCode(secret string, code string, at time.Time) bool {
	valid, err := totp.ValidateCustom(strings.TrimSpace(code), secret, at, totp.ValidateOpts{
		Period:    p.period(),
		Skew:      p.Skew,
		Digits:    p.digits(),
		Algorithm: p.Algorithm,
	})
	return err == nil && valid
}

func (p *TOTPProvider) issuer() string {
	if strings.TrimSpace(p.Issuer) == "" {
		return defaultMFAIssuer
	}
	return p.Issuer
}

func (p *TOTPProvider) period() uint {
	if p.Period == 0 {
		return 30
	}
	return p.Period
}

func (p *TOTPProvider) digits() otp.Digits {
	if p.Digits == 0 {
		return otp.DigitsSix
	}
	return p.Digits
}
