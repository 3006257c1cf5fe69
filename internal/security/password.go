package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrPasswordMismatch = errors.New("password mismatch")

type BcryptConfig struct {
	Cost      int // по умолчанию bcrypt.DefaultCost
	MinLength int // по умолчанию 8
}

func HashPassword(plain string, cfg BcryptConfig) (string, error) {
	minLen := 8
	if cfg.MinLength > 0 {
		minLen = cfg.MinLength
	}
	cost := bcrypt.DefaultCost
	if cfg.Cost > 0 {
		cost = cfg.Cost
	}

	if len(plain) < minLen {
		return "", errors.New("password too short")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func ComparePassword(hash, plain string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return err
	}
	return nil
}
