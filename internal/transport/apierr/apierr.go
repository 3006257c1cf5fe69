// Package apierr переводит ошибки сервисов во внешние статусы.
package apierr

import (
	"errors"
	"net/http"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/service"
)

const (
	KindUnauthenticated = "unauthenticated"
	KindInternal        = "internal"
)

// Status: HTTP-статус для ошибки.
func Status(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict, domain.KindCapacity:
		return http.StatusConflict
	case domain.KindForbidden:
		return http.StatusForbidden
	}
	if isAuth(err) {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// Kind: машинно-читаемый код ошибки.
func Kind(err error) string {
	if k := domain.KindOf(err); k != 0 {
		return k.String()
	}
	if isAuth(err) {
		return KindUnauthenticated
	}
	return KindInternal
}

// Message скрывает текст инфраструктурных ошибок.
func Message(err error) string {
	if domain.KindOf(err) != 0 || isAuth(err) {
		return err.Error()
	}
	return "internal error"
}

func isAuth(err error) bool {
	return errors.Is(err, service.ErrUnauthenticated) || errors.Is(err, service.ErrInvalidCredentials)
}
