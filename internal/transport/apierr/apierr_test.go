package apierr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/service"
)

func TestMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{domain.Validation("bad"), http.StatusBadRequest, "validation"},
		{domain.ErrRoomNotFound, http.StatusNotFound, "not_found"},
		{domain.ErrAlreadyJoined, http.StatusConflict, "conflict"},
		{domain.ErrRoomFull, http.StatusConflict, "capacity"},
		{fmt.Errorf("wrap: %w", domain.ErrNotInRoom), http.StatusForbidden, "forbidden"},
		{service.ErrInvalidCredentials, http.StatusUnauthorized, KindUnauthenticated},
		{errors.New("pg: connection refused"), http.StatusInternalServerError, KindInternal},
	}
	for _, c := range cases {
		require.Equal(t, c.status, Status(c.err), c.err.Error())
		require.Equal(t, c.kind, Kind(c.err), c.err.Error())
	}
	require.Equal(t, "internal error", Message(errors.New("secret dsn")))
	require.Equal(t, domain.ErrRoomFull.Error(), Message(domain.ErrRoomFull))
}
