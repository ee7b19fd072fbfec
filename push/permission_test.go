package push

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type erroringRequester struct{}

func (erroringRequester) RequestPermission(context.Context) (AuthorizationStatus, error) {
	return AuthorizationNotDetermined, errors.New("prompt unavailable")
}

func TestPermissionManager(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		status  AuthorizationStatus
		granted bool
	}{
		{AuthorizationAuthorized, true},
		{AuthorizationProvisional, true},
		{AuthorizationDenied, false},
		{AuthorizationNotDetermined, false},
	} {
		t.Run(tc.status.String(), func(t *testing.T) {
			pm := NewPermissionManager(zaptest.NewLogger(t), StaticPermission(tc.status))

			granted, err := pm.Request(ctx)
			require.NoError(t, err)
			assert.Equal(t, tc.granted, granted)
		})
	}

	t.Run("prompt failure is not granted", func(t *testing.T) {
		pm := NewPermissionManager(zaptest.NewLogger(t), erroringRequester{})

		granted, err := pm.Request(ctx)
		require.Error(t, err)
		assert.False(t, granted)
	})
}
