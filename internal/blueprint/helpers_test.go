package blueprint

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/tenantgridgo/internal/address"
)

func mustAddr(t *testing.T, raw string) address.Address {
	t.Helper()
	addr, err := address.Parse(raw)
	require.NoError(t, err)
	return addr
}
