package counterstore_test

import (
	"fmt"
	"testing"
	"time"

	counterstore "github.com/dalemusser/salescrm/internal/app/store/counters"
	"github.com/dalemusser/salescrm/internal/testutil"
	"github.com/stretchr/testify/require"
)

func TestFormat(t *testing.T) {
	require.Equal(t, "D25-00001", counterstore.Format("D", 25, 1))
	require.Equal(t, "Q07-12345", counterstore.Format("Q", 7, 12345))
}

func TestNext_IsSequentialPerPrefix(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := counterstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	yy := time.Now().UTC().Year() % 100
	for i := 1; i <= 3; i++ {
		n, err := store.Next(ctx, counterstore.PrefixDeal)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("D%02d-%05d", yy, i), n)
	}

	q, err := store.Next(ctx, counterstore.PrefixQuote)
	require.NoError(t, err)
	require.Equal(t, fmt.Sprintf("Q%02d-00001", yy), q)
}
