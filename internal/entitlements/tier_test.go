package entitlements

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	for _, tier := range Tiers {
		parsed, err := ParseTier(tier.String())
		require.NoError(t, err)
		require.Equal(t, tier, parsed)
	}

	parsed, err := ParseTier("  PLATINUM ")
	require.NoError(t, err)
	require.Equal(t, TierPlatinum, parsed)

	_, err = ParseTier("diamond")
	require.Error(t, err)
}

func TestTierOrdering(t *testing.T) {
	require.Equal(t, 1, TierStandard.Rank())
	require.Equal(t, 2, TierGold.Rank())
	require.Equal(t, 3, TierPlatinum.Rank())

	require.True(t, TierPlatinum.AtLeast(TierGold))
	require.True(t, TierGold.AtLeast(TierGold))
	require.False(t, TierStandard.AtLeast(TierGold))

	var unset Tier
	require.False(t, unset.AtLeast(TierStandard))
	require.False(t, TierPlatinum.AtLeast(unset))
}

func TestTierJSONRoundTripsByName(t *testing.T) {
	payload, err := json.Marshal(struct {
		Tier Tier `json:"tier"`
	}{Tier: TierGold})
	require.NoError(t, err)
	require.JSONEq(t, `{"tier":"gold"}`, string(payload))

	var decoded struct {
		Tier Tier `json:"tier"`
	}
	require.Error(t, json.Unmarshal([]byte(`{"tier":"bronze"}`), &decoded))
}

func TestTierScanAndValue(t *testing.T) {
	var tier Tier
	require.NoError(t, tier.Scan([]byte("platinum")))
	require.Equal(t, TierPlatinum, tier)

	value, err := tier.Value()
	require.NoError(t, err)
	require.Equal(t, "platinum", value)

	_, err = Tier(0).Value()
	require.Error(t, err)
	require.Error(t, tier.Scan(42))
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("Admin")
	require.NoError(t, err)
	require.True(t, role.IsAdmin())

	role, err = ParseRole("user")
	require.NoError(t, err)
	require.False(t, role.IsAdmin())

	_, err = ParseRole("superuser")
	require.Error(t, err)
}
