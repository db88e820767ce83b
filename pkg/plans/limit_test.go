package plans_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/autovitrine/marketplace/pkg/plans"
)

func TestLimitAllows(t *testing.T) {
	t.Parallel()

	t.Run("permits strictly below the cap", func(t *testing.T) {
		t.Parallel()
		l := plans.Limited(5)
		for current := int64(0); current < 5; current++ {
			assert.True(t, l.Allows(current), "current=%d", current)
		}
		assert.False(t, l.Allows(5))
		assert.False(t, l.Allows(6))
	})

	t.Run("limited zero permits nothing", func(t *testing.T) {
		t.Parallel()
		assert.False(t, plans.Limited(0).Allows(0))
	})

	t.Run("unlimited permits any count", func(t *testing.T) {
		t.Parallel()
		l := plans.Unlimited()
		for _, current := range []int64{0, 1, 1 << 40} {
			assert.True(t, l.Allows(current))
		}
		_, ok := l.Max()
		assert.False(t, ok)
	})

	t.Run("legacy zero means unlimited", func(t *testing.T) {
		t.Parallel()
		assert.True(t, plans.FromLegacy(0).IsUnlimited())
		assert.True(t, plans.FromLegacy(-1).IsUnlimited())
		n, ok := plans.FromLegacy(7).Max()
		require.True(t, ok)
		assert.Equal(t, int64(7), n)
	})

	t.Run("zero value is limited to zero", func(t *testing.T) {
		t.Parallel()
		var l plans.Limit
		assert.False(t, l.IsUnlimited())
		assert.False(t, l.Allows(0))
	})
}

func TestLimitRemaining(t *testing.T) {
	t.Parallel()

	n, ok := plans.Limited(10).Remaining(4)
	require.True(t, ok)
	assert.Equal(t, int64(6), n)

	n, ok = plans.Limited(10).Remaining(12)
	require.True(t, ok)
	assert.Equal(t, int64(0), n)

	_, ok = plans.Unlimited().Remaining(4)
	assert.False(t, ok)
}

func TestLimitLess(t *testing.T) {
	t.Parallel()

	assert.True(t, plans.Limited(1).Less(plans.Limited(2)))
	assert.True(t, plans.Limited(1000).Less(plans.Unlimited()))
	assert.False(t, plans.Unlimited().Less(plans.Limited(1)))
	assert.False(t, plans.Unlimited().Less(plans.Unlimited()))
}

func TestLimitEncoding(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()
		data, err := json.Marshal(map[string]plans.Limit{"a": plans.Limited(3), "b": plans.Unlimited()})
		require.NoError(t, err)
		assert.JSONEq(t, `{"a":3,"b":"unlimited"}`, string(data))

		var decoded map[string]plans.Limit
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, plans.Limited(3), decoded["a"])
		assert.True(t, decoded["b"].IsUnlimited())
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()
		var decoded map[string]plans.Limit
		require.NoError(t, yaml.Unmarshal([]byte("a: 12\nb: unlimited\n"), &decoded))
		assert.Equal(t, plans.Limited(12), decoded["a"])
		assert.True(t, decoded["b"].IsUnlimited())
	})

	t.Run("rejects negative numbers", func(t *testing.T) {
		t.Parallel()
		var l plans.Limit
		err := json.Unmarshal([]byte(`-1`), &l)
		require.Error(t, err)
		assert.True(t, errors.Is(err, plans.ErrInvalidLimit))
	})

	t.Run("rejects garbage strings", func(t *testing.T) {
		t.Parallel()
		var l plans.Limit
		err := yaml.Unmarshal([]byte(`lots`), &l)
		require.Error(t, err)
		assert.True(t, errors.Is(err, plans.ErrInvalidLimit))
	})
}
