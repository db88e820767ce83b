package validator_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autovitrine/marketplace/pkg/validator"
)

func TestApply(t *testing.T) {
	t.Parallel()

	t.Run("no failures", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, validator.Apply(
			validator.Required("name", "Loja do Zé"),
			validator.Positive("value", 10.5),
		))
	})

	t.Run("collects every failure", func(t *testing.T) {
		t.Parallel()
		err := validator.Apply(
			validator.Required("name", "  "),
			validator.Positive("value", 0),
			validator.MaxLen("name", "abcdef", 3),
		)
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))
		assert.True(t, errors.Is(err, validator.ErrValidationFailed))

		verrs := validator.ExtractValidationErrors(err)
		require.Len(t, verrs, 3)
		assert.Equal(t, []string{"name", "value"}, verrs.Fields())
		assert.Len(t, verrs.Map()["name"], 2)
		assert.Equal(t, "validation.required", verrs[0].TranslationKey)
		assert.Equal(t, "name", verrs[0].TranslationValues["field"])
	})

	t.Run("optional rules", func(t *testing.T) {
		t.Parallel()
		email := ""
		assert.NoError(t, validator.Apply(validator.When(email != "", validator.ValidEmail("email", email))...))
	})

	t.Run("extract from unrelated error", func(t *testing.T) {
		t.Parallel()
		assert.Nil(t, validator.ExtractValidationErrors(errors.New("boom")))
		assert.False(t, validator.IsValidationError(nil))
	})
}

func TestGenericRules(t *testing.T) {
	t.Parallel()

	today := time.Date(2026, 5, 10, 23, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		rule validator.Rule
		ok   bool
	}{
		{"between inside", validator.Between("year", 2020, 1950, 2027), true},
		{"between above", validator.Between("year", 2030, 1950, 2027), false},
		{"in list", validator.InList("billing_type", "PIX", []string{"PIX", "BOLETO"}), true},
		{"not in list", validator.InList("billing_type", "CASH", []string{"PIX", "BOLETO"}), false},
		{"email", validator.ValidEmail("email", "vendas@autovitrine.com.br"), true},
		{"email with name", validator.ValidEmail("email", "Vendas <vendas@autovitrine.com.br>"), false},
		{"nil uuid", validator.RequiredUUID("id", uuid.Nil), false},
		{"uuid", validator.RequiredUUID("id", uuid.New()), true},
		{"same day", validator.NotBefore("due_date", time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), today), true},
		{"yesterday", validator.NotBefore("due_date", time.Date(2026, 5, 9, 0, 0, 0, 0, time.UTC), today), false},
		{"date", validator.ValidDate("due_date", "2026-05-20", time.DateOnly), true},
		{"empty date", validator.ValidDate("due_date", "", time.DateOnly), true},
		{"bad date", validator.ValidDate("due_date", "20/05/2026", time.DateOnly), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.ok, tt.rule.Check())
		})
	}
}

func TestDocuments(t *testing.T) {
	t.Parallel()

	tests := []struct {
		value string
		cpf   bool
		cnpj  bool
	}{
		{"529.982.247-25", true, false},
		{"52998224725", true, false},
		{"111.444.777-35", true, false},
		{"529.982.247-24", false, false},
		{"111.111.111-11", false, false},
		{"11.222.333/0001-81", false, true},
		{"45997418000153", false, true},
		{"11.222.333/0001-82", false, false},
		{"00.000.000/0000-00", false, false},
		{"123", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.cpf, validator.IsCPF(tt.value), "cpf")
			assert.Equal(t, tt.cnpj, validator.IsCNPJ(tt.value), "cnpj")
			assert.Equal(t, tt.cpf || tt.cnpj, validator.ValidCPFOrCNPJ("doc", tt.value).Check())
		})
	}
}

func TestIsPhoneBR(t *testing.T) {
	t.Parallel()

	tests := map[string]bool{
		"(11) 98765-4321":     true,
		"11987654321":         true,
		"+55 11 98765-4321":   true,
		"(21) 3333-4444":      true,
		"(11) 8765-4321":      false,
		"(11) 88765-4321":     false,
		"(01) 98765-4321":     false,
		"98765-4321":          false,
		"+55 (11) 3333-44445": false,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, want, validator.IsPhoneBR(in))
		})
	}
}
