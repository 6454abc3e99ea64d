package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestValidateTag(t *testing.T) {
	tests := []struct {
		name  string
		tag   models.Tag
		valid bool
	}{
		{"valid", models.Tag{Name: "Lunch", Color: "#E26C2D", Slug: "lunch"}, true},
		{"lowercase hex", models.Tag{Name: "Lunch", Color: "#e26c2d", Slug: "lunch_2"}, true},
		{"short color", models.Tag{Name: "Lunch", Color: "#FFF", Slug: "lunch"}, false},
		{"color without hash", models.Tag{Name: "Lunch", Color: "E26C2D", Slug: "lunch"}, false},
		{"slug with space", models.Tag{Name: "Lunch", Color: "#E26C2D", Slug: "late lunch"}, false},
		{"empty name", models.Tag{Name: " ", Color: "#E26C2D", Slug: "lunch"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := service.ValidateTag(&tt.tag)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, service.KindValidation, service.KindOf(err))
		})
	}
}

func TestLoadReferenceDataIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupSQLite(t)
	catalog := service.NewCatalogService(db)

	tags := func() []models.Tag {
		return []models.Tag{
			{Name: "Breakfast", Color: "#E26C2D", Slug: "breakfast"},
			{Name: "Dinner", Color: "#8775D2", Slug: "dinner"},
		}
	}
	ingredients := func() []models.Ingredient {
		return []models.Ingredient{
			{Name: "flour", MeasurementUnit: "g"},
			{Name: "milk", MeasurementUnit: "ml"},
			{Name: "milk", MeasurementUnit: "cup"},
		}
	}

	n, err := catalog.LoadTags(ctx, tags())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	n, err = catalog.LoadTags(ctx, tags())
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = catalog.LoadIngredients(ctx, ingredients())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	n, err = catalog.LoadIngredients(ctx, ingredients())
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = catalog.LoadTags(ctx, []models.Tag{{Name: "Bad", Color: "red", Slug: "bad"}})
	assert.Equal(t, service.KindValidation, service.KindOf(err))

	listed, err := catalog.ListTags(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 2)
}

func TestListIngredientsByPrefix(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupSQLite(t)
	catalog := service.NewCatalogService(db)
	testhelpers.CreateIngredient(t, db, "Salt", "g")
	testhelpers.CreateIngredient(t, db, "salmon", "g")
	testhelpers.CreateIngredient(t, db, "sa_ffron", "g")
	testhelpers.CreateIngredient(t, db, "basil", "g")

	found, err := catalog.ListIngredients(ctx, "SAL")
	require.NoError(t, err)
	names := make([]string, len(found))
	for i, f := range found {
		names[i] = f.Name
	}
	assert.ElementsMatch(t, []string{"Salt", "salmon"}, names)

	found, err = catalog.ListIngredients(ctx, "sa_")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "sa_ffron", found[0].Name)

	_, err = catalog.GetIngredient(ctx, 999)
	assert.Equal(t, service.KindNotFound, service.KindOf(err))
}

func TestListIngredientsByPrefixOnPostgres(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.SetupPostgres(t)
	catalog := service.NewCatalogService(db)
	testhelpers.CreateIngredient(t, db, "Salt", "g")
	testhelpers.CreateIngredient(t, db, "sa_ffron", "g")
	testhelpers.CreateIngredient(t, db, "sardines", "g")

	found, err := catalog.ListIngredients(ctx, "sAL")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Salt", found[0].Name)

	found, err = catalog.ListIngredients(ctx, "SA_")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "sa_ffron", found[0].Name)
}
