package service

import (
	"context"
	"testing"
	"time"

	"staybook/internal/accommodations/repository"
	"staybook/internal/accommodations/repository/repotest"
	"staybook/platform/apperr"
	"staybook/platform/logger"
	"staybook/platform/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() (*Service, *repotest.Memory) {
	repo := repotest.NewMemory()
	return New(repo, validator.New(), logger.Discard()), repo
}

func strPtr(s string) *string { return &s }

func validInput() CreateInput {
	return CreateInput{
		Title:       "Seaside Loft",
		Description: "Bright loft two minutes from the beach",
		Price:       120.5,
		Location:    "Lisbon",
		ImageURL:    strPtr("https://example.com/loft.jpg"),
		Amenities:   []string{"wifi", "pool"},
	}
}

func assertValidation(t *testing.T, err error, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperr.As(err)
	require.True(t, ok, "expected apperr, got %v", err)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)
	assert.Equal(t, message, appErr.Message)
}

func TestCreateThenGetReturnsEqualFields(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	in := validInput()

	created, err := svc.Create(ctx, in)
	require.NoError(t, err)
	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, in.Title, got.Title)
	assert.Equal(t, in.Description, got.Description)
	assert.Equal(t, in.Price, got.Price)
	assert.Equal(t, in.Location, got.Location)
	assert.Equal(t, *in.ImageURL, *got.ImageURL)
	assert.Equal(t, in.Amenities, got.Amenities)
}

func TestCreateValidation(t *testing.T) {
	cases := map[string]struct {
		mutate  func(*CreateInput)
		message string
	}{
		"blank title":        {func(in *CreateInput) { in.Title = "   " }, msgTitleRequired},
		"short title":        {func(in *CreateInput) { in.Title = "Ab" }, msgTitleLength},
		"blank description":  {func(in *CreateInput) { in.Description = "" }, msgDescriptionRequired},
		"short description":  {func(in *CreateInput) { in.Description = "Too short" }, msgDescriptionLength},
		"negative price":     {func(in *CreateInput) { in.Price = -1 }, msgPriceNegative},
		"price out of range": {func(in *CreateInput) { in.Price = 1_000_000 }, msgPriceTooHigh},
		"blank location":     {func(in *CreateInput) { in.Location = "" }, msgLocationRequired},
		"bad image url":      {func(in *CreateInput) { in.ImageURL = strPtr("not a url") }, msgImageURLInvalid},
		"empty amenity":      {func(in *CreateInput) { in.Amenities = []string{"wifi", " "} }, msgAmenityEmpty},
		"duplicate amenity":  {func(in *CreateInput) { in.Amenities = []string{"wifi", "wifi "} }, msgAmenitiesDuplicated},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			svc, repo := newService()
			in := validInput()
			tc.mutate(&in)

			_, err := svc.Create(context.Background(), in)

			assertValidation(t, err, tc.message)
			n, _ := repo.Count(context.Background())
			assert.Zero(t, n)
		})
	}
}

func TestCreateTreatsBlankImageURLAsAbsent(t *testing.T) {
	svc, _ := newService()
	in := validInput()
	in.ImageURL = strPtr("  ")

	created, err := svc.Create(context.Background(), in)

	require.NoError(t, err)
	assert.Nil(t, created.ImageURL)
}

func TestListingGuards(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, err := svc.ListPaginated(ctx, 0, 0)
	assertValidation(t, err, msgLimitPositive)
	_, err = svc.ListPaginated(ctx, 10, -1)
	assertValidation(t, err, msgOffsetNegative)

	_, err = svc.Search(ctx, "  ")
	assertValidation(t, err, msgSearchEmpty)
	_, err = svc.Search(ctx, "a")
	assertValidation(t, err, msgSearchTooShort)

	_, err = svc.ListByLocation(ctx, "")
	assertValidation(t, err, msgLocationEmpty)

	_, err = svc.ListByPriceRange(ctx, -1, 10)
	assertValidation(t, err, msgMinPriceNegative)
	_, err = svc.ListByPriceRange(ctx, 1, -10)
	assertValidation(t, err, msgMaxPriceNegative)
	_, err = svc.ListByPriceRange(ctx, 50, 10)
	assertValidation(t, err, msgPriceRangeInverted)

	_, err = svc.ListByAmenity(ctx, " ")
	assertValidation(t, err, msgAmenityEmpty)
}

func TestFilters(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	cheap := validInput()
	cheap.Title, cheap.Price, cheap.Location, cheap.Amenities = "Budget Room", 40, "Porto", []string{"wifi"}
	pricey := validInput()
	pricey.Title, pricey.Price, pricey.Location, pricey.Amenities = "Palace Suite", 900, "Lisbon Centre", []string{"spa"}

	_, err := svc.Create(ctx, cheap)
	require.NoError(t, err)
	_, err = svc.Create(ctx, pricey)
	require.NoError(t, err)

	found, err := svc.Search(ctx, "palace")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Palace Suite", found[0].Title)

	found, err = svc.ListByLocation(ctx, "lisbon")
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = svc.ListByPriceRange(ctx, 0, 1000)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, "Budget Room", found[0].Title, "cheapest first")

	found, err = svc.ListByAmenity(ctx, "spa")
	require.NoError(t, err)
	require.Len(t, found, 1)

	page, err := svc.ListPaginated(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Palace Suite", page[0].Title, "newest first")
}

func TestUpdateIsPartialAndRevalidated(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	price := 99.0
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, 99.0, updated.Price)
	assert.Equal(t, created.Title, updated.Title)

	negative := -5.0
	_, err = svc.Update(ctx, created.ID, UpdateInput{Price: &negative})
	assertValidation(t, err, msgPriceNegative)

	_, err = svc.Update(ctx, 999, UpdateInput{Price: &price})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestRejectedChangesAreNotStored(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	negative := -5.0
	_, err = svc.Update(ctx, created.ID, UpdateInput{Title: strPtr("Renamed"), Price: &negative})
	assertValidation(t, err, msgPriceNegative)

	_, err = svc.RemoveAmenity(ctx, created.ID, "  ")
	assertValidation(t, err, msgAmenityEmpty)

	stored, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Title, stored.Title)
	assert.Equal(t, created.Price, stored.Price)
	assert.Equal(t, created.Amenities, stored.Amenities)

	_, err = svc.AddAmenity(ctx, 999, "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "a missing accommodation is reported before the amenity is checked")
}

func TestAmenityAddRemove(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	a, err := svc.AddAmenity(ctx, created.ID, " parking ")
	require.NoError(t, err)
	assert.Equal(t, []string{"wifi", "pool", "parking"}, a.Amenities)

	a, err = svc.AddAmenity(ctx, created.ID, "wifi")
	require.NoError(t, err)
	assert.Len(t, a.Amenities, 3, "adding an existing amenity is a no-op")

	a, err = svc.RemoveAmenity(ctx, created.ID, "pool")
	require.NoError(t, err)
	assert.Equal(t, []string{"wifi", "parking"}, a.Amenities)

	_, err = svc.AddAmenity(ctx, created.ID, "")
	assertValidation(t, err, msgAmenityEmpty)
}

func TestDeleteAndUsers(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput())
	require.NoError(t, err)

	repo.RecordSaver(created.ID, repository.Saver{UserID: 1, Username: "old", SelectedAt: time.Unix(100, 0)})
	repo.RecordSaver(created.ID, repository.Saver{UserID: 2, Username: "new", SelectedAt: time.Unix(200, 0)})

	savers, err := svc.ListUsers(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, savers, 2)
	assert.Equal(t, "new", savers[0].Username)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, apperr.Is(svc.Delete(ctx, created.ID), apperr.KindNotFound))

	_, err = svc.ListUsers(ctx, created.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
