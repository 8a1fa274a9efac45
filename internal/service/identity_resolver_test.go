package service

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/noah-isme/vetted-notifier/internal/models"
)

func TestResolveIdentityExample(t *testing.T) {
	user := &models.AppUser{Email: "a@x.com", UserMetadata: datatypes.JSONMap{}}
	profile := &models.TalentProfile{FirstName: "John", LastName: "Doe", Email: "j@x.com"}

	identity := ResolveIdentity(user, profile)
	require.Equal(t, "John Doe", identity.Name)
	require.Equal(t, "a@x.com", identity.Email)
	require.Equal(t, string(IdentitySourceProfile), identity.NameSource)
	require.Equal(t, string(IdentitySourceUser), identity.EmailSource)
}

func TestResolveIdentityPrefersUserFullNameVerbatim(t *testing.T) {
	user := &models.AppUser{Email: "a@x.com", UserMetadata: datatypes.JSONMap{"full_name": "  María  José "}}
	profile := &models.TalentProfile{FirstName: "John", LastName: "Doe", Email: "j@x.com"}

	identity := ResolveIdentity(user, profile)
	require.Equal(t, "  María  José ", identity.Name)
	require.Equal(t, "a@x.com", identity.Email)
}

func TestResolveIdentityDefaults(t *testing.T) {
	cases := []struct {
		name    string
		user    *models.AppUser
		profile *models.TalentProfile
	}{
		{name: "nothing"},
		{name: "empty user", user: &models.AppUser{}},
		{name: "empty profile", profile: &models.TalentProfile{}},
		{name: "blank values", user: &models.AppUser{Email: "  ", UserMetadata: datatypes.JSONMap{"full_name": " "}}, profile: &models.TalentProfile{FirstName: " ", Email: ""}},
		{name: "non string full name", user: &models.AppUser{UserMetadata: datatypes.JSONMap{"full_name": 42}}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			identity := ResolveIdentity(tc.user, tc.profile)
			require.Equal(t, DefaultCandidateName, identity.Name)
			require.Equal(t, DefaultCandidateEmail, identity.Email)
			require.Equal(t, string(IdentitySourceDefault), identity.NameSource)
			require.Equal(t, string(IdentitySourceDefault), identity.EmailSource)
		})
	}
}

func TestResolveIdentityProfileFillsMissingFields(t *testing.T) {
	profile := &models.TalentProfile{FirstName: "John", LastName: "Doe", Email: "j@x.com"}

	identity := ResolveIdentity(nil, profile)
	require.Equal(t, "John Doe", identity.Name)
	require.Equal(t, "j@x.com", identity.Email)
}

func TestResolveIdentityPartialProfileName(t *testing.T) {
	identity := ResolveIdentity(nil, &models.TalentProfile{FirstName: "Cher"})
	require.Equal(t, "Cher", identity.Name)

	identity = ResolveIdentity(nil, &models.TalentProfile{LastName: "Doe"})
	require.Equal(t, "Doe", identity.Name)
}

func TestIdentityResolverCustomOrder(t *testing.T) {
	user := &models.AppUser{Email: "a@x.com", UserMetadata: datatypes.JSONMap{"full_name": "Ada"}}
	profile := &models.TalentProfile{FirstName: "John", LastName: "Doe", Email: "j@x.com"}

	profileFirst := NewIdentityResolver(IdentitySourceProfile, IdentitySourceUser)
	identity := profileFirst.Resolve(user, profile)
	require.Equal(t, "John Doe", identity.Name)
	require.Equal(t, "j@x.com", identity.Email)

	userOnly := NewIdentityResolver(IdentitySourceUser)
	identity = userOnly.Resolve(nil, profile)
	require.Equal(t, DefaultCandidateName, identity.Name)
	require.Equal(t, []IdentitySource{IdentitySourceUser}, userOnly.Sources())
}

func TestResolveIdentityKeepsProfileNamePartsVerbatim(t *testing.T) {
	profile := &models.TalentProfile{FirstName: " Mary Ann", LastName: "Doe "}

	identity := ResolveIdentity(nil, profile)
	require.Equal(t, " Mary Ann Doe ", identity.Name)
	require.Equal(t, string(IdentitySourceProfile), identity.NameSource)

	lastOnly := ResolveIdentity(nil, &models.TalentProfile{FirstName: "  ", LastName: "Doe "})
	require.Equal(t, "Doe ", lastOnly.Name)
}
