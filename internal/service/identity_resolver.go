package service

import (
	"strings"

	"github.com/noah-isme/vetted-notifier/internal/dto"
	"github.com/noah-isme/vetted-notifier/internal/models"
)

const (
	// DefaultCandidateName is used when no source yields a name.
	DefaultCandidateName = "Unknown Candidate"
	// DefaultCandidateEmail is used when no source yields an email.
	DefaultCandidateEmail = "unknown@example.com"
)

// IdentitySource tags one step of the name/email fallback chain.
type IdentitySource string

const (
	// IdentitySourceUser reads user_metadata.full_name and the account email.
	IdentitySourceUser IdentitySource = "user"
	// IdentitySourceProfile reads first/last name and email from the talent profile.
	IdentitySourceProfile IdentitySource = "profile"
	// IdentitySourceDefault marks a field that fell back to its literal default.
	IdentitySourceDefault IdentitySource = "default"
)

// IdentityResolver walks an ordered list of sources. For each field the first
// source yielding a non-blank value wins; fields nobody fills keep their defaults.
type IdentityResolver struct {
	sources []IdentitySource
}

// NewIdentityResolver builds a resolver over sources, in priority order.
func NewIdentityResolver(sources ...IdentitySource) IdentityResolver {
	return IdentityResolver{sources: append([]IdentitySource(nil), sources...)}
}

// DefaultIdentityResolver consults the user account first, then the talent profile.
func DefaultIdentityResolver() IdentityResolver {
	return NewIdentityResolver(IdentitySourceUser, IdentitySourceProfile)
}

// Sources returns a copy of the resolver's chain.
func (r IdentityResolver) Sources() []IdentitySource {
	return append([]IdentitySource(nil), r.sources...)
}

// Resolve never fails; either argument may be nil.
func (r IdentityResolver) Resolve(user *models.AppUser, profile *models.TalentProfile) dto.Identity {
	identity := dto.Identity{
		Name:        DefaultCandidateName,
		Email:       DefaultCandidateEmail,
		NameSource:  string(IdentitySourceDefault),
		EmailSource: string(IdentitySourceDefault),
	}

	nameResolved, emailResolved := false, false
	for _, source := range r.sources {
		if nameResolved && emailResolved {
			break
		}

		name, email := source.candidate(user, profile)
		if !nameResolved && name != "" {
			identity.Name = name
			identity.NameSource = string(source)
			nameResolved = true
		}
		if !emailResolved && email != "" {
			identity.Email = email
			identity.EmailSource = string(source)
			emailResolved = true
		}
	}

	return identity
}

func (s IdentitySource) candidate(user *models.AppUser, profile *models.TalentProfile) (string, string) {
	switch s {
	case IdentitySourceUser:
		if user == nil {
			return "", ""
		}
		return user.FullName(), nonBlank(user.Email)
	case IdentitySourceProfile:
		if profile == nil {
			return "", ""
		}
		return profile.DisplayName(), nonBlank(profile.Email)
	default:
		return "", ""
	}
}

// ResolveIdentity applies the default chain: user, then profile, then literal defaults.
func ResolveIdentity(user *models.AppUser, profile *models.TalentProfile) dto.Identity {
	return DefaultIdentityResolver().Resolve(user, profile)
}

func nonBlank(value string) string {
	if strings.TrimSpace(value) == "" {
		return ""
	}
	return value
}
