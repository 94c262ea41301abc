package activities

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/pkg/registry"
)

var (
	propActivities = []string{"Chess Club", "Tennis", "Basketball", "Robotics"} // Robotics is not seeded
	propEmails     = []string{"michael@mergington.edu", "a@mergington.edu", "b@mergington.edu", "c@mergington.edu"}
)

func TestProperty_RosterMatchesModel(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed, err := registry.Default()
		require.NoError(rt, err)
		r, err := NewRegistry(seed)
		require.NoError(rt, err)
		ctx := context.Background()

		// model mirrors the expected roster of every seeded activity
		model := map[string][]string{}
		for name, a := range r.List(ctx) {
			model[name] = slices.Clone(a.Participants)
		}

		steps := rapid.IntRange(1, 60).Draw(rt, "steps")
		for i := 0; i < steps; i++ {
			name := rapid.SampledFrom(propActivities).Draw(rt, "activity")
			email := rapid.SampledFrom(propEmails).Draw(rt, "email")
			signup := rapid.Bool().Draw(rt, "signup")

			roster, exists := model[name]
			if signup {
				_, err := r.Signup(ctx, name, email)
				switch {
				case !exists:
					require.True(rt, errors.Is(err, apperrors.ErrActivityNotFound))
				case slices.Contains(roster, email):
					require.True(rt, errors.Is(err, apperrors.ErrAlreadySignedUp))
				default:
					require.NoError(rt, err)
					model[name] = append(roster, email)
				}
			} else {
				_, err := r.Unregister(ctx, name, email)
				switch {
				case !exists:
					require.True(rt, errors.Is(err, apperrors.ErrActivityNotFound))
				case !slices.Contains(roster, email):
					require.True(rt, errors.Is(err, apperrors.ErrNotSignedUp))
				default:
					require.NoError(rt, err)
					idx := slices.Index(roster, email)
					model[name] = slices.Delete(slices.Clone(roster), idx, idx+1)
				}
			}

			if exists {
				got, err := r.Get(ctx, name)
				require.NoError(rt, err)
				require.Equal(rt, model[name], got.Participants)
			}
		}

		for name, a := range r.List(ctx) {
			seen := map[string]bool{}
			for _, p := range a.Participants {
				require.False(rt, seen[p], "duplicate %s in %s", p, name)
				seen[p] = true
			}
		}
	})
}

func TestProperty_SignupThenUnregisterRestoresRoster(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		seed, err := registry.Default()
		require.NoError(rt, err)
		r, err := NewRegistry(seed)
		require.NoError(rt, err)
		ctx := context.Background()

		name := rapid.SampledFrom(r.Names()).Draw(rt, "activity")
		email := rapid.StringMatching(`[a-z]{1,8}\.new@mergington\.edu`).Draw(rt, "email")

		before, err := r.Get(ctx, name)
		require.NoError(rt, err)

		_, err = r.Signup(ctx, name, email)
		require.NoError(rt, err)
		_, err = r.Unregister(ctx, name, email)
		require.NoError(rt, err)

		after, err := r.Get(ctx, name)
		require.NoError(rt, err)
		require.Equal(rt, before.Participants, after.Participants)
	})
}
