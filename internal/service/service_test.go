package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"travelplanner/internal/auth"
	"travelplanner/internal/config"
	"travelplanner/internal/database"
	"travelplanner/internal/genai"
	"travelplanner/internal/logger"
	"travelplanner/internal/model"
	"travelplanner/internal/otp"
	"travelplanner/internal/repository"
	"travelplanner/internal/search"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	_, err = database.Migrate(db)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr[T any](v T) *T { return &v }

func newUser(t *testing.T, users *repository.UserRepository, username, email string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: email, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestPlanServiceDuration(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := newUser(t, repository.NewUserRepository(db), "alice", "alice@example.com")
	svc := NewPlanService(repository.NewPlanRepository(db))

	plan, err := svc.Create(ctx, owner.ID, PlanInput{
		Destination: ptr("Wayanad"),
		StartDate:   ptr("2025-02-27"),
		EndDate:     ptr("2025-03-02"),
	})
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Duration)
	assert.Equal(t, model.PlanStatusDraft, plan.Status)

	plan, err = svc.Update(ctx, owner.ID, plan.ID, PlanInput{EndDate: ptr("2025-03-30"), Status: ptr(" CANCELLED ")}, true)
	require.NoError(t, err)
	assert.Equal(t, 3, plan.Duration)
	assert.Equal(t, model.PlanStatusCancelled, plan.Status)

	stored, err := svc.Get(ctx, owner.ID, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Duration)
	assert.Equal(t, "2025-03-30", stored.EndDate.String())
}

func TestPlanServiceValidation(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	owner := newUser(t, repository.NewUserRepository(db), "alice", "alice@example.com")
	svc := NewPlanService(repository.NewPlanRepository(db))

	long := make([]byte, 256)
	for i := range long {
		long[i] = 'a'
	}
	tests := []struct {
		name  string
		in    PlanInput
		field string
		msg   string
	}{
		{"end before start", PlanInput{Destination: ptr("X"), StartDate: ptr("2025-01-02"), EndDate: ptr("2025-01-01")}, "end_date", msgEndBeforeStart},
		{"bad status", PlanInput{Destination: ptr("X"), StartDate: ptr("2025-01-01"), EndDate: ptr("2025-01-01"), Status: ptr("Planned")}, "status", `"Planned" is not a valid choice.`},
		{"negative budget", PlanInput{Destination: ptr("X"), StartDate: ptr("2025-01-01"), EndDate: ptr("2025-01-01"), Budget: ptr(int64(-5))}, "budget", msgNonNegative},
		{"long destination", PlanInput{Destination: ptr(string(long)), StartDate: ptr("2025-01-01"), EndDate: ptr("2025-01-01")}, "destination", msgMaxLength255},
		{"bad date", PlanInput{Destination: ptr("X"), StartDate: ptr("2025-13-01"), EndDate: ptr("2025-01-01")}, "start_date", msgDateFormat},
		{"missing destination", PlanInput{StartDate: ptr("2025-01-01"), EndDate: ptr("2025-01-01")}, "destination", msgRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, owner.ID, tt.in)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.msg, verr.Fields[tt.field])
		})
	}

	plans, err := svc.List(ctx, owner.ID)
	require.NoError(t, err)
	assert.Empty(t, plans)
}

func TestPlanServiceOwnership(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	alice := newUser(t, users, "alice", "alice@example.com")
	bob := newUser(t, users, "bob", "bob@example.com")
	svc := NewPlanService(repository.NewPlanRepository(db))

	plan, err := svc.Create(ctx, alice.ID, PlanInput{Destination: ptr("Kochi"), StartDate: ptr("2025-01-01"), EndDate: ptr("2025-01-02")})
	require.NoError(t, err)

	_, err = svc.Get(ctx, bob.ID, plan.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, bob.ID, plan.ID, PlanInput{Notes: ptr("mine now")}, true)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, bob.ID, plan.ID), ErrNotFound)
	assert.NoError(t, svc.Delete(ctx, alice.ID, plan.ID))
}

func TestAuthServiceSession(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	svc := NewAuthService(users, repository.NewTokenRepository(db), auth.NewPasswordHasher(bcrypt.MinCost),
		auth.NewTokenIssuer("secret", time.Hour, time.Hour), logger.Discard())

	session, err := svc.Register(ctx, RegisterInput{Username: " alice ", Email: "alice@example.com", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "alice", session.User.Username)
	assert.NotEqual(t, "pw", session.User.PasswordHash)

	_, err = svc.Register(ctx, RegisterInput{Username: "bob", Email: "not-an-email", Password: "pw"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, msgInvalidEmail, verr.Fields["email"])

	profiles := NewUserService(users, auth.NewPasswordHasher(bcrypt.MinCost))
	bad := "alice@"
	_, err = profiles.UpdateProfile(ctx, session.User.ID, ProfileUpdate{Email: &bad})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, msgInvalidEmail, verr.Fields["email"])

	user, claims, err := svc.Authenticate(ctx, session.Tokens.Access.Value)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, user.ID)

	_, _, err = svc.Authenticate(ctx, session.Tokens.Refresh.Value)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, svc.Logout(ctx, claims, session.Tokens.Refresh.Value))
	_, _, err = svc.Authenticate(ctx, session.Tokens.Access.Value)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = svc.Refresh(ctx, session.Tokens.Refresh.Value)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Login(ctx, "alice", "nope")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

type recordingMailer struct {
	to, subject, body string
	err               error
}

func (m *recordingMailer) Send(_ context.Context, to, subject, body string) error {
	m.to, m.subject, m.body = to, subject, body
	return m.err
}

func TestPasswordResetService(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := repository.NewUserRepository(db)
	newUser(t, users, "alice", "user@example.com")

	kv, err := database.OpenKV("", logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { kv.Close() })
	codes := otp.NewStore(kv, "secret", time.Minute)
	mailer := &recordingMailer{}
	svc := NewPasswordResetService(users, auth.NewPasswordHasher(bcrypt.MinCost), codes, mailer, logger.Discard())

	require.NoError(t, svc.Forgot(ctx, "user@example.com"))
	assert.Equal(t, "user@example.com", mailer.to)
	assert.Equal(t, "Password Reset OTP", mailer.subject)
	code := mailer.body[len(mailer.body)-otp.CodeLength:]
	assert.Equal(t, "Your OTP for password reset is: "+code, mailer.body)

	require.NoError(t, svc.Verify(ctx, "user@example.com", code))
	err = svc.Reset(ctx, ResetInput{Email: "user@example.com", NewPassword: "a", ConfirmPassword: "a"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	require.NoError(t, svc.Reset(ctx, ResetInput{Email: "user@example.com", OTP: code, NewPassword: "a", ConfirmPassword: "a"}))
	assert.ErrorIs(t, svc.Verify(ctx, "user@example.com", code), ErrInvalidOTP)
	assert.ErrorIs(t, svc.Reset(ctx, ResetInput{Email: "user@example.com", OTP: code, NewPassword: "b", ConfirmPassword: "b"}), ErrInvalidOTP)

	mailer.err = errors.New("smtp down")
	assert.Error(t, svc.Forgot(ctx, "user@example.com"))
	assert.ErrorIs(t, svc.Verify(ctx, "user@example.com", code), ErrInvalidOTP)
}

type countingMaps struct {
	calls atomic.Int32
}

func (m *countingMaps) MapLink(_ context.Context, name string) string {
	m.calls.Add(1)
	if name == "Munnar" {
		return ""
	}
	return "link:" + name
}

type echoDescriber struct{}

func (echoDescriber) Describe(_ context.Context, place, interests string) (genai.Description, error) {
	if place == "Kovalam" {
		return genai.Description{Text: genai.FallbackText(place), Source: genai.SourceFallback}, errors.New("quota")
	}
	return genai.Description{Text: place + " for " + interests, Source: genai.SourceGenerated}, nil
}

func testRanker(t *testing.T) *search.Ranker {
	t.Helper()
	ix, err := search.BuildIndex([]model.Place{
		{City: "Varkala", BestTime: "Oct-Mar", Description: "Varkala has a beautiful beach with cliffs overlooking the sea."},
		{City: "Munnar", BestTime: "Sep-May", Description: "Munnar is famous for tea plantations and misty hills near the beach."},
		{City: "Kovalam", BestTime: "Sep-Mar", Description: "Kovalam offers a sunset view over the beach and lighthouse."},
	}, search.NewPreprocessor(search.IdentityLemmatizer), 5000)
	require.NoError(t, err)
	return search.NewRanker(ix)
}

func TestSearchServiceEnrichesInRankOrder(t *testing.T) {
	pool, err := ants.NewPool(4)
	require.NoError(t, err)
	defer pool.Release()

	ranker := testRanker(t)
	maps := &countingMaps{}
	svc := NewSearchService(ranker, maps, echoDescriber{}, pool, logger.Discard())

	recs, err := svc.Search(context.Background(), "  beach sunset ", true)
	require.NoError(t, err)

	ids := ranker.Rank("beach sunset")
	require.Len(t, recs, len(ids))
	for i, id := range ids {
		assert.Equal(t, ranker.Index().Place(id), recs[i].Place)
	}
	assert.Equal(t, "Kovalam", recs[0].Place.City)
	assert.EqualValues(t, len(recs), maps.calls.Load())

	byCity := map[string]model.Recommendation{}
	for _, r := range recs {
		byCity[r.Place.City] = r
	}
	assert.Equal(t, "link:Varkala", byCity["Varkala"].MapLink)
	assert.Equal(t, "", byCity["Munnar"].MapLink)
	assert.Equal(t, &model.Blurb{Text: "Varkala for beach sunset", Generated: true}, byCity["Varkala"].Blurb)
	assert.Equal(t, &model.Blurb{Text: genai.FallbackText("Kovalam"), Generated: false}, byCity["Kovalam"].Blurb)
}

func TestSearchServiceErrors(t *testing.T) {
	svc := NewSearchService(nil, nil, nil, nil, logger.Discard())
	assert.False(t, svc.Available())

	_, err := svc.Search(context.Background(), "   ", false)
	assert.ErrorIs(t, err, ErrEmptyQuery)
	_, err = svc.Search(context.Background(), "beach", false)
	assert.ErrorIs(t, err, ErrIndexUnavailable)
}

func TestSearchServiceWithoutPoolOrDescriber(t *testing.T) {
	svc := NewSearchService(testRanker(t), nil, nil, nil, logger.Discard())

	recs, err := svc.Search(context.Background(), "lighthouse", true)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "", recs[0].MapLink)
	assert.Equal(t, genai.FallbackText("Kovalam"), recs[0].Blurb.Text)

	recs, err = svc.Search(context.Background(), "lighthouse", false)
	require.NoError(t, err)
	assert.Nil(t, recs[0].Blurb)
}

func TestValidationErrorMessage(t *testing.T) {
	assert.Equal(t, "plain", Invalid("plain").Error())
	err := &ValidationError{Fields: map[string]string{"b": "two", "a": "one"}}
	assert.Equal(t, "a: one; b: two", err.Error())
	assert.Equal(t, "x", FieldError("f", "x").Fields["f"])
}

func TestValidEmail(t *testing.T) {
	for _, email := range []string{"user@example.com", "first.last+tag@mail.example.org"} {
		assert.True(t, validEmail(email), email)
	}
	for _, email := range []string{"", "not-an-email", "alice@", "@example.com"} {
		assert.False(t, validEmail(email), email)
	}
}
