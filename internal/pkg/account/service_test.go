package account

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ManuelReschke/TenantFox/app/models"
	"github.com/ManuelReschke/TenantFox/internal/pkg/apperror"
	"github.com/ManuelReschke/TenantFox/internal/pkg/database"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := database.NewTestDB(t)
	return NewService(db, nil, nil), db
}

func register(t *testing.T, svc *Service, name, email string) *Session {
	t.Helper()
	session, err := svc.Register(context.Background(), RegisterInput{
		OrganizationName: name,
		Email:            email,
		Password:         "correct-horse",
		FullName:         "Owner " + name,
	})
	require.NoError(t, err)
	return session
}

func TestRegister(t *testing.T) {
	svc, db := newTestService(t)

	session := register(t, svc, "Acme Corp", "Owner@Acme.test")
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, "acme-corp", session.Organization.Slug)
	assert.Len(t, session.Organization.UUID, 36)
	assert.Equal(t, "owner@acme.test", session.User.Email)
	assert.True(t, session.User.IsOwner())
	assert.Equal(t, "starter", session.Subscription.Plan)
	assert.Equal(t, models.BillingStatusTrialing, session.Subscription.Status)

	var tokens int64
	require.NoError(t, db.Model(&models.APIToken{}).Count(&tokens).Error)
	assert.Equal(t, int64(1), tokens)

	var stored models.APIToken
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, models.HashAccessToken(session.Token), stored.TokenHash)
	assert.NotContains(t, stored.TokenHash, session.Token)
}

func TestRegister_Conflicts(t *testing.T) {
	svc, _ := newTestService(t)
	register(t, svc, "Acme", "owner@acme.test")

	_, err := svc.Register(context.Background(), RegisterInput{
		OrganizationName: "Other", Email: "OWNER@acme.test", Password: "correct-horse", FullName: "Someone",
	})
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))

	_, err = svc.Register(context.Background(), RegisterInput{
		OrganizationName: "Acme", Email: "new@acme.test", Password: "correct-horse", FullName: "Someone",
	})
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))
}

func TestRegister_Validation(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Register(context.Background(), RegisterInput{OrganizationName: "Acme", Email: "not-an-email", Password: "correct-horse", FullName: "Owner"})
	require.Error(t, err)
	assert.Equal(t, apperror.ValidationFailed, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "email")

	_, err = svc.Register(context.Background(), RegisterInput{OrganizationName: "Acme", Email: "a@acme.test", Password: "short", FullName: "Owner"})
	assert.Equal(t, apperror.ValidationFailed, apperror.KindOf(err))

	_, err = svc.Register(context.Background(), RegisterInput{OrganizationName: "Acme", OrganizationSlug: "Not A Slug", Email: "a@acme.test", Password: "correct-horse", FullName: "Owner"})
	assert.Equal(t, apperror.ValidationFailed, apperror.KindOf(err))
}

func TestAuthenticate(t *testing.T) {
	svc, db := newTestService(t)
	session := register(t, svc, "Acme", "owner@acme.test")

	p, err := svc.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, session.User.ID, p.User.ID)
	assert.Equal(t, session.Organization.ID, p.Organization.ID)
	assert.Equal(t, "starter", p.Subscription.Plan)

	var token models.APIToken
	require.NoError(t, db.First(&token, p.Token.ID).Error)
	assert.NotNil(t, token.LastUsedAt)

	for _, raw := range []string{"", "   ", "tfx_unknown"} {
		_, err := svc.Authenticate(context.Background(), raw)
		assert.Equal(t, apperror.AuthenticationFailed, apperror.KindOf(err), "token %q", raw)
	}
}

func TestAuthenticate_RecreatesMissingSubscription(t *testing.T) {
	svc, db := newTestService(t)
	session := register(t, svc, "Acme", "owner@acme.test")
	require.NoError(t, db.Where("organization_id = ?", session.Organization.ID).Delete(&models.Subscription{}).Error)

	p, err := svc.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)
	assert.Equal(t, "starter", p.Subscription.Plan)
	assert.Equal(t, models.BillingStatusTrialing, p.Subscription.Status)
}

func TestLogin(t *testing.T) {
	svc, _ := newTestService(t)
	session := register(t, svc, "Acme", "owner@acme.test")

	login, err := svc.Login(context.Background(), LoginInput{Email: "Owner@Acme.test", Password: "correct-horse"})
	require.NoError(t, err)
	assert.NotEqual(t, session.Token, login.Token)

	// both tokens stay valid
	_, err = svc.Authenticate(context.Background(), session.Token)
	assert.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), login.Token)
	assert.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginInput{Email: "owner@acme.test", Password: "wrong-password"})
	assert.Equal(t, apperror.AuthenticationFailed, apperror.KindOf(err))
	_, err = svc.Login(context.Background(), LoginInput{Email: "ghost@acme.test", Password: "whatever"})
	assert.Equal(t, apperror.AuthenticationFailed, apperror.KindOf(err))
}

func TestRotateToken(t *testing.T) {
	svc, _ := newTestService(t)
	session := register(t, svc, "Acme", "owner@acme.test")

	p, err := svc.Authenticate(context.Background(), session.Token)
	require.NoError(t, err)

	fresh, err := svc.RotateToken(context.Background(), p)
	require.NoError(t, err)
	assert.NotEqual(t, session.Token, fresh)

	_, err = svc.Authenticate(context.Background(), session.Token)
	assert.Equal(t, apperror.AuthenticationFailed, apperror.KindOf(err), "old token must be revoked")
	_, err = svc.Authenticate(context.Background(), fresh)
	assert.NoError(t, err)

	// rotating the same (now revoked) token again fails
	_, err = svc.RotateToken(context.Background(), p)
	assert.Equal(t, apperror.AuthenticationFailed, apperror.KindOf(err))
}

func TestCreateMember_EnforcesUserLimit(t *testing.T) {
	svc, db := newTestService(t)
	session := register(t, svc, "Acme", "owner@acme.test")
	orgID := session.Organization.ID

	// starter allows 5 users, the owner is the first
	for i := 1; i < 5; i++ {
		_, err := svc.CreateMember(context.Background(), orgID, MemberInput{
			Email: fmt.Sprintf("member%d@acme.test", i), FullName: "Member",
		})
		require.NoError(t, err)
	}

	_, err := svc.CreateMember(context.Background(), orgID, MemberInput{Email: "sixth@acme.test", FullName: "Member"})
	require.Error(t, err)
	assert.Equal(t, apperror.LimitExceeded, apperror.KindOf(err))
	assert.Contains(t, err.Error(), "(5)")

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("organization_id = ?", orgID).Count(&count).Error)
	assert.Equal(t, int64(5), count, "rejected creation must not persist")

	// upgrading raises the limit
	require.NoError(t, db.Model(&models.Subscription{}).Where("organization_id = ?", orgID).Update("plan", "growth").Error)
	_, err = svc.CreateMember(context.Background(), orgID, MemberInput{Email: "sixth@acme.test", FullName: "Member"})
	assert.NoError(t, err)
}

func TestCreateMember_ConcurrentRequestsRespectLimit(t *testing.T) {
	svc, db := newTestService(t)
	session := register(t, svc, "Acme", "owner@acme.test")
	orgID := session.Organization.ID

	const attempts = 10
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.CreateMember(context.Background(), orgID, MemberInput{
				Email: fmt.Sprintf("racer%d@acme.test", i), FullName: "Racer",
			})
		}(i)
	}
	wg.Wait()

	var count int64
	require.NoError(t, db.Model(&models.User{}).Where("organization_id = ?", orgID).Count(&count).Error)
	assert.Equal(t, int64(5), count)
}

func TestCreateMember_DuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	acme := register(t, svc, "Acme", "owner@acme.test")
	register(t, svc, "Globex", "owner@globex.test")

	_, err := svc.CreateMember(context.Background(), acme.Organization.ID, MemberInput{Email: "owner@globex.test", FullName: "Dup"})
	assert.Equal(t, apperror.Conflict, apperror.KindOf(err))
}

func TestListAndDeleteMembers(t *testing.T) {
	svc, _ := newTestService(t)
	acme := register(t, svc, "Acme", "owner@acme.test")
	globex := register(t, svc, "Globex", "owner@globex.test")
	ctx := context.Background()

	member, err := svc.CreateMember(ctx, acme.Organization.ID, MemberInput{Email: "m@acme.test", FullName: "Member", Password: "member-pass"})
	require.NoError(t, err)
	assert.Equal(t, models.ROLE_MEMBER, member.Role)

	users, err := svc.ListMembers(ctx, acme.Organization.ID)
	require.NoError(t, err)
	assert.Len(t, users, 2)

	// tenant isolation: another organization's user is not found
	err = svc.DeleteMember(ctx, globex.Organization.ID, globex.User.ID, member.ID)
	assert.Equal(t, apperror.NotFound, apperror.KindOf(err))

	err = svc.DeleteMember(ctx, acme.Organization.ID, acme.User.ID, acme.User.ID)
	assert.Equal(t, apperror.ValidationFailed, apperror.KindOf(err))

	login, err := svc.Login(ctx, LoginInput{Email: "m@acme.test", Password: "member-pass"})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteMember(ctx, acme.Organization.ID, acme.User.ID, member.ID))
	_, err = svc.Authenticate(ctx, login.Token)
	assert.Equal(t, apperror.AuthenticationFailed, apperror.KindOf(err))

	users, err = svc.ListMembers(ctx, acme.Organization.ID)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestDeleteMember_OwnersAreProtected(t *testing.T) {
	svc, _ := newTestService(t)
	acme := register(t, svc, "Acme", "owner@acme.test")

	second, err := svc.CreateMember(context.Background(), acme.Organization.ID, MemberInput{Email: "co@acme.test", FullName: "Co Owner", Role: models.ROLE_OWNER})
	require.NoError(t, err)

	err = svc.DeleteMember(context.Background(), acme.Organization.ID, acme.User.ID, second.ID)
	assert.Equal(t, apperror.AuthorizationDenied, apperror.KindOf(err))
}
