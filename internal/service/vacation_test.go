package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wayfarelab/wayfare/internal/domain"
	apperrors "github.com/wayfarelab/wayfare/pkg/errors"
)

func newTestVacationService(
	vacations *mockVacationRepository,
	users *mockUserRepository,
	notifications *mockNotificationRepository,
) *VacationService {
	notifSvc := NewNotificationService(notifications, newTestUnreadCache(), newTestLogger())
	return NewVacationService(vacations, users, notifSvc, newTestEventProducer(), newTestLogger())
}

func TestVacationService_Create_AwardsExperience(t *testing.T) {
	vacations := new(mockVacationRepository)
	users := new(mockUserRepository)
	svc := newTestVacationService(vacations, users, new(mockNotificationRepository))

	vacations.On("Create", mock.Anything, mock.MatchedBy(func(v *domain.Vacation) bool {
		return v.OwnerID == "user-1" && v.Title == "Lisbon"
	})).Return(nil)
	users.On("AddExperience", mock.Anything, "user-1", domain.XPVacationCreated).Return(nil)

	v, err := svc.Create(context.Background(), "user-1", CreateVacationInput{Title: "Lisbon"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", v.OwnerID)
	users.AssertExpectations(t)
}

func TestVacationService_Create_DatesOutOfOrder(t *testing.T) {
	svc := newTestVacationService(new(mockVacationRepository), new(mockUserRepository), new(mockNotificationRepository))

	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)
	end := start.Add(-48 * time.Hour)

	_, err := svc.Create(context.Background(), "user-1", CreateVacationInput{
		Title:    "Backwards",
		StartsOn: &start,
		EndsOn:   &end,
	})
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

func TestVacationService_Get_NonMemberSeesNotFound(t *testing.T) {
	vacations := new(mockVacationRepository)
	svc := newTestVacationService(vacations, new(mockUserRepository), new(mockNotificationRepository))

	vacations.On("GetByID", mock.Anything, "vac-1").Return(&domain.Vacation{ID: "vac-1", OwnerID: "user-2"}, nil)
	vacations.On("GetMember", mock.Anything, "vac-1", "user-1").
		Return(nil, apperrors.NotFound("member", "user-1"))

	_, err := svc.Get(context.Background(), "user-1", "vac-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestVacationService_Get_PendingInviteeSeesNotFound(t *testing.T) {
	vacations := new(mockVacationRepository)
	svc := newTestVacationService(vacations, new(mockUserRepository), new(mockNotificationRepository))

	vacations.On("GetByID", mock.Anything, "vac-1").Return(&domain.Vacation{ID: "vac-1", OwnerID: "user-2"}, nil)
	vacations.On("GetMember", mock.Anything, "vac-1", "user-1").Return(&domain.VacationMember{
		VacationID: "vac-1",
		UserID:     "user-1",
		Status:     domain.MemberStatusInvited,
	}, nil)

	_, err := svc.Get(context.Background(), "user-1", "vac-1")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestVacationService_Invite_OnlyOwner(t *testing.T) {
	vacations := new(mockVacationRepository)
	svc := newTestVacationService(vacations, new(mockUserRepository), new(mockNotificationRepository))

	vacations.On("GetByID", mock.Anything, "vac-1").Return(&domain.Vacation{ID: "vac-1", OwnerID: "user-2"}, nil)

	_, err := svc.Invite(context.Background(), "user-1", "vac-1", "carol")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	vacations.AssertNotCalled(t, "AddMember", mock.Anything, mock.Anything)
}

func TestVacationService_Invite_NotifiesInvitee(t *testing.T) {
	vacations := new(mockVacationRepository)
	users := new(mockUserRepository)
	notifications := new(mockNotificationRepository)
	svc := newTestVacationService(vacations, users, notifications)

	vacations.On("GetByID", mock.Anything, "vac-1").
		Return(&domain.Vacation{ID: "vac-1", OwnerID: "user-1", Title: "Lisbon"}, nil)
	users.On("GetByUsertag", mock.Anything, "carol").Return(&domain.User{ID: "user-3", Usertag: "carol"}, nil)
	vacations.On("AddMember", mock.Anything, mock.MatchedBy(func(m *domain.VacationMember) bool {
		return m.UserID == "user-3" && m.Status == domain.MemberStatusInvited && m.Role == domain.MemberRoleMember
	})).Return(nil)
	notifications.On("Create", mock.Anything, mock.MatchedBy(func(n *domain.Notification) bool {
		return n.UserID == "user-3" && n.Type == domain.NotificationVacationInvite
	})).Return(nil)

	m, err := svc.Invite(context.Background(), "user-1", "vac-1", "carol")
	require.NoError(t, err)
	assert.Equal(t, domain.MemberStatusInvited, m.Status)
	notifications.AssertExpectations(t)
}

func TestVacationService_Invite_AlreadyMember(t *testing.T) {
	vacations := new(mockVacationRepository)
	users := new(mockUserRepository)
	svc := newTestVacationService(vacations, users, new(mockNotificationRepository))

	vacations.On("GetByID", mock.Anything, "vac-1").
		Return(&domain.Vacation{ID: "vac-1", OwnerID: "user-1"}, nil)
	users.On("GetByUsertag", mock.Anything, "carol").Return(&domain.User{ID: "user-3"}, nil)
	vacations.On("AddMember", mock.Anything, mock.Anything).
		Return(apperrors.Conflict("user is already a member"))

	_, err := svc.Invite(context.Background(), "user-1", "vac-1", "carol")
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
}

func TestVacationService_AcceptInvite_WrongStatus(t *testing.T) {
	vacations := new(mockVacationRepository)
	svc := newTestVacationService(vacations, new(mockUserRepository), new(mockNotificationRepository))

	vacations.On("GetMember", mock.Anything, "vac-1", "user-3").Return(&domain.VacationMember{
		VacationID: "vac-1",
		UserID:     "user-3",
		Status:     domain.MemberStatusAccepted,
	}, nil)

	err := svc.AcceptInvite(context.Background(), "user-3", "vac-1")
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	vacations.AssertNotCalled(t, "UpdateMemberStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestVacationService_RemoveMember_Rules(t *testing.T) {
	vacation := &domain.Vacation{ID: "vac-1", OwnerID: "owner-1"}

	t.Run("owner cannot be removed", func(t *testing.T) {
		vacations := new(mockVacationRepository)
		svc := newTestVacationService(vacations, new(mockUserRepository), new(mockNotificationRepository))
		vacations.On("GetByID", mock.Anything, "vac-1").Return(vacation, nil)

		err := svc.RemoveMember(context.Background(), "owner-1", "vac-1", "owner-1")
		assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	})

	t.Run("member cannot remove another member", func(t *testing.T) {
		vacations := new(mockVacationRepository)
		svc := newTestVacationService(vacations, new(mockUserRepository), new(mockNotificationRepository))
		vacations.On("GetByID", mock.Anything, "vac-1").Return(vacation, nil)

		err := svc.RemoveMember(context.Background(), "member-1", "vac-1", "member-2")
		assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	})

	t.Run("member may leave", func(t *testing.T) {
		vacations := new(mockVacationRepository)
		svc := newTestVacationService(vacations, new(mockUserRepository), new(mockNotificationRepository))
		vacations.On("GetByID", mock.Anything, "vac-1").Return(vacation, nil)
		vacations.On("GetMember", mock.Anything, "vac-1", "member-1").Return(&domain.VacationMember{
			VacationID: "vac-1", UserID: "member-1", Status: domain.MemberStatusAccepted,
		}, nil)
		vacations.On("RemoveMember", mock.Anything, "vac-1", "member-1").Return(nil)

		err := svc.RemoveMember(context.Background(), "member-1", "vac-1", "member-1")
		assert.NoError(t, err)
		vacations.AssertExpectations(t)
	})
}
