package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/drl-go-api/internal/models"
)

func TestAuthorityPrecedence(t *testing.T) {
	classA, classB := uint(100), uint(200)
	students := newMemoryStudentRepo(
		models.Student{ID: 1, Name: "An", Code: "SV001", ClassID: &classA},
		models.Student{ID: 2, Name: "Binh", Code: "SV002", ClassID: &classB},
	)
	resolver := NewAuthorityResolver(students)

	activity := models.Activity{ID: 7, OwnerID: 10, ClassID: &classA}
	regClassA := &models.Registration{ID: 1, ActivityID: 7, StudentID: 1}
	regClassB := &models.Registration{ID: 2, ActivityID: 7, StudentID: 2}

	cases := []struct {
		name         string
		principal    models.Principal
		registration *models.Registration
		action       Action
		want         bool
	}{
		{"admin always acts", models.Principal{ID: 99, Role: models.RoleAdmin}, regClassA, ActionApprove, true},
		{"admin issues qr", models.Principal{ID: 99, Role: models.RoleAdmin}, nil, ActionIssueQR, true},
		{"owner teacher approves", models.Principal{ID: 10, Role: models.RoleTeacher}, regClassA, ActionApprove, true},
		{"owner teacher issues qr", models.Principal{ID: 10, Role: models.RoleTeacher}, nil, ActionIssueQR, true},
		{"other teacher denied", models.Principal{ID: 11, Role: models.RoleTeacher}, regClassA, ActionApprove, false},
		{"monitor approves own class", models.Principal{ID: 3, Role: models.RoleMonitor, ClassID: &classA}, regClassA, ActionApprove, true},
		{"monitor rejects own class", models.Principal{ID: 3, Role: models.RoleMonitor, ClassID: &classA}, regClassA, ActionReject, true},
		{"monitor denied across classes", models.Principal{ID: 3, Role: models.RoleMonitor, ClassID: &classA}, regClassB, ActionApprove, false},
		{"monitor denied foreign activity scope", models.Principal{ID: 4, Role: models.RoleMonitor, ClassID: &classB}, regClassB, ActionApprove, false},
		{"monitor cannot cancel", models.Principal{ID: 3, Role: models.RoleMonitor, ClassID: &classA}, regClassA, ActionCancel, false},
		{"monitor cannot issue qr", models.Principal{ID: 3, Role: models.RoleMonitor, ClassID: &classA}, nil, ActionIssueQR, false},
		{"student cancels own", models.Principal{ID: 1, Role: models.RoleStudent}, regClassA, ActionCancel, true},
		{"student cannot cancel others", models.Principal{ID: 2, Role: models.RoleStudent}, regClassA, ActionCancel, false},
		{"student cannot approve own", models.Principal{ID: 1, Role: models.RoleStudent}, regClassA, ActionApprove, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolver.CanAct(context.Background(), tc.principal, tc.registration, activity, tc.action)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestAuthorityMonitorUnknownStudentDenied(t *testing.T) {
	classA := uint(100)
	resolver := NewAuthorityResolver(newMemoryStudentRepo())

	activity := models.Activity{ID: 7, OwnerID: 10, ClassID: &classA}
	registration := &models.Registration{ID: 1, ActivityID: 7, StudentID: 42}
	monitor := models.Principal{ID: 3, Role: models.RoleMonitor, ClassID: &classA}

	got, err := resolver.CanAct(context.Background(), monitor, registration, activity, ActionApprove)
	require.NoError(t, err)
	require.False(t, got)
}

func TestAuthorityVisibility(t *testing.T) {
	classA := uint(100)
	resolver := NewAuthorityResolver(newMemoryStudentRepo())

	activity := models.Activity{ID: 7, OwnerID: 10, ClassID: &classA}
	registration := &models.Registration{ID: 1, ActivityID: 7, StudentID: 1}

	require.True(t, resolver.CanView(models.Principal{ID: 99, Role: models.RoleAdmin}, nil, activity))
	require.True(t, resolver.CanView(models.Principal{ID: 10, Role: models.RoleTeacher}, nil, activity))
	require.False(t, resolver.CanView(models.Principal{ID: 11, Role: models.RoleTeacher}, nil, activity))
	require.True(t, resolver.CanView(models.Principal{ID: 3, Role: models.RoleMonitor, ClassID: &classA}, nil, activity))
	require.True(t, resolver.CanView(models.Principal{ID: 1, Role: models.RoleStudent}, registration, activity))
	require.False(t, resolver.CanView(models.Principal{ID: 2, Role: models.RoleStudent}, registration, activity))
	require.False(t, resolver.CanView(models.Principal{ID: 2, Role: models.RoleStudent}, nil, activity))
}
