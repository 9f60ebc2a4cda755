package workflow

import (
	"testing"

	"example.com/fieldops/internal/models"

	"github.com/stretchr/testify/require"
)

func TestSetCompanyClearsDownstreamSelections(t *testing.T) {
	wf := New(models.ProcessShipping)
	wf.SetCompany(&models.Company{ID: 1, Name: "Acme"})
	wf.SetGroup(&models.Group{ID: 10, Name: "North"})
	wf.SetLocation(&models.Location{ID: 100, Name: "Dock 1"})

	wf.SetCompany(&models.Company{ID: 2, Name: "Globex"})

	require.Equal(t, 2, wf.Company.ID)
	require.Nil(t, wf.Group)
	require.Nil(t, wf.Location)
}

func TestSetGroupClearsLocation(t *testing.T) {
	wf := New(models.ProcessShipping)
	wf.SetCompany(&models.Company{ID: 1, Name: "Acme"})
	wf.SetGroup(&models.Group{ID: 10, Name: "North"})
	wf.SetLocation(&models.Location{ID: 100, Name: "Dock 1"})

	wf.SetGroup(&models.Group{ID: 11, Name: "South"})

	require.Equal(t, 11, wf.Group.ID)
	require.Nil(t, wf.Location)
}

func TestShippingRequiresCompany(t *testing.T) {
	wf := New(models.ProcessShipping)
	require.Error(t, wf.Validate())

	wf.SetCompany(&models.Company{ID: 1, Name: "Acme"})
	require.NoError(t, wf.Validate())
}

func TestShippingGroupAndLocationAreOptional(t *testing.T) {
	wf := New(models.ProcessShipping)
	wf.SetCompany(&models.Company{ID: 1, Name: "Acme"})
	require.NoError(t, wf.Validate())
}

func TestReturnAndDisposalNeedNoSelection(t *testing.T) {
	require.NoError(t, New(models.ProcessReturn).Validate())
	require.NoError(t, New(models.ProcessDisposal).Validate())
}

func TestValidateRejectsUnknownProcess(t *testing.T) {
	wf := New(models.ProcessType("teleport"))
	require.Error(t, wf.Validate())
}

func TestSnapshotIsIndependentCopy(t *testing.T) {
	wf := New(models.ProcessShipping)
	wf.SetCompany(&models.Company{ID: 1, Name: "Acme"})

	snap := wf.Snapshot()
	wf.SetCompany(&models.Company{ID: 2, Name: "Globex"})

	require.Equal(t, 1, snap.Company.ID)
	require.Nil(t, snap.Group)
}
